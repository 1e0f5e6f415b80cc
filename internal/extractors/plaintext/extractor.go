// Package plaintext extracts plain text files.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/doclens-ai/doclens-cli/internal/core/domain"
	"github.com/doclens-ai/doclens-cli/internal/core/ports/driven"
	"github.com/doclens-ai/doclens-cli/internal/extractors/textnorm"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text files.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".txt", ".text", ".log"}
}

// Extract reads the whole file as one document.
func (e *Extractor) Extract(_ context.Context, path string) ([]domain.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrExtraction, path, err)
	}

	content, err := textnorm.Normalise(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", domain.ErrExtraction, path, err)
	}

	return []domain.Document{{
		Source:  filepath.Base(path),
		Path:    path,
		Title:   textnorm.TitleFromPath(path),
		Content: content,
	}}, nil
}
