// Package jsonfile extracts JSON files, re-serialising them
// pretty-printed so structure survives normalisation and chunking.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/doclens-ai/doclens-cli/internal/core/domain"
	"github.com/doclens-ai/doclens-cli/internal/core/ports/driven"
	"github.com/doclens-ai/doclens-cli/internal/extractors/textnorm"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles JSON files.
type Extractor struct{}

// New creates a new JSON extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".json"}
}

// Extract parses the JSON and re-serialises it indented, one document
// per file.
func (e *Extractor) Extract(_ context.Context, path string) ([]domain.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrExtraction, path, err)
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("%w: parse json %s: %w", domain.ErrExtraction, path, err)
	}

	pretty, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: reserialise json %s: %w", domain.ErrExtraction, path, err)
	}

	return []domain.Document{{
		Source:  filepath.Base(path),
		Path:    path,
		Title:   textnorm.TitleFromPath(path),
		Content: textnorm.Clean(string(pretty)),
	}}, nil
}
