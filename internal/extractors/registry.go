// Package extractors dispatches files to format-specific extractors by
// file extension.
package extractors

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/doclens-ai/doclens-cli/internal/core/domain"
	"github.com/doclens-ai/doclens-cli/internal/core/ports/driven"
	"github.com/doclens-ai/doclens-cli/internal/extractors/code"
	"github.com/doclens-ai/doclens-cli/internal/extractors/csv"
	"github.com/doclens-ai/doclens-cli/internal/extractors/docx"
	"github.com/doclens-ai/doclens-cli/internal/extractors/html"
	"github.com/doclens-ai/doclens-cli/internal/extractors/jsonfile"
	"github.com/doclens-ai/doclens-cli/internal/extractors/markdown"
	"github.com/doclens-ai/doclens-cli/internal/extractors/pdf"
	"github.com/doclens-ai/doclens-cli/internal/extractors/plaintext"
	"github.com/doclens-ai/doclens-cli/internal/extractors/spreadsheet"
	"github.com/doclens-ai/doclens-cli/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps file extensions to extractors.
type Registry struct {
	byExt map[string]driven.Extractor
}

// NewRegistry creates a registry with the given extractors. Later
// extractors win on extension conflicts.
func NewRegistry(extractors ...driven.Extractor) *Registry {
	byExt := make(map[string]driven.Extractor)
	for _, e := range extractors {
		for _, ext := range e.Extensions() {
			byExt[strings.ToLower(ext)] = e
		}
	}
	return &Registry{byExt: byExt}
}

// Default creates a registry with all built-in extractors.
func Default() *Registry {
	return NewRegistry(
		plaintext.New(),
		markdown.New(),
		code.New(),
		pdf.New(),
		docx.New(),
		html.New(),
		jsonfile.New(),
		csv.New(),
		spreadsheet.New(),
	)
}

// Extract dispatches the file to its extractor.
func (r *Registry) Extract(ctx context.Context, path string) ([]domain.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q (%s)", domain.ErrUnsupportedFormat, ext, path)
	}

	logger.Debug("Extracting %s (%s)", path, ext)
	docs, err := e.Extract(ctx, path)
	if err != nil {
		return nil, err
	}
	logger.Debug("Extracted %d document(s) from %s", len(docs), path)
	return docs, nil
}

// Supported reports whether the extension of path is handled.
func (r *Registry) Supported(path string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}
