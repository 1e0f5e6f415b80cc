package driven

import (
	"context"

	"github.com/doclens-ai/doclens-cli/internal/core/domain"
)

// Extractor reads one file format and produces normalised documents.
// A file may yield several documents (PDF pages, markdown sections,
// CSV rows, spreadsheet rows).
type Extractor interface {
	// Extensions returns the file extensions this extractor handles,
	// lower case with leading dot (".pdf", ".md").
	Extensions() []string

	// Extract reads the file at path and returns its documents. Returns
	// an error wrapping domain.ErrExtraction when the underlying
	// library fails for this file.
	Extract(ctx context.Context, path string) ([]domain.Document, error)
}

// ExtractorRegistry dispatches files to extractors by extension.
type ExtractorRegistry interface {
	// Extract picks the extractor for the file's extension and runs it.
	// Returns an error wrapping domain.ErrUnsupportedFormat when no
	// extractor claims the extension.
	Extract(ctx context.Context, path string) ([]domain.Document, error)

	// Supported reports whether the extension of path is handled.
	Supported(path string) bool
}
