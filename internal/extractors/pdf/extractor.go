// Package pdf extracts PDF files, one document per page.
package pdf

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ledongthuc/pdf"

	"github.com/doclens-ai/doclens-cli/internal/core/domain"
	"github.com/doclens-ai/doclens-cli/internal/core/ports/driven"
	"github.com/doclens-ai/doclens-cli/internal/extractors/textnorm"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles PDF files.
type Extractor struct{}

// New creates a new PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".pdf"}
}

// Extract performs paginated extraction: one document per page, with
// page number and page count in the metadata. Pages with no extractable
// text are skipped.
func (e *Extractor) Extract(ctx context.Context, path string) ([]domain.Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf %s: %w", domain.ErrExtraction, path, err)
	}
	defer f.Close()

	source := filepath.Base(path)
	title := textnorm.TitleFromPath(path)
	pageCount := reader.NumPage()

	docs := make([]domain.Document, 0, pageCount)
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: pdf page %d of %s: %w", domain.ErrExtraction, pageNum, path, err)
		}

		content := textnorm.Clean(text)
		if content == "" {
			continue
		}

		docs = append(docs, domain.Document{
			Source:       source,
			Path:         path,
			Title:        title,
			Content:      content,
			SectionIndex: pageNum - 1,
			PageNumber:   pageNum,
			PageCount:    pageCount,
		})
	}

	return docs, nil
}
