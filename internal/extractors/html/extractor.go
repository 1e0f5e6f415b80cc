// Package html extracts HTML files, converting markup to plain text.
package html

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/doclens-ai/doclens-cli/internal/core/domain"
	"github.com/doclens-ai/doclens-cli/internal/core/ports/driven"
	"github.com/doclens-ai/doclens-cli/internal/extractors/textnorm"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// blockSelectors are elements rendered with a trailing newline so block
// structure survives text extraction.
const blockSelectors = "p, div, li, h1, h2, h3, h4, h5, h6, tr, br, section, article"

// Extractor handles HTML files.
type Extractor struct{}

// New creates a new HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".html", ".htm"}
}

// Extract converts the HTML to plain text, one document per file.
func (e *Extractor) Extract(_ context.Context, path string) ([]domain.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrExtraction, path, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html %s: %w", domain.ErrExtraction, path, err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = textnorm.TitleFromPath(path)
	}

	doc.Find("script, style, noscript, iframe").Remove()

	// Append a newline after block elements so their text does not run
	// together, then take the document text.
	doc.Find(blockSelectors).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	body := doc.Find("body")
	var text string
	if body.Length() > 0 {
		text = body.Text()
	} else {
		text = doc.Text()
	}

	return []domain.Document{{
		Source:  filepath.Base(path),
		Path:    path,
		Title:   title,
		Content: textnorm.Clean(collapseSpaces(text)),
	}}, nil
}

// collapseSpaces squeezes runs of spaces and tabs within each line.
func collapseSpaces(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.Join(lines, "\n")
}
