// Package docx extracts DOCX files by reading word/document.xml from
// the OOXML zip container.
package docx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/doclens-ai/doclens-cli/internal/core/domain"
	"github.com/doclens-ai/doclens-cli/internal/core/ports/driven"
	"github.com/doclens-ai/doclens-cli/internal/extractors/textnorm"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles DOCX files.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".docx"}
}

// Extract converts the DOCX to plain text, one document per file.
func (e *Extractor) Extract(_ context.Context, path string) ([]domain.Document, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open docx %s: %w", domain.ErrExtraction, path, err)
	}
	defer reader.Close()

	content, err := extractDocumentText(&reader.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: parse docx %s: %w", domain.ErrExtraction, path, err)
	}

	title := extractCoreTitle(&reader.Reader)
	if title == "" {
		title = textnorm.TitleFromPath(path)
	}

	return []domain.Document{{
		Source:  filepath.Base(path),
		Path:    path,
		Title:   title,
		Content: textnorm.Clean(content),
	}}, nil
}

// documentXML mirrors the paragraph/run/text nesting of
// word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// extractDocumentText extracts text from word/document.xml.
func extractDocumentText(reader *zip.Reader) (string, error) {
	raw, err := readZipFile(reader, "word/document.xml")
	if err != nil {
		return "", err
	}
	if raw == nil {
		return "", nil
	}

	var doc documentXML
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return "", err
	}

	var result strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			result.WriteString("\n")
		}
		for _, r := range para.Runs {
			for _, text := range r.Text {
				result.WriteString(text.Content)
			}
		}
	}
	return result.String(), nil
}

// coreXML is docProps/core.xml; only the title is of interest.
type coreXML struct {
	Title string `xml:"title"`
}

// extractCoreTitle returns the document title from docProps/core.xml,
// "" when absent.
func extractCoreTitle(reader *zip.Reader) string {
	raw, err := readZipFile(reader, "docProps/core.xml")
	if err != nil || raw == nil {
		return ""
	}

	var core coreXML
	if err := xml.Unmarshal(raw, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}

// readZipFile returns the content of name within the archive, nil when
// the entry does not exist.
func readZipFile(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, nil
}
