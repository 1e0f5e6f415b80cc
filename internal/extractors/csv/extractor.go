// Package csv extracts CSV files, one document per row. Rows are
// formatted as "column: value" lines and marked atomic so a row is
// never merged with its neighbours or split by the chunker: fixed-size
// chunking destroys row semantics in tabular data.
package csv

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/doclens-ai/doclens-cli/internal/core/domain"
	"github.com/doclens-ai/doclens-cli/internal/core/ports/driven"
	"github.com/doclens-ai/doclens-cli/internal/extractors/textnorm"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles CSV files.
type Extractor struct{}

// New creates a new CSV extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".csv", ".tsv"}
}

// Extract reads the CSV and returns one atomic document per data row.
// The first row is treated as the header.
func (e *Extractor) Extract(_ context.Context, path string) ([]domain.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrExtraction, path, err)
	}

	decoded, err := textnorm.Normalise(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", domain.ErrExtraction, path, err)
	}

	reader := csv.NewReader(bytes.NewReader([]byte(decoded)))
	reader.FieldsPerRecord = -1
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		reader.Comma = '\t'
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse csv %s: %w", domain.ErrExtraction, path, err)
	}
	if len(rows) < 2 {
		// Header only, or empty: nothing to index.
		return nil, nil
	}

	header := rows[0]
	source := filepath.Base(path)
	title := textnorm.TitleFromPath(path)

	docs := make([]domain.Document, 0, len(rows)-1)
	for i, row := range rows[1:] {
		content := FormatRow(header, row)
		if content == "" {
			continue
		}
		docs = append(docs, domain.Document{
			Source:       source,
			Path:         path,
			Title:        title,
			Content:      content,
			Atomic:       true,
			SectionIndex: i,
		})
	}

	return docs, nil
}

// FormatRow renders one data row as "column: value" lines. Cells beyond
// the header width get a positional column name; empty cells are
// skipped.
func FormatRow(header, row []string) string {
	var b strings.Builder
	for i, cell := range row {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		name := ""
		if i < len(header) {
			name = strings.TrimSpace(header[i])
		}
		if name == "" {
			name = fmt.Sprintf("column %d", i+1)
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(cell)
	}
	return b.String()
}
