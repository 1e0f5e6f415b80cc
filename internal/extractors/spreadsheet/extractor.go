// Package spreadsheet extracts xlsx workbooks. Each sheet is classified
// with a table-detection heuristic: tabular sheets yield one atomic
// document per data row (cells paired with header cells by column) plus
// an optional pre-table preamble document; non-tabular sheets yield one
// document per sheet. Per-row granularity matters because fixed-size
// chunking destroys row semantics in tabular data.
package spreadsheet

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/doclens-ai/doclens-cli/internal/core/domain"
	"github.com/doclens-ai/doclens-cli/internal/core/ports/driven"
	"github.com/doclens-ai/doclens-cli/internal/extractors/csv"
	"github.com/doclens-ai/doclens-cli/internal/extractors/textnorm"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// sampleRows is how many leading rows the table heuristic inspects.
const sampleRows = 10

// Extractor handles xlsx workbooks.
type Extractor struct{}

// New creates a new spreadsheet extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".xlsx", ".xlsm"}
}

// Extract reads every sheet of the workbook.
func (e *Extractor) Extract(ctx context.Context, path string) ([]domain.Document, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook %s: %w", domain.ErrExtraction, path, err)
	}
	defer f.Close()

	source := filepath.Base(path)

	var docs []domain.Document
	section := 0
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("%w: read sheet %q of %s: %w", domain.ErrExtraction, sheet, path, err)
		}
		if len(rows) == 0 {
			continue
		}

		headerIdx, tabular := DetectTable(rows)
		if tabular {
			docs, section = appendTableDocs(docs, section, source, path, sheet, rows, headerIdx)
			continue
		}

		content := joinSheet(rows)
		if content == "" {
			continue
		}
		docs = append(docs, domain.Document{
			Source:       source,
			Path:         path,
			Title:        sheet,
			Content:      content,
			SectionIndex: section,
		})
		section++
	}

	return docs, nil
}

// appendTableDocs emits the optional preamble document plus one atomic
// document per data row.
func appendTableDocs(
	docs []domain.Document, section int,
	source, path, sheet string,
	rows [][]string, headerIdx int,
) ([]domain.Document, int) {
	if preamble := joinSheet(rows[:headerIdx]); preamble != "" {
		docs = append(docs, domain.Document{
			Source:       source,
			Path:         path,
			Title:        sheet,
			Content:      preamble,
			SectionIndex: section,
		})
		section++
	}

	header := rows[headerIdx]
	for _, row := range rows[headerIdx+1:] {
		content := csv.FormatRow(header, row)
		if content == "" {
			continue
		}
		docs = append(docs, domain.Document{
			Source:       source,
			Path:         path,
			Title:        sheet,
			Content:      content,
			Atomic:       true,
			SectionIndex: section,
		})
		section++
	}

	return docs, section
}

// DetectTable decides whether a sheet is tabular: a majority of its
// first sampleRows rows must share a similar non-empty cell count (±1),
// with at least two columns. Returns the header row index (the first
// sampled row matching the dominant width) and the verdict.
func DetectTable(rows [][]string) (headerIdx int, tabular bool) {
	sample := rows
	if len(sample) > sampleRows {
		sample = sample[:sampleRows]
	}
	if len(sample) < 2 {
		return 0, false
	}

	counts := make([]int, len(sample))
	for i, row := range sample {
		counts[i] = nonEmptyCells(row)
	}

	// Dominant width: the count with the most rows within ±1 of it.
	best, bestMatches := 0, 0
	for _, candidate := range counts {
		if candidate < 2 {
			continue
		}
		matches := 0
		for _, c := range counts {
			if c >= candidate-1 && c <= candidate+1 {
				matches++
			}
		}
		if matches > bestMatches {
			best, bestMatches = candidate, matches
		}
	}

	if best < 2 || bestMatches*2 <= len(sample) {
		return 0, false
	}

	for i, c := range counts {
		if c >= best-1 && c <= best+1 {
			return i, true
		}
	}
	return 0, false
}

// nonEmptyCells counts cells with non-whitespace content.
func nonEmptyCells(row []string) int {
	n := 0
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			n++
		}
	}
	return n
}

// joinSheet renders rows as tab-separated lines, cleaned.
func joinSheet(rows [][]string) string {
	var lines []string
	for _, row := range rows {
		line := strings.TrimSpace(strings.Join(row, "\t"))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return textnorm.Clean(strings.Join(lines, "\n"))
}
