// Package markdown extracts markdown files, splitting them into
// sections at top-level heading boundaries so heading structure
// survives chunking.
package markdown

import (
	"context"
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

// Extractor handles markdown files.
type Extractor struct{}

// New creates a new markdown extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".md", ".markdown"}
}

// Extract reads the file and splits it into one document per top-level
// section. A file without top-level headings yields one document.
func (e *Extractor) Extract(_ context.Context, path string) ([]domain.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrExtraction, path, err)
	}

	content, err := textnorm.Normalise(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", domain.ErrExtraction, path, err)
	}

	source := filepath.Base(path)
	fileTitle := textnorm.TitleFromPath(path)

	sections := splitSections(content)
	docs := make([]domain.Document, 0, len(sections))
	for i, section := range sections {
		title := headingOf(section)
		if title == "" {
			title = fileTitle
		}
		docs = append(docs, domain.Document{
			Source:       source,
			Path:         path,
			Title:        title,
			Content:      section,
			SectionIndex: i,
		})
	}

	return docs, nil
}

// splitSections splits markdown at top-level heading boundaries.
// Content before the first heading becomes its own section. Headings
// inside fenced code blocks are not boundaries.
func splitSections(content string) []string {
	lines := strings.Split(content, "\n")

	var sections []string
	var current []string
	inFence := false

	flush := func() {
		section := strings.TrimSpace(strings.Join(current, "\n"))
		if section != "" {
			sections = append(sections, section)
		}
		current = current[:0]
	}

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
		}
		if !inFence && strings.HasPrefix(line, "# ") {
			flush()
		}
		current = append(current, line)
	}
	flush()

	if len(sections) == 0 {
		return []string{""}
	}
	return sections
}

// headingOf returns the text of the section's leading heading, if any.
func headingOf(section string) string {
	line, _, _ := strings.Cut(section, "\n")
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "# ") {
		return strings.TrimSpace(strings.TrimPrefix(line, "#"))
	}
	return ""
}
