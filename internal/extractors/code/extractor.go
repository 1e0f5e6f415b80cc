// Package code extracts source code files, tagging the programming
// language so the chunker can use language-aware separators.
package code

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

// languageByExt maps file extensions to language names.
var languageByExt = map[string]string{
	".go":    "go",
	".py":    "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".kt":    "kotlin",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".hpp":   "cpp",
	".cc":    "cpp",
	".cs":    "csharp",
	".rb":    "ruby",
	".php":   "php",
	".swift": "swift",
	".sh":    "shell",
	".sql":   "sql",
	".css":   "css",
	".yaml":  "yaml",
	".yml":   "yaml",
	".toml":  "toml",
	".xml":   "xml",
}

// Extractor handles source code files.
type Extractor struct{}

// New creates a new source code extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	exts := make([]string, 0, len(languageByExt))
	for ext := range languageByExt {
		exts = append(exts, ext)
	}
	return exts
}

// Extract reads the whole file as one document tagged with its
// detected language.
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
		Source:   filepath.Base(path),
		Path:     path,
		Title:    textnorm.TitleFromPath(path),
		Content:  content,
		Language: languageByExt[strings.ToLower(filepath.Ext(path))],
	}}, nil
}
