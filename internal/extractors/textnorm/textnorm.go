// Package textnorm provides the text normalisation shared by all
// extractors: charset detection and decoding to UTF-8, Unicode NFC
// normalisation, control character stripping, and newline collapsing.
package textnorm

import (
	"bytes"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/unicode/norm"
)

var multiNewlineRe = regexp.MustCompile(`\n{3,}`)

// Normalise decodes raw bytes to canonical UTF-8 text: charset is
// detected and decoded, the result is NFC-normalised and cleaned.
func Normalise(raw []byte) (string, error) {
	reader, err := charset.NewReader(bytes.NewReader(raw), "text/plain")
	if err != nil {
		return "", err
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return Clean(norm.NFC.String(string(decoded))), nil
}

// Clean strips control characters except newline and tab, normalises
// line endings, and collapses runs of 3+ newlines to 2.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' || !unicode.IsControl(r) {
			b.WriteRune(r)
		}
	}

	return strings.TrimSpace(multiNewlineRe.ReplaceAllString(b.String(), "\n\n"))
}

// TitleFromPath derives a human-readable title from a file path.
func TitleFromPath(path string) string {
	filename := filepath.Base(path)
	ext := filepath.Ext(filename)
	if ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}
