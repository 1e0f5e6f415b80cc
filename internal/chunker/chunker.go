// Package chunker splits normalised documents into token-bounded,
// overlapping chunks. Lengths are measured in model tokens via a fixed
// tokenizer so chunk budgets stay comparable across embedding
// providers. Splitting is recursive-separator based: paragraph breaks
// first, then line breaks, then sentence punctuation, with hard token
// cuts as the last resort. When the document carries a programming
// language, language-aware separators take priority.
package chunker

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkoukk/tiktoken-go"

	"github.com/doclens-ai/doclens-cli/internal/core/domain"
)

// encodingName is the fixed tokenizer used for all chunk budgets.
const encodingName = "cl100k_base"

// genericSeparators are tried in order for prose.
var genericSeparators = []string{"\n\n", "\n", "。", ". ", "! ", "? ", " "}

// languageSeparators put declaration boundaries ahead of the generic
// separators for known languages.
var languageSeparators = map[string][]string{
	"go":         {"\nfunc ", "\ntype ", "\nvar ", "\nconst "},
	"python":     {"\nclass ", "\ndef ", "\n\tdef ", "\n    def "},
	"javascript": {"\nfunction ", "\nclass ", "\nconst ", "\nexport "},
	"typescript": {"\nfunction ", "\nclass ", "\ninterface ", "\nexport "},
	"java":       {"\nclass ", "\npublic ", "\nprotected ", "\nprivate "},
	"kotlin":     {"\nclass ", "\nfun ", "\nobject ", "\nval "},
	"rust":       {"\nfn ", "\nimpl ", "\nstruct ", "\nenum ", "\ntrait "},
	"c":          {"\nstatic ", "\nvoid ", "\nstruct ", "\ntypedef "},
	"cpp":        {"\nclass ", "\nnamespace ", "\nvoid ", "\ntemplate "},
	"csharp":     {"\nclass ", "\nnamespace ", "\npublic ", "\nprivate "},
	"ruby":       {"\nclass ", "\ndef ", "\nmodule "},
	"php":        {"\nfunction ", "\nclass "},
	"swift":      {"\nfunc ", "\nclass ", "\nstruct ", "\nextension "},
	"shell":      {"\nfunction ", "\n# "},
	"sql":        {"\nCREATE ", "\nSELECT ", "\nINSERT ", "\n--"},
}

// Splitter produces chunks from documents.
type Splitter struct {
	enc *tiktoken.Tiktoken
}

// New creates a splitter with the fixed tokenizer.
func New() (*Splitter, error) {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %s: %w", encodingName, err)
	}
	return &Splitter{enc: enc}, nil
}

// Overlap returns the chunk overlap in tokens:
// floor(chunkSize * overlapPercent / 100).
func Overlap(settings domain.ChunkingSettings) int {
	settings = settings.Normalised()
	return settings.ChunkSize * settings.OverlapPercent / 100
}

// Split chunks all documents. Every produced chunk is assigned a fresh
// unique ID; callers derive the document→chunk-id mapping from the
// returned chunks so no chunk can exist without a mapping entry.
//
// Atomic documents (CSV/spreadsheet rows) yield exactly one chunk each,
// regardless of token length. All other chunks are at most
// settings.ChunkSize tokens unless a single unsplittable unit exceeds
// the budget.
func (s *Splitter) Split(docs []domain.Document, settings domain.ChunkingSettings) []domain.Chunk {
	settings = settings.Normalised()
	overlap := Overlap(settings)

	var chunks []domain.Chunk
	for i := range docs {
		doc := &docs[i]
		if strings.TrimSpace(doc.Content) == "" {
			continue
		}

		var contents []string
		if doc.Atomic {
			contents = []string{doc.Content}
		} else {
			seps := append(languageSeparators[doc.Language], genericSeparators...)
			pieces := s.splitText(doc.Content, seps, settings.ChunkSize)
			contents = s.merge(pieces, settings.ChunkSize, overlap)
		}

		for _, content := range contents {
			chunks = append(chunks, domain.Chunk{
				ID:      uuid.New().String(),
				Content: content,
				Metadata: domain.ChunkMetadata{
					Source:       doc.Source,
					Title:        doc.Title,
					SectionIndex: doc.SectionIndex,
					PageNumber:   doc.PageNumber,
					Timestamp:    time.Now(),
				},
			})
		}
	}

	return chunks
}

// TokenLen returns the token length of text under the fixed tokenizer.
func (s *Splitter) TokenLen(text string) int {
	return len(s.enc.Encode(text, nil, nil))
}

// splitText recursively splits text into pieces of at most chunkSize
// tokens, preferring earlier separators.
func (s *Splitter) splitText(text string, seps []string, chunkSize int) []string {
	if s.TokenLen(text) <= chunkSize {
		return []string{text}
	}
	if len(seps) == 0 {
		return s.hardCut(text, chunkSize)
	}

	parts := splitKeep(text, seps[0])
	if len(parts) == 1 {
		// Separator not present; try the next one.
		return s.splitText(text, seps[1:], chunkSize)
	}

	var pieces []string
	for _, part := range parts {
		if s.TokenLen(part) <= chunkSize {
			pieces = append(pieces, part)
			continue
		}
		pieces = append(pieces, s.splitText(part, seps[1:], chunkSize)...)
	}
	return pieces
}

// hardCut slices text into windows of exactly chunkSize tokens.
func (s *Splitter) hardCut(text string, chunkSize int) []string {
	tokens := s.enc.Encode(text, nil, nil)
	var pieces []string
	for start := 0; start < len(tokens); start += chunkSize {
		end := start + chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}
		pieces = append(pieces, s.enc.Decode(tokens[start:end]))
	}
	return pieces
}

// merge assembles pieces into chunks of at most chunkSize tokens,
// carrying roughly overlap tokens of trailing pieces into the next
// chunk.
func (s *Splitter) merge(pieces []string, chunkSize, overlap int) []string {
	var chunks []string
	var window []string
	windowLen := 0

	for _, piece := range pieces {
		pieceLen := s.TokenLen(piece)

		if windowLen+pieceLen > chunkSize && len(window) > 0 {
			chunks = append(chunks, strings.Join(window, ""))

			// Shrink the window from the front until it fits in the
			// overlap budget; what remains opens the next chunk.
			for windowLen > overlap && len(window) > 0 {
				windowLen -= s.TokenLen(window[0])
				window = window[1:]
			}
		}

		window = append(window, piece)
		windowLen += pieceLen
	}

	if len(window) > 0 {
		if tail := strings.Join(window, ""); strings.TrimSpace(tail) != "" {
			chunks = append(chunks, tail)
		}
	}

	return chunks
}

// splitKeep splits text on sep without losing it. Declaration and
// heading separators open the following piece; sentence punctuation
// and whitespace close the preceding one, so a mid-document chunk
// never starts with a stray ". ".
func splitKeep(text, sep string) []string {
	split := strings.Split(text, sep)
	if len(split) == 1 {
		return split
	}

	leading := strings.HasPrefix(sep, "\n") && strings.TrimSpace(sep) != ""

	parts := make([]string, 0, len(split))
	for i, p := range split {
		if leading {
			if i > 0 {
				p = sep + p
			}
		} else if i < len(split)-1 {
			p += sep
		}
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
