package domain

import "time"

// Document is the normalised output of a format extractor, before
// chunking. Documents are transient: they exist between extraction and
// chunking and are discarded afterwards.
type Document struct {
	// Source is the document name used as the mapping key in a database
	// (usually the file base name).
	Source string

	// Path is the original file path the document was extracted from.
	Path string

	// Title is a human-readable title derived from content or filename.
	Title string

	// Content is the normalised text content.
	Content string

	// Language is the detected programming language for source code,
	// empty for prose. Enables language-aware splitting.
	Language string

	// Atomic marks a document that must never be split further
	// (CSV rows, spreadsheet rows). An atomic document becomes exactly
	// one chunk regardless of its token length.
	Atomic bool

	// SectionIndex is the ordinal of this document within its file when
	// a file yields several documents (markdown sections, PDF pages,
	// CSV rows). Zero-based.
	SectionIndex int

	// PageNumber is the 1-based page for paginated formats, 0 otherwise.
	PageNumber int

	// PageCount is the total page count for paginated formats.
	PageCount int
}

// Chunk is the unit of embedding and retrieval: a token-bounded
// fragment of a document. The ID is generated once at chunking time and
// is never reused, even when the same document is re-ingested.
type Chunk struct {
	// ID is the unique chunk identifier, the join key between the
	// vector index and the document→chunk mapping.
	ID string `json:"id"`

	// Content is the text content of this chunk.
	Content string `json:"content"`

	// Metadata carries the provenance of the chunk.
	Metadata ChunkMetadata `json:"metadata"`
}

// ChunkMetadata records where a chunk came from. It is carried through
// search and fusion and cited back to the user as a source.
type ChunkMetadata struct {
	// Source is the owning document name.
	Source string `json:"source"`

	// Title is the document title (possibly LLM-generated).
	Title string `json:"title"`

	// SectionIndex is the section/row ordinal within the file, if any.
	SectionIndex int `json:"sectionIndex,omitempty"`

	// PageNumber is the page for paginated formats, 0 otherwise.
	PageNumber int `json:"pageNumber,omitempty"`

	// Timestamp is when the chunk was created.
	Timestamp time.Time `json:"timestamp"`
}
