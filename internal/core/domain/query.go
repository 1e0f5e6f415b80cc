package domain

// SufficiencyDecision is the classifier's verdict on whether a document
// search is warranted for the current turn. When DocumentSearch is
// false the pipeline short-circuits before transformation and search.
type SufficiencyDecision struct {
	DocumentSearch bool   `json:"documentSearch"`
	Reason         string `json:"reason"`
}

// TransformedQuery is one retrieval-oriented paraphrase of the user's
// question. Perspective names the angle; Prompt is the declarative,
// answer-shaped text that is embedded and searched.
type TransformedQuery struct {
	Perspective string `json:"perspective"`
	Prompt      string `json:"prompt"`
}

// SearchResult is a single nearest-neighbour hit for one transformed
// query, before cross-query fusion.
type SearchResult struct {
	// Content is the chunk text.
	Content string

	// Metadata is the chunk provenance.
	Metadata ChunkMetadata

	// Score is the raw inner-product similarity.
	Score float64
}

// FusedResult is the unit returned to the caller after cross-query
// fusion: deduplicated content with a combined ranking score.
type FusedResult struct {
	// Content is the chunk text.
	Content string

	// Metadata is one representative provenance record for this content.
	Metadata ChunkMetadata

	// CombinedScore blends standardised similarity and keyword coverage,
	// boosted by cross-query agreement.
	CombinedScore float64

	// Count is the number of transformed queries that surfaced this
	// content.
	Count int
}
