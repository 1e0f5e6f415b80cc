package driven

import "context"

// VectorIndex provides nearest-neighbour search by inner product over
// chunk embeddings. One index belongs to exactly one database.
type VectorIndex interface {
	// Add inserts a vector for the given chunk ID.
	Add(ctx context.Context, chunkID string, embedding []float32) error

	// Remove deletes the vectors for the given chunk IDs. Unknown IDs
	// are ignored.
	Remove(ctx context.Context, chunkIDs []string) error

	// Search finds the k nearest neighbours to the query vector by
	// inner product, highest score first.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Len returns the number of stored vectors.
	Len() int

	// Save persists the index to the given directory atomically.
	Save(dir string) error
}

// VectorHit is one similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the inner-product similarity.
	Score float64
}
