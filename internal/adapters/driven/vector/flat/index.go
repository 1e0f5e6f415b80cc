// Package flat provides a brute-force inner-product vector index,
// persisted with gob. Exact nearest-neighbour search over the full
// vector set; collections in this system are small enough that a
// linear scan stays well under provider round-trip latency.
package flat

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/doclens-ai/doclens-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// IndexFileName is the persisted index file within a database directory.
const IndexFileName = "index.gob"

// Index is a flat inner-product index.
type Index struct {
	mu         sync.RWMutex
	dimensions int
	ids        []string
	vectors    [][]float32
	pos        map[string]int
}

// persisted is the on-disk representation.
type persisted struct {
	Dimensions int
	IDs        []string
	Vectors    [][]float32
}

// New creates an empty index for vectors of the given dimensionality.
func New(dimensions int) *Index {
	return &Index{
		dimensions: dimensions,
		pos:        make(map[string]int),
	}
}

// Load reads a persisted index from dir.
func Load(dir string) (*Index, error) {
	f, err := os.Open(filepath.Join(dir, IndexFileName))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var p persisted
	if err := gob.NewDecoder(f).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	if len(p.IDs) != len(p.Vectors) {
		return nil, fmt.Errorf("decode index: %d ids but %d vectors", len(p.IDs), len(p.Vectors))
	}

	idx := New(p.Dimensions)
	idx.ids = p.IDs
	idx.vectors = p.Vectors
	for i, id := range p.IDs {
		idx.pos[id] = i
	}
	return idx, nil
}

// Add inserts a vector for the given chunk ID.
func (idx *Index) Add(_ context.Context, chunkID string, embedding []float32) error {
	if len(embedding) != idx.dimensions {
		return fmt.Errorf("vector for %s has %d dimensions, index expects %d",
			chunkID, len(embedding), idx.dimensions)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if i, ok := idx.pos[chunkID]; ok {
		idx.vectors[i] = embedding
		return nil
	}

	idx.pos[chunkID] = len(idx.ids)
	idx.ids = append(idx.ids, chunkID)
	idx.vectors = append(idx.vectors, embedding)
	return nil
}

// Remove deletes the vectors for the given chunk IDs. Unknown IDs are
// ignored.
func (idx *Index) Remove(_ context.Context, chunkIDs []string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	drop := make(map[string]bool, len(chunkIDs))
	for _, id := range chunkIDs {
		drop[id] = true
	}

	ids := idx.ids[:0]
	vectors := idx.vectors[:0]
	pos := make(map[string]int, len(idx.ids))
	for i, id := range idx.ids {
		if drop[id] {
			continue
		}
		pos[id] = len(ids)
		ids = append(ids, id)
		vectors = append(vectors, idx.vectors[i])
	}

	idx.ids = ids
	idx.vectors = vectors
	idx.pos = pos
	return nil
}

// Search finds the k nearest neighbours by inner product, highest score
// first. Ties keep insertion order.
func (idx *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) != idx.dimensions {
		return nil, fmt.Errorf("query has %d dimensions, index expects %d", len(query), idx.dimensions)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	hits := make([]driven.VectorHit, len(idx.ids))
	for i, id := range idx.ids {
		hits[i] = driven.VectorHit{ChunkID: id, Score: dot(idx.vectors[i], query)}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of stored vectors.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.ids)
}

// Save persists the index to dir atomically (write temp + rename).
func (idx *Index) Save(dir string) error {
	idx.mu.RLock()
	p := persisted{
		Dimensions: idx.dimensions,
		IDs:        idx.ids,
		Vectors:    idx.vectors,
	}
	idx.mu.RUnlock()

	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, IndexFileName+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(&p); err != nil {
		tmp.Close()
		return fmt.Errorf("encode index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), filepath.Join(dir, IndexFileName))
}

// dot computes the inner product of two equal-length vectors.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
