package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/doclens-ai/doclens-cli/internal/core/domain"
	"github.com/doclens-ai/doclens-cli/internal/core/ports/driven"
	"github.com/doclens-ai/doclens-cli/internal/logger"
)

// Catalog is the process-wide cache of loaded databases, keyed by name.
// It is a cache over the durable store, never the source of truth:
// evicting and reloading an entry must not change what is on disk.
//
// Reads (Search) on one entry may run concurrently; mutations go
// through Mutate, which holds the entry's write lock so mutating
// operations on the same name never interleave.
type Catalog struct {
	store driven.DatabaseStore

	mu      sync.Mutex
	entries map[string]*Entry
}

// Entry is one loaded database: identity, vector index, mapping and
// chunk records.
type Entry struct {
	mu     sync.RWMutex
	info   domain.DatabaseInfo
	index  driven.VectorIndex
	docs   map[string][]string
	chunks map[string]domain.Chunk
}

// NewCatalog creates an empty catalog over the given store.
func NewCatalog(store driven.DatabaseStore) *Catalog {
	return &Catalog{
		store:   store,
		entries: make(map[string]*Entry),
	}
}

// GetOrLoad returns the cached entry for name, loading it from the
// store on first access.
func (c *Catalog) GetOrLoad(name string) (*Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[name]; ok {
		return e, nil
	}

	e, err := c.load(name)
	if err != nil {
		return nil, err
	}
	c.entries[name] = e
	logger.Debug("catalog: loaded database %q (%d documents, %d vectors)",
		name, len(e.docs), e.index.Len())
	return e, nil
}

// Invalidate evicts the cached entry for name, if any. The next access
// reloads from disk.
func (c *Catalog) Invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, name)
}

// Mutate runs fn against the entry for name under its write lock, then
// persists the index, mapping and chunk records. The entry stays cached
// so a subsequent read observes the fully-written mutation. If fn fails
// or persistence fails the entry is evicted: fn may have applied part
// of its mutation to the live entry, and the next access must reload
// what the store actually recorded.
func (c *Catalog) Mutate(name string, fn func(e *Entry) error) error {
	e, err := c.GetOrLoad(name)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := fn(e); err != nil {
		c.Invalidate(name)
		return err
	}

	if err := c.store.SaveIndex(e.info.ID, e.index); err != nil {
		c.Invalidate(name)
		return fmt.Errorf("saving index: %w", err)
	}
	if err := c.store.SaveMapping(e.info.ID, e.docs); err != nil {
		c.Invalidate(name)
		return fmt.Errorf("saving mapping: %w", err)
	}
	if err := c.store.SaveChunks(e.info.ID, e.chunks); err != nil {
		c.Invalidate(name)
		return fmt.Errorf("saving chunks: %w", err)
	}
	return nil
}

// load reads one database from the store.
func (c *Catalog) load(name string) (*Entry, error) {
	info, err := c.store.Find(name)
	if err != nil {
		return nil, err
	}

	index, err := c.store.LoadIndex(info.ID)
	if err != nil {
		return nil, err
	}
	docs, err := c.store.LoadMapping(info.ID)
	if err != nil {
		return nil, err
	}
	chunks, err := c.store.LoadChunks(info.ID)
	if err != nil {
		return nil, err
	}

	return &Entry{
		info:   *info,
		index:  index,
		docs:   docs,
		chunks: chunks,
	}, nil
}

// Info returns the registry identity of the entry.
func (e *Entry) Info() domain.DatabaseInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.info
}

// Database returns a snapshot of the database identity and mapping.
func (e *Entry) Database() domain.Database {
	e.mu.RLock()
	defer e.mu.RUnlock()

	docs := make(map[string][]string, len(e.docs))
	for name, ids := range e.docs {
		docs[name] = append([]string(nil), ids...)
	}
	return domain.Database{
		ID:          e.info.ID,
		Name:        e.info.Name,
		Description: e.info.Description,
		DocChunkIDs: docs,
	}
}

// Search finds the k nearest chunks to the query vector and hydrates
// them into search results. Safe for concurrent use.
func (e *Entry) Search(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	hits, err := e.index.Search(ctx, vector, k)
	if err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(hits))
	for _, hit := range hits {
		chunk, ok := e.chunks[hit.ChunkID]
		if !ok {
			logger.Warn("catalog: vector %s has no chunk record, skipping", hit.ChunkID)
			continue
		}
		results = append(results, domain.SearchResult{
			Content:  chunk.Content,
			Metadata: chunk.Metadata,
			Score:    hit.Score,
		})
	}
	return results, nil
}
