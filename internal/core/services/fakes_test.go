package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/doclens-ai/doclens-cli/internal/core/domain"
	"github.com/doclens-ai/doclens-cli/internal/core/ports/driven"
)

// fakeChat is a scripted chat provider that records every prompt.
type fakeChat struct {
	mu      sync.Mutex
	calls   []string
	respond func(prompt string) (string, error)
	tokens  []string
	stream  error
}

var _ driven.ChatProvider = (*fakeChat)(nil)

func (f *fakeChat) Chat(_ context.Context, messages []domain.ChatMessage, _ driven.ChatOptions) (string, error) {
	prompt := messages[len(messages)-1].Content
	f.mu.Lock()
	f.calls = append(f.calls, prompt)
	f.mu.Unlock()
	if f.respond == nil {
		return "", nil
	}
	return f.respond(prompt)
}

func (f *fakeChat) ChatStream(ctx context.Context, _ []domain.ChatMessage, _ driven.ChatOptions) (<-chan driven.StreamEvent, error) {
	events := make(chan driven.StreamEvent)
	go func() {
		defer close(events)
		for _, tok := range f.tokens {
			if ctx.Err() != nil {
				events <- driven.StreamEvent{Kind: driven.StreamError, Err: ctx.Err()}
				return
			}
			events <- driven.StreamEvent{Kind: driven.StreamToken, Token: tok}
		}
		if f.stream != nil {
			events <- driven.StreamEvent{Kind: driven.StreamError, Err: f.stream}
			return
		}
		events <- driven.StreamEvent{Kind: driven.StreamDone}
	}()
	return events, nil
}

func (f *fakeChat) ModelName() string          { return "fake-chat" }
func (f *fakeChat) Ping(context.Context) error { return nil }
func (f *fakeChat) Close() error               { return nil }

func (f *fakeChat) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeEmbedder returns fixed vectors by exact text, or a default unit
// vector for unknown text.
type fakeEmbedder struct {
	vectors map[string][]float32
}

var _ driven.EmbeddingProvider = (*fakeEmbedder)(nil)

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int            { return 3 }
func (f *fakeEmbedder) ModelName() string          { return "fake-embed" }
func (f *fakeEmbedder) Ping(context.Context) error { return nil }
func (f *fakeEmbedder) Close() error               { return nil }

// failingEmbedder fails every call.
type failingEmbedder struct{ fakeEmbedder }

func (f *failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("%w: embedding backend down", domain.ErrEmbeddingProvider)
}

func (f *failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, fmt.Errorf("%w: embedding backend down", domain.ErrEmbeddingProvider)
}

// stubPrompts serves minimal templates whose rendered output starts
// with the prompt name, so fakes can dispatch on it.
type stubPrompts struct{}

var _ driven.PromptStore = stubPrompts{}

func (stubPrompts) Load(name string) (string, error) {
	switch name {
	case driven.PromptSufficiency, driven.PromptTransform:
		return name + ": %s | %s", nil
	default:
		return name + ": %s", nil
	}
}

// fakeExtractors serves canned documents by path.
type fakeExtractors struct {
	docs map[string][]domain.Document
	errs map[string]error
}

var _ driven.ExtractorRegistry = (*fakeExtractors)(nil)

func (f *fakeExtractors) Extract(_ context.Context, path string) ([]domain.Document, error) {
	if err, ok := f.errs[path]; ok {
		return nil, err
	}
	docs, ok := f.docs[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, path)
	}
	return docs, nil
}

func (f *fakeExtractors) Supported(path string) bool {
	_, ok := f.docs[path]
	return ok
}

// memIndex is a brute-force in-memory vector index for tests.
type memIndex struct {
	mu      sync.RWMutex
	vectors map[string][]float32
}

var _ driven.VectorIndex = (*memIndex)(nil)

func newMemIndex() *memIndex {
	return &memIndex{vectors: make(map[string][]float32)}
}

func (m *memIndex) Add(_ context.Context, chunkID string, embedding []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors[chunkID] = embedding
	return nil
}

func (m *memIndex) Remove(_ context.Context, chunkIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range chunkIDs {
		delete(m.vectors, id)
	}
	return nil
}

func (m *memIndex) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := make([]driven.VectorHit, 0, len(m.vectors))
	for id, v := range m.vectors {
		var score float64
		for i := range v {
			score += float64(v[i]) * float64(query[i])
		}
		hits = append(hits, driven.VectorHit{ChunkID: id, Score: score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *memIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}

func (m *memIndex) Save(string) error { return nil }

// memStore is an in-memory DatabaseStore for tests.
type memStore struct {
	mu       sync.Mutex
	infos    []domain.DatabaseInfo
	indexes  map[string]driven.VectorIndex
	mappings map[string]map[string][]string
	chunks   map[string]map[string]domain.Chunk
	saves    int
}

var _ driven.DatabaseStore = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		indexes:  make(map[string]driven.VectorIndex),
		mappings: make(map[string]map[string][]string),
		chunks:   make(map[string]map[string]domain.Chunk),
	}
}

func (s *memStore) List() ([]domain.DatabaseInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.DatabaseInfo(nil), s.infos...), nil
}

func (s *memStore) Find(name string) (*domain.DatabaseInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.infos {
		if s.infos[i].Name == name {
			info := s.infos[i]
			return &info, nil
		}
	}
	return nil, fmt.Errorf("database %q: %w", name, domain.ErrStoreNotFound)
}

func (s *memStore) Register(info domain.DatabaseInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.infos {
		if e.Name == info.Name {
			return fmt.Errorf("database %q: %w", info.Name, domain.ErrAlreadyExists)
		}
	}
	s.infos = append(s.infos, info)
	return nil
}

func (s *memStore) Deregister(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.infos[:0]
	for _, e := range s.infos {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.infos = kept
	return nil
}

func (s *memStore) NewIndex(int) driven.VectorIndex { return newMemIndex() }

func (s *memStore) LoadIndex(id string) (driven.VectorIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexes[id]
	if !ok {
		return nil, fmt.Errorf("database %s has no index: %w", id, domain.ErrStoreCorrupt)
	}
	return idx, nil
}

func (s *memStore) SaveIndex(id string, index driven.VectorIndex) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes[id] = index
	s.saves++
	return nil
}

func (s *memStore) LoadMapping(id string) (map[string][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mappings[id]
	if !ok {
		return nil, fmt.Errorf("database %s has no mapping: %w", id, domain.ErrStoreCorrupt)
	}
	return m, nil
}

func (s *memStore) SaveMapping(id string, mapping map[string][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings[id] = mapping
	return nil
}

func (s *memStore) LoadChunks(id string) (map[string]domain.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chunks[id]
	if !ok {
		return nil, fmt.Errorf("database %s has no chunk records: %w", id, domain.ErrStoreCorrupt)
	}
	return c, nil
}

func (s *memStore) SaveChunks(id string, chunks map[string]domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[id] = chunks
	return nil
}

func (s *memStore) Delete(id string) error {
	s.mu.Lock()
	delete(s.indexes, id)
	delete(s.mappings, id)
	delete(s.chunks, id)
	s.mu.Unlock()
	return s.Deregister(id)
}
