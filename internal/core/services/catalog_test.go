package services

import (
	"context"
	"errors"
	"testing"

	"github.com/doclens-ai/doclens-cli/internal/core/domain"
)

// seedDatabase registers a database with one indexed chunk and returns
// its info.
func seedDatabase(t *testing.T, store *memStore, name string) domain.DatabaseInfo {
	t.Helper()

	info := domain.DatabaseInfo{ID: "id-" + name, Name: name, Description: "seeded"}
	if err := store.Register(info); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	index := newMemIndex()
	if err := index.Add(context.Background(), "chunk-1", []float32{1, 0, 0}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	store.indexes[info.ID] = index
	store.mappings[info.ID] = map[string][]string{"doc.md": {"chunk-1"}}
	store.chunks[info.ID] = map[string]domain.Chunk{
		"chunk-1": {
			ID:       "chunk-1",
			Content:  "indexed content",
			Metadata: domain.ChunkMetadata{Source: "doc.md"},
		},
	}
	return info
}

func TestCatalogGetOrLoadCaches(t *testing.T) {
	store := newMemStore()
	seedDatabase(t, store, "notes")
	catalog := NewCatalog(store)

	first, err := catalog.GetOrLoad("notes")
	if err != nil {
		t.Fatalf("GetOrLoad() error = %v", err)
	}
	second, err := catalog.GetOrLoad("notes")
	if err != nil {
		t.Fatalf("GetOrLoad() error = %v", err)
	}
	if first != second {
		t.Error("second GetOrLoad returned a different entry, want the cached one")
	}
}

func TestCatalogGetOrLoadMissing(t *testing.T) {
	catalog := NewCatalog(newMemStore())
	if _, err := catalog.GetOrLoad("absent"); !errors.Is(err, domain.ErrStoreNotFound) {
		t.Errorf("GetOrLoad() error = %v, want ErrStoreNotFound", err)
	}
}

func TestCatalogInvalidateReloads(t *testing.T) {
	store := newMemStore()
	seedDatabase(t, store, "notes")
	catalog := NewCatalog(store)

	first, err := catalog.GetOrLoad("notes")
	if err != nil {
		t.Fatalf("GetOrLoad() error = %v", err)
	}

	catalog.Invalidate("notes")
	second, err := catalog.GetOrLoad("notes")
	if err != nil {
		t.Fatalf("GetOrLoad() after Invalidate error = %v", err)
	}
	if first == second {
		t.Error("GetOrLoad after Invalidate returned the evicted entry")
	}
}

func TestCatalogMutatePersists(t *testing.T) {
	store := newMemStore()
	info := seedDatabase(t, store, "notes")
	catalog := NewCatalog(store)

	err := catalog.Mutate("notes", func(e *Entry) error {
		if err := e.index.Add(context.Background(), "chunk-2", []float32{0, 1, 0}); err != nil {
			return err
		}
		e.docs["extra.md"] = []string{"chunk-2"}
		e.chunks["chunk-2"] = domain.Chunk{ID: "chunk-2", Content: "more content"}
		return nil
	})
	if err != nil {
		t.Fatalf("Mutate() error = %v", err)
	}

	if store.saves == 0 {
		t.Error("Mutate did not persist the index")
	}
	mapping, err := store.LoadMapping(info.ID)
	if err != nil {
		t.Fatalf("LoadMapping() error = %v", err)
	}
	if len(mapping["extra.md"]) != 1 {
		t.Errorf("persisted mapping = %v, want extra.md with one chunk", mapping)
	}
}

func TestCatalogMutateRollsBackCacheOnError(t *testing.T) {
	store := newMemStore()
	seedDatabase(t, store, "notes")
	catalog := NewCatalog(store)

	wantErr := errors.New("mutation failed")
	err := catalog.Mutate("notes", func(e *Entry) error {
		e.docs["a.txt"] = []string{"c1"}
		e.chunks["c1"] = domain.Chunk{ID: "c1", Content: "half-applied"}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Mutate() error = %v, want %v", err, wantErr)
	}

	// The failed mutation touched the live entry before erroring, so the
	// cache must be evicted and the next access must reflect the store.
	reloaded, err := catalog.GetOrLoad("notes")
	if err != nil {
		t.Fatalf("GetOrLoad() error = %v", err)
	}
	if _, ok := reloaded.docs["a.txt"]; ok {
		t.Error("cached entry still holds the unpersisted document")
	}
	if _, ok := reloaded.chunks["c1"]; ok {
		t.Error("cached entry still holds the unpersisted chunk")
	}
}

func TestEntrySearchHydratesChunks(t *testing.T) {
	store := newMemStore()
	seedDatabase(t, store, "notes")
	catalog := NewCatalog(store)

	entry, err := catalog.GetOrLoad("notes")
	if err != nil {
		t.Fatalf("GetOrLoad() error = %v", err)
	}

	results, err := entry.Search(context.Background(), []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Search() returned %d results, want 1", len(results))
	}
	if results[0].Content != "indexed content" {
		t.Errorf("Content = %q, want %q", results[0].Content, "indexed content")
	}
	if results[0].Metadata.Source != "doc.md" {
		t.Errorf("Metadata.Source = %q, want %q", results[0].Metadata.Source, "doc.md")
	}
}

func TestEntryDatabaseSnapshotIsACopy(t *testing.T) {
	store := newMemStore()
	seedDatabase(t, store, "notes")
	catalog := NewCatalog(store)

	entry, err := catalog.GetOrLoad("notes")
	if err != nil {
		t.Fatalf("GetOrLoad() error = %v", err)
	}

	snapshot := entry.Database()
	snapshot.DocChunkIDs["doc.md"][0] = "tampered"

	if entry.Database().DocChunkIDs["doc.md"][0] != "chunk-1" {
		t.Error("mutating the snapshot changed the cached entry")
	}
}
