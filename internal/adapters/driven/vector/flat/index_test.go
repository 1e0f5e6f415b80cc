package flat

import (
	"context"
	"testing"
)

func TestAddAndSearch(t *testing.T) {
	ctx := context.Background()
	idx := New(3)

	vectors := map[string][]float32{
		"a": {1, 0, 0},
		"b": {0, 1, 0},
		"c": {0.7, 0.7, 0},
	}
	for id, v := range vectors {
		if err := idx.Add(ctx, id, v); err != nil {
			t.Fatalf("Add(%s): %v", id, err)
		}
	}

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].ChunkID != "a" {
		t.Errorf("best hit = %s, want a", hits[0].ChunkID)
	}
	if hits[1].ChunkID != "c" {
		t.Errorf("second hit = %s, want c", hits[1].ChunkID)
	}
	if hits[0].Score < hits[1].Score {
		t.Errorf("hits not sorted by score: %v", hits)
	}
}

func TestAddDimensionMismatch(t *testing.T) {
	idx := New(3)
	if err := idx.Add(context.Background(), "a", []float32{1, 2}); err == nil {
		t.Fatal("expected dimension error, got nil")
	}
}

func TestAddOverwritesExistingID(t *testing.T) {
	ctx := context.Background()
	idx := New(2)

	if err := idx.Add(ctx, "a", []float32{1, 0}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Add(ctx, "a", []float32{0, 1}); err != nil {
		t.Fatal(err)
	}
	if idx.Len() != 1 {
		t.Fatalf("Len = %d, want 1", idx.Len())
	}

	hits, err := idx.Search(ctx, []float32{0, 1}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if hits[0].Score != 1 {
		t.Errorf("score = %v, want 1 for overwritten vector", hits[0].Score)
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	idx := New(2)

	for _, id := range []string{"a", "b", "c"} {
		if err := idx.Add(ctx, id, []float32{1, 0}); err != nil {
			t.Fatal(err)
		}
	}

	if err := idx.Remove(ctx, []string{"b", "missing"}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if idx.Len() != 2 {
		t.Fatalf("Len = %d, want 2", idx.Len())
	}

	hits, err := idx.Search(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, h := range hits {
		if h.ChunkID == "b" {
			t.Error("removed chunk still returned by Search")
		}
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := New(2)
	hits, err := idx.Search(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("got %d hits from empty index, want 0", len(hits))
	}
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	idx := New(2)
	if err := idx.Add(ctx, "a", []float32{1, 0}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Add(ctx, "b", []float32{0, 1}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("loaded Len = %d, want 2", loaded.Len())
	}

	hits, err := loaded.Search(ctx, []float32{0, 1}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if hits[0].ChunkID != "b" {
		t.Errorf("best hit after reload = %s, want b", hits[0].ChunkID)
	}
}

func TestLoadMissingDir(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("expected error loading from empty directory")
	}
}
