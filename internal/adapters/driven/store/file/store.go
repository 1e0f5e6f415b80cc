// Package file provides a file-based implementation of driven.DatabaseStore.
//
// Layout under the base directory:
//
//	registry.json                  all registered databases
//	<id>/index.gob                 persisted vector index
//	<id>/docNameToChunkIds.json    document name → chunk ID mapping
//	<id>/chunks.json               chunk content and metadata by chunk ID
//
// registry.json is the single source of truth for which databases
// exist. All writes go through a temp file followed by a rename, so a
// crash mid-write never leaves a partially-written file behind.
package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/doclens-ai/doclens-cli/internal/adapters/driven/vector/flat"
	"github.com/doclens-ai/doclens-cli/internal/core/domain"
	"github.com/doclens-ai/doclens-cli/internal/core/ports/driven"
)

// registryFileName holds the database registry in the base directory.
const registryFileName = "registry.json"

// mappingFileName holds the document→chunk mapping in a database directory.
const mappingFileName = "docNameToChunkIds.json"

// chunksFileName holds the chunk records in a database directory.
const chunksFileName = "chunks.json"

// Store implements driven.DatabaseStore on the local filesystem.
type Store struct {
	mu      sync.Mutex
	baseDir string
}

var _ driven.DatabaseStore = (*Store)(nil)

// New creates a Store rooted at baseDir, creating it if needed.
func New(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// List returns all registered databases.
func (s *Store) List() ([]domain.DatabaseInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readRegistry()
}

// Find returns the registry entry with the given name.
func (s *Store) Find(name string) (*domain.DatabaseInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readRegistry()
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Name == name {
			return &entries[i], nil
		}
	}
	return nil, fmt.Errorf("database %q: %w", name, domain.ErrStoreNotFound)
}

// Register appends a registry entry.
func (s *Store) Register(info domain.DatabaseInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readRegistry()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Name == info.Name {
			return fmt.Errorf("database %q: %w", info.Name, domain.ErrAlreadyExists)
		}
	}
	return s.writeRegistry(append(entries, info))
}

// Deregister removes the registry entry with the given ID. Removing an
// unknown ID is not an error.
func (s *Store) Deregister(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deregisterLocked(id)
}

func (s *Store) deregisterLocked(id string) error {
	entries, err := s.readRegistry()
	if err != nil {
		return err
	}
	kept := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	return s.writeRegistry(kept)
}

// NewIndex creates an empty vector index for a new database.
func (s *Store) NewIndex(dimensions int) driven.VectorIndex {
	return flat.New(dimensions)
}

// LoadIndex loads the persisted vector index of a database.
func (s *Store) LoadIndex(id string) (driven.VectorIndex, error) {
	idx, err := flat.Load(s.databaseDir(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("database %s has no index: %w", id, domain.ErrStoreCorrupt)
		}
		return nil, fmt.Errorf("database %s: %w: %v", id, domain.ErrStoreCorrupt, err)
	}
	return idx, nil
}

// SaveIndex persists the vector index of a database.
func (s *Store) SaveIndex(id string, index driven.VectorIndex) error {
	return index.Save(s.databaseDir(id))
}

// LoadMapping loads the document→chunk mapping of a database.
func (s *Store) LoadMapping(id string) (map[string][]string, error) {
	data, err := os.ReadFile(filepath.Join(s.databaseDir(id), mappingFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("database %s has no mapping: %w", id, domain.ErrStoreCorrupt)
		}
		return nil, err
	}
	var mapping map[string][]string
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("database %s mapping: %w: %v", id, domain.ErrStoreCorrupt, err)
	}
	if mapping == nil {
		mapping = make(map[string][]string)
	}
	return mapping, nil
}

// SaveMapping persists the document→chunk mapping of a database.
func (s *Store) SaveMapping(id string, mapping map[string][]string) error {
	dir := s.databaseDir(id)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding mapping: %w", err)
	}
	return writeFileAtomic(filepath.Join(dir, mappingFileName), data)
}

// LoadChunks loads the chunk records of a database.
func (s *Store) LoadChunks(id string) (map[string]domain.Chunk, error) {
	data, err := os.ReadFile(filepath.Join(s.databaseDir(id), chunksFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("database %s has no chunk records: %w", id, domain.ErrStoreCorrupt)
		}
		return nil, err
	}
	var chunks map[string]domain.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("database %s chunks: %w: %v", id, domain.ErrStoreCorrupt, err)
	}
	if chunks == nil {
		chunks = make(map[string]domain.Chunk)
	}
	return chunks, nil
}

// SaveChunks persists the chunk records of a database.
func (s *Store) SaveChunks(id string, chunks map[string]domain.Chunk) error {
	dir := s.databaseDir(id)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	data, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("encoding chunks: %w", err)
	}
	return writeFileAtomic(filepath.Join(dir, chunksFileName), data)
}

// Delete removes the database directory and its registry entry.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(s.databaseDir(id)); err != nil {
		return fmt.Errorf("removing database directory: %w", err)
	}
	return s.deregisterLocked(id)
}

func (s *Store) databaseDir(id string) string {
	return filepath.Join(s.baseDir, id)
}

// registryFile is the on-disk registry format: two id-keyed maps, so
// adding or removing one database touches only its own entries.
type registryFile struct {
	Databases    map[string]string `json:"databases"`
	Descriptions map[string]string `json:"descriptions"`
}

// readRegistry returns the registry entries sorted by name, treating a
// missing file as an empty registry.
func (s *Store) readRegistry() ([]domain.DatabaseInfo, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, registryFileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var reg registryFile
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("registry: %w: %v", domain.ErrStoreCorrupt, err)
	}

	entries := make([]domain.DatabaseInfo, 0, len(reg.Databases))
	for id, name := range reg.Databases {
		entries = append(entries, domain.DatabaseInfo{
			ID:          id,
			Name:        name,
			Description: reg.Descriptions[id],
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (s *Store) writeRegistry(entries []domain.DatabaseInfo) error {
	reg := registryFile{
		Databases:    make(map[string]string, len(entries)),
		Descriptions: make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		reg.Databases[e.ID] = e.Name
		reg.Descriptions[e.ID] = e.Description
	}
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding registry: %w", err)
	}
	return writeFileAtomic(filepath.Join(s.baseDir, registryFileName), data)
}

// writeFileAtomic writes data to path via a temp file and rename.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
