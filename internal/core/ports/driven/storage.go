package driven

import "github.com/doclens-ai/doclens-cli/internal/core/domain"

// DatabaseStore persists embedding databases: the durable registry of
// database identities plus, per database, the vector index files and
// the document→chunk-id mapping file.
//
// The registry is the single source of truth for which databases exist.
// Mutations append or remove single entries and never rewrite unrelated
// ones. Index and mapping writes are atomic (write temp + rename) so a
// reload after a mutation always observes a fully-written state.
type DatabaseStore interface {
	// List returns all registered databases.
	List() ([]domain.DatabaseInfo, error)

	// Find returns the registry entry for a database name, or an error
	// wrapping domain.ErrStoreNotFound.
	Find(name string) (*domain.DatabaseInfo, error)

	// Register adds a registry entry. Fails with domain.ErrAlreadyExists
	// if the name is taken.
	Register(info domain.DatabaseInfo) error

	// Deregister removes the registry entry for the given database ID.
	Deregister(id string) error

	// NewIndex creates an empty vector index for a new database.
	NewIndex(dimensions int) VectorIndex

	// LoadIndex loads the persisted vector index of a database. Returns
	// an error wrapping domain.ErrStoreCorrupt if the files are missing.
	LoadIndex(id string) (VectorIndex, error)

	// SaveIndex persists the vector index of a database atomically.
	SaveIndex(id string, index VectorIndex) error

	// LoadMapping loads docNameToChunkIds.json for a database. Returns
	// an error wrapping domain.ErrStoreCorrupt if the file is missing.
	LoadMapping(id string) (map[string][]string, error)

	// SaveMapping persists docNameToChunkIds.json atomically.
	SaveMapping(id string, mapping map[string][]string) error

	// LoadChunks loads the chunk records of a database, keyed by chunk
	// ID. Returns an error wrapping domain.ErrStoreCorrupt if the file
	// is missing.
	LoadChunks(id string) (map[string]domain.Chunk, error)

	// SaveChunks persists the chunk records atomically.
	SaveChunks(id string, chunks map[string]domain.Chunk) error

	// Delete removes the database directory (index + mapping) and its
	// registry entry.
	Delete(id string) error
}
