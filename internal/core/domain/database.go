package domain

// Database is one named, persisted embedding collection together with
// its document→chunk-id mapping. The ID is generated at creation and is
// stable for the lifetime of the database; the Name is the user-facing
// key. Renaming is modelled as delete + recreate.
type Database struct {
	// ID is the generated identifier, used as the on-disk directory name.
	ID string

	// Name is the unique user-chosen name.
	Name string

	// Description is free text shown to the user and fed to the
	// sufficiency classifier as context.
	Description string

	// DocChunkIDs maps document name to the chunk ids it owns.
	// Invariant: every chunk id present in the vector index appears in
	// exactly one entry of this map.
	DocChunkIDs map[string][]string
}

// ChunkIDs returns all chunk ids owned by docName, nil if absent.
func (d *Database) ChunkIDs(docName string) []string {
	return d.DocChunkIDs[docName]
}

// HasDocument reports whether docName is present in the mapping.
func (d *Database) HasDocument(docName string) bool {
	_, ok := d.DocChunkIDs[docName]
	return ok
}

// DocumentNames returns the names of all documents in the database.
func (d *Database) DocumentNames() []string {
	names := make([]string, 0, len(d.DocChunkIDs))
	for name := range d.DocChunkIDs {
		names = append(names, name)
	}
	return names
}

// DatabaseInfo is the registry view of a database: identity without the
// mapping. Listing databases must not require loading their indexes.
type DatabaseInfo struct {
	ID          string
	Name        string
	Description string
}
