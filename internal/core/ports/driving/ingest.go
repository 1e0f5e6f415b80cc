package driving

import (
	"context"

	"github.com/doclens-ai/doclens-cli/internal/core/domain"
)

// IngestService drives the document ingestion pipeline: extraction,
// chunking, embedding, and index maintenance for named databases.
type IngestService interface {
	// CreateDatabase builds a new database from the given files.
	// All-or-nothing: any file or embedding failure aborts the creation
	// and no partial database is registered. Returns the database ID.
	CreateDatabase(ctx context.Context, name, description string, paths []string) (string, error)

	// AddDocuments adds files to an existing database, best-effort: one
	// file's failure is recorded in the report and does not prevent
	// other files from being added.
	AddDocuments(ctx context.Context, name string, paths []string) (*AddReport, error)

	// DeleteDocument removes one document and exactly its chunks from
	// the database. A no-op with a logged warning when docName is absent.
	DeleteDocument(ctx context.Context, name, docName string) error

	// DeleteDatabase removes the persisted index, mapping and registry
	// entry for the named database.
	DeleteDatabase(ctx context.Context, name string) error

	// ListDatabases returns all registered databases.
	ListDatabases(ctx context.Context) ([]domain.DatabaseInfo, error)
}

// AddReport is the outcome of a best-effort document addition.
type AddReport struct {
	// Success is true when at least one file was added.
	Success bool

	// Files holds one entry per input file, in input order.
	Files []FileResult
}

// FileResult records the outcome of ingesting one file.
type FileResult struct {
	// Path is the input file path.
	Path string

	// Chunks is the number of chunks produced, 0 on failure.
	Chunks int

	// Err is the per-file failure, nil on success.
	Err error
}

// FailedFiles returns the results for files that failed.
func (r *AddReport) FailedFiles() []FileResult {
	var failed []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			failed = append(failed, f)
		}
	}
	return failed
}
