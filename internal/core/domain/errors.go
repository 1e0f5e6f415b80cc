package domain

import "errors"

// Domain errors represent pipeline failures. Adapters wrap these with
// context; callers match with errors.Is.
var (
	// ErrUnsupportedFormat indicates a file extension no extractor handles.
	// Fatal for that file.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrExtraction indicates an extraction-library failure (corrupt PDF,
	// bad encoding). Per-file: non-fatal in best-effort addition, fatal
	// in strict creation.
	ErrExtraction = errors.New("extraction failed")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyExists indicates a database name is already registered.
	ErrAlreadyExists = errors.New("already exists")

	// ErrStoreNotFound indicates a database name has no registry entry.
	ErrStoreNotFound = errors.New("database not found")

	// ErrStoreCorrupt indicates a registered database is missing its
	// index or mapping file on disk.
	ErrStoreCorrupt = errors.New("database corrupt")

	// ErrEmbeddingProvider indicates an embedding provider failure
	// (network, auth, rate limit). Surfaced to the caller, not retried.
	ErrEmbeddingProvider = errors.New("embedding provider error")

	// ErrProviderUnsupported indicates an unknown provider in
	// configuration. This is a configuration bug, fatal.
	ErrProviderUnsupported = errors.New("unsupported provider")

	// ErrCancelled indicates a user-initiated cancellation. A
	// distinguished outcome, not a failure to log as an error.
	ErrCancelled = errors.New("cancelled")

	// ErrChatUnavailable indicates no chat provider is configured.
	ErrChatUnavailable = errors.New("chat provider unavailable")

	// ErrEmbeddingUnavailable indicates no embedding provider is
	// configured. Ingestion and search are disabled without one.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")
)
