package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/doclens-ai/doclens-cli/internal/chunker"
	"github.com/doclens-ai/doclens-cli/internal/core/domain"
	"github.com/doclens-ai/doclens-cli/internal/core/ports/driven"
	"github.com/doclens-ai/doclens-cli/internal/core/ports/driving"
	"github.com/doclens-ai/doclens-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*Ingestor)(nil)

// titleSampleLen caps how much document text is sent to the title
// generation prompt.
const titleSampleLen = 1200

// Ingestor drives the ingestion pipeline: extraction, chunking,
// embedding and index maintenance for named databases.
type Ingestor struct {
	store      driven.DatabaseStore
	catalog    *Catalog
	extractors driven.ExtractorRegistry
	embedder   driven.EmbeddingProvider
	splitter   *chunker.Splitter
	chunking   domain.ChunkingSettings

	// chat and prompts are optional; when both are set, documents
	// without a title get one generated by the model.
	chat    driven.ChatProvider
	prompts driven.PromptStore

	// onFile, when set, is called after each file is processed.
	onFile func(result driving.FileResult)
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithTitleGeneration enables model-generated document titles.
func WithTitleGeneration(chat driven.ChatProvider, prompts driven.PromptStore) IngestorOption {
	return func(ing *Ingestor) {
		ing.chat = chat
		ing.prompts = prompts
	}
}

// WithFileProgress registers a per-file progress callback.
func WithFileProgress(fn func(result driving.FileResult)) IngestorOption {
	return func(ing *Ingestor) {
		ing.onFile = fn
	}
}

// NewIngestor creates an ingestion service.
func NewIngestor(
	store driven.DatabaseStore,
	catalog *Catalog,
	extractors driven.ExtractorRegistry,
	embedder driven.EmbeddingProvider,
	splitter *chunker.Splitter,
	chunking domain.ChunkingSettings,
	opts ...IngestorOption,
) *Ingestor {
	ing := &Ingestor{
		store:      store,
		catalog:    catalog,
		extractors: extractors,
		embedder:   embedder,
		splitter:   splitter,
		chunking:   chunking.Normalised(),
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// CreateDatabase builds a new database from the given files,
// all-or-nothing. No partial database is registered on failure.
func (ing *Ingestor) CreateDatabase(ctx context.Context, name, description string, paths []string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: database name is empty", domain.ErrInvalidInput)
	}
	if _, err := ing.store.Find(name); err == nil {
		return "", fmt.Errorf("database %q: %w", name, domain.ErrAlreadyExists)
	} else if !errors.Is(err, domain.ErrStoreNotFound) {
		return "", err
	}

	logger.Section(fmt.Sprintf("creating database %q from %d files", name, len(paths)))

	index := ing.store.NewIndex(ing.embedder.Dimensions())
	mapping := make(map[string][]string)
	records := make(map[string]domain.Chunk)

	for _, path := range paths {
		chunks, err := ing.ingestFile(ctx, path, index, mapping, records)
		ing.reportFile(driving.FileResult{Path: path, Chunks: chunks, Err: err})
		if err != nil {
			return "", fmt.Errorf("ingesting %s: %w", path, err)
		}
	}

	id := uuid.NewString()
	if err := ing.persist(id, index, mapping, records); err != nil {
		return "", err
	}
	if err := ing.store.Register(domain.DatabaseInfo{ID: id, Name: name, Description: description}); err != nil {
		// Roll back the orphaned directory so nothing partial survives.
		if cleanupErr := ing.store.Delete(id); cleanupErr != nil {
			logger.Warn("cleanup of unregistered database %s failed: %v", id, cleanupErr)
		}
		return "", err
	}

	logger.Info("created database %q (%s): %d documents, %d chunks",
		name, id, len(mapping), len(records))
	return id, nil
}

// AddDocuments adds files to an existing database, best-effort.
func (ing *Ingestor) AddDocuments(ctx context.Context, name string, paths []string) (*driving.AddReport, error) {
	report := &driving.AddReport{}

	err := ing.catalog.Mutate(name, func(e *Entry) error {
		for _, path := range paths {
			chunks, err := ing.ingestFile(ctx, path, e.index, e.docs, e.chunks)
			result := driving.FileResult{Path: path, Chunks: chunks, Err: err}
			report.Files = append(report.Files, result)
			ing.reportFile(result)

			if err != nil {
				// Cancellation aborts the batch; per-file failures do not.
				if ctx.Err() != nil {
					return fmt.Errorf("%w: %v", domain.ErrCancelled, err)
				}
				logger.Warn("adding %s failed: %v", path, err)
				continue
			}
			report.Success = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// DeleteDocument removes one document and exactly its chunks.
func (ing *Ingestor) DeleteDocument(ctx context.Context, name, docName string) error {
	return ing.catalog.Mutate(name, func(e *Entry) error {
		ids, ok := e.docs[docName]
		if !ok {
			logger.Warn("database %q has no document %q, nothing to delete", name, docName)
			return nil
		}
		if err := e.index.Remove(ctx, ids); err != nil {
			return fmt.Errorf("removing vectors: %w", err)
		}
		for _, id := range ids {
			delete(e.chunks, id)
		}
		delete(e.docs, docName)
		logger.Info("deleted document %q from %q (%d chunks)", docName, name, len(ids))
		return nil
	})
}

// DeleteDatabase removes the persisted database and its registry entry.
func (ing *Ingestor) DeleteDatabase(_ context.Context, name string) error {
	info, err := ing.store.Find(name)
	if err != nil {
		return err
	}
	if err := ing.store.Delete(info.ID); err != nil {
		return err
	}
	ing.catalog.Invalidate(name)
	logger.Info("deleted database %q (%s)", name, info.ID)
	return nil
}

// ListDatabases returns all registered databases.
func (ing *Ingestor) ListDatabases(_ context.Context) ([]domain.DatabaseInfo, error) {
	return ing.store.List()
}

// ingestFile extracts, chunks and embeds one file, appending into the
// given index, mapping and chunk records. Returns the chunk count.
func (ing *Ingestor) ingestFile(
	ctx context.Context,
	path string,
	index driven.VectorIndex,
	mapping map[string][]string,
	records map[string]domain.Chunk,
) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	docs, err := ing.extractors.Extract(ctx, path)
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, fmt.Errorf("%w: %s yielded no text", domain.ErrExtraction, path)
	}

	ing.fillTitles(ctx, docs)

	chunks := ing.splitter.Split(docs, ing.chunking)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w: %s yielded no chunks", domain.ErrExtraction, path)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := ing.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, err
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("%w: got %d vectors for %d chunks",
			domain.ErrEmbeddingProvider, len(vectors), len(chunks))
	}

	docName := docs[0].Source
	for i, c := range chunks {
		if err := index.Add(ctx, c.ID, vectors[i]); err != nil {
			return 0, err
		}
		records[c.ID] = c
		mapping[docName] = append(mapping[docName], c.ID)
	}

	logger.Debug("ingested %s: %d documents, %d chunks", path, len(docs), len(chunks))
	return len(chunks), nil
}

// fillTitles generates a title for untitled documents when a chat
// provider is configured. Failures fall back to the document name.
func (ing *Ingestor) fillTitles(ctx context.Context, docs []domain.Document) {
	if ing.chat == nil || ing.prompts == nil {
		return
	}

	for i := range docs {
		if docs[i].Title != "" {
			continue
		}
		title, err := ing.generateTitle(ctx, docs[i].Content)
		if err != nil {
			logger.Debug("title generation for %s failed: %v", docs[i].Source, err)
			docs[i].Title = docs[i].Source
			continue
		}
		docs[i].Title = title
	}
}

func (ing *Ingestor) generateTitle(ctx context.Context, content string) (string, error) {
	template, err := ing.prompts.Load(driven.PromptTitle)
	if err != nil {
		return "", err
	}

	sample := content
	if len(sample) > titleSampleLen {
		sample = sample[:titleSampleLen]
	}

	title, err := ing.chat.Chat(ctx, []domain.ChatMessage{
		{Role: domain.RoleUser, Content: fmt.Sprintf(template, sample)},
	}, driven.ChatOptions{MaxTokens: 40, Temperature: 0.2})
	if err != nil {
		return "", err
	}

	title = strings.TrimSpace(strings.Trim(strings.TrimSpace(title), `"`))
	if title == "" {
		return "", errors.New("empty title")
	}
	return title, nil
}

// persist writes all database files, removing the directory again if
// any write fails.
func (ing *Ingestor) persist(id string, index driven.VectorIndex, mapping map[string][]string, records map[string]domain.Chunk) error {
	start := time.Now()

	if err := ing.store.SaveIndex(id, index); err != nil {
		ing.cleanup(id)
		return fmt.Errorf("saving index: %w", err)
	}
	if err := ing.store.SaveMapping(id, mapping); err != nil {
		ing.cleanup(id)
		return fmt.Errorf("saving mapping: %w", err)
	}
	if err := ing.store.SaveChunks(id, records); err != nil {
		ing.cleanup(id)
		return fmt.Errorf("saving chunks: %w", err)
	}

	logger.Debug("persisted database %s in %s", id, time.Since(start))
	return nil
}

func (ing *Ingestor) cleanup(id string) {
	if err := ing.store.Delete(id); err != nil {
		logger.Warn("cleanup of database directory %s failed: %v", id, err)
	}
}

func (ing *Ingestor) reportFile(result driving.FileResult) {
	if ing.onFile != nil {
		ing.onFile(result)
	}
}
