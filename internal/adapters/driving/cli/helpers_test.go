package cli

import (
	"context"

	"github.com/doclens-ai/doclens-cli/internal/core/domain"
	"github.com/doclens-ai/doclens-cli/internal/core/ports/driving"
)

// stubIngest is a canned IngestService for command tests.
type stubIngest struct {
	infos   []domain.DatabaseInfo
	created []string
	deleted []string
	failAdd map[string]error
}

func (s *stubIngest) CreateDatabase(_ context.Context, name, _ string, paths []string) (string, error) {
	s.created = append(s.created, name)
	return "db-" + name, nil
}

func (s *stubIngest) AddDocuments(_ context.Context, _ string, paths []string) (*driving.AddReport, error) {
	report := &driving.AddReport{}
	for _, p := range paths {
		err := s.failAdd[p]
		report.Files = append(report.Files, driving.FileResult{Path: p, Chunks: 1, Err: err})
		if err == nil {
			report.Success = true
		}
	}
	return report, nil
}

func (s *stubIngest) DeleteDocument(_ context.Context, _, docName string) error {
	s.deleted = append(s.deleted, docName)
	return nil
}

func (s *stubIngest) DeleteDatabase(_ context.Context, name string) error {
	s.deleted = append(s.deleted, name)
	return nil
}

func (s *stubIngest) ListDatabases(context.Context) ([]domain.DatabaseInfo, error) {
	return s.infos, nil
}

// stubQuery answers every turn with a fixed streamed answer.
type stubQuery struct {
	answer  string
	sources []domain.FusedResult
	err     error
}

func (s *stubQuery) Answer(_ context.Context, _ driving.AnswerRequest, onToken func(string)) (*driving.AnswerResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	if onToken != nil {
		onToken(s.answer)
	}
	return &driving.AnswerResult{Answer: s.answer, Sources: s.sources, Searched: len(s.sources) > 0}, nil
}

// setupTestServices injects stub services and returns a cleanup that
// restores the previous wiring.
func setupTestServices() (ingest *stubIngest, query *stubQuery, cleanup func()) {
	prevIngest, prevQuery := ingestService, queryPipeline
	prevSettings, prevSupported := chatSettings, supportedFile

	ingest = &stubIngest{
		infos: []domain.DatabaseInfo{
			{ID: "db-1", Name: "notes", Description: "personal notes"},
		},
	}
	query = &stubQuery{
		answer: "The answer.",
		sources: []domain.FusedResult{
			{Content: "cited content", Metadata: domain.ChunkMetadata{Title: "Doc One"}, CombinedScore: 1.2, Count: 2},
		},
	}
	SetServices(Services{
		Ingest:        ingest,
		Query:         query,
		ChatSettings:  domain.ChatSettings{MaxHistoryLength: 20, SearchResultsLimit: 5},
		SupportedFile: func(string) bool { return true },
	})

	return ingest, query, func() {
		ingestService, queryPipeline = prevIngest, prevQuery
		chatSettings, supportedFile = prevSettings, prevSupported
	}
}
