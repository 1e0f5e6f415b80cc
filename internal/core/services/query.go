package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/doclens-ai/doclens-cli/internal/core/domain"
	"github.com/doclens-ai/doclens-cli/internal/core/ports/driven"
	"github.com/doclens-ai/doclens-cli/internal/core/ports/driving"
	"github.com/doclens-ai/doclens-cli/internal/llmjson"
	"github.com/doclens-ai/doclens-cli/internal/logger"
)

// Ensure Pipeline implements the interface.
var _ driving.QueryPipeline = (*Pipeline)(nil)

// maxTransformedQueries caps the paraphrases taken from the
// transformer; anything beyond is ignored.
const maxTransformedQueries = 4

// stageOptions are the completion options for the structured pipeline
// stages (analysis, classification, transformation). Low temperature:
// these outputs are parsed, not read.
var stageOptions = driven.ChatOptions{MaxTokens: 768, Temperature: 0.2}

// Pipeline answers one conversational turn with retrieval-augmented
// generation.
type Pipeline struct {
	catalog  *Catalog
	chat     driven.ChatProvider
	embedder driven.EmbeddingProvider
	prompts  driven.PromptStore
	decoder  *llmjson.Decoder
	keywords *KeywordExtractor
}

// NewPipeline creates a query pipeline. keywords may be nil, in which
// case fusion ranks on standardised scores alone.
func NewPipeline(
	catalog *Catalog,
	chat driven.ChatProvider,
	embedder driven.EmbeddingProvider,
	prompts driven.PromptStore,
	keywords *KeywordExtractor,
) *Pipeline {
	return &Pipeline{
		catalog:  catalog,
		chat:     chat,
		embedder: embedder,
		prompts:  prompts,
		decoder:  llmjson.NewDecoder(chat, prompts),
		keywords: keywords,
	}
}

// Answer runs analyse → classify → transform → search → fuse → stream
// for one turn. Stages are strictly sequential; only the per-query
// searches inside the search stage fan out.
func (p *Pipeline) Answer(ctx context.Context, req driving.AnswerRequest, onToken func(token string)) (*driving.AnswerResult, error) {
	history := domain.TruncateHistory(domain.FilterForProvider(req.History), req.Settings.MaxHistoryLength)
	question := domain.LastUserMessage(history)
	if question == "" {
		return nil, fmt.Errorf("%w: no user message in history", domain.ErrInvalidInput)
	}

	result := &driving.AnswerResult{}
	topic := req.Database

	if req.Database != "" {
		entry, err := p.catalog.GetOrLoad(req.Database)
		if err != nil {
			return nil, err
		}
		info := entry.Info()
		if info.Description != "" {
			topic = info.Description
		}

		logger.Section("query analysis")
		analysis, err := p.analyse(ctx, history)
		if err != nil {
			return nil, p.wrapCancelled(ctx, err)
		}

		decision, err := p.classify(ctx, analysis, info)
		if err != nil {
			return nil, p.wrapCancelled(ctx, err)
		}
		result.Reason = decision.Reason

		if decision.DocumentSearch {
			queries, err := p.transform(ctx, analysis, question)
			if err != nil {
				return nil, p.wrapCancelled(ctx, err)
			}

			logger.Section("multi-query search")
			perQuery, err := p.searchAll(ctx, entry, queries, req.Settings.SearchResultsLimit)
			if err != nil {
				return nil, p.wrapCancelled(ctx, err)
			}

			var keywords []string
			if p.keywords != nil {
				keywords = p.keywords.Extract(promptTexts(queries))
			}
			result.Sources = FuseResults(perQuery, keywords, req.Settings.SearchResultsLimit)
			result.Searched = true
			logger.Info("fused %d result sets into %d sources", len(perQuery), len(result.Sources))
		} else {
			logger.Info("search skipped: %s", decision.Reason)
		}
	}

	answer, err := p.streamAnswer(ctx, history, result.Sources, topic, req.Settings, onToken)
	if err != nil {
		return nil, p.wrapCancelled(ctx, err)
	}
	result.Answer = answer
	return result, nil
}

// analyse produces the free-prose analysis of the conversation that the
// classifier and transformer consume.
func (p *Pipeline) analyse(ctx context.Context, history []domain.ChatMessage) (string, error) {
	template, err := p.prompts.Load(driven.PromptAnalysis)
	if err != nil {
		return "", err
	}
	analysis, err := p.chat.Chat(ctx, []domain.ChatMessage{
		{Role: domain.RoleUser, Content: fmt.Sprintf(template, renderHistory(history))},
	}, stageOptions)
	if err != nil {
		return "", fmt.Errorf("query analysis: %w", err)
	}
	return strings.TrimSpace(analysis), nil
}

// classify decides whether a document search is warranted. A provider
// failure propagates; a response that survives no step of the repair
// ladder degrades to the zero decision (no search).
func (p *Pipeline) classify(ctx context.Context, analysis string, info domain.DatabaseInfo) (domain.SufficiencyDecision, error) {
	var decision domain.SufficiencyDecision

	template, err := p.prompts.Load(driven.PromptSufficiency)
	if err != nil {
		return decision, err
	}

	collection := info.Name
	if info.Description != "" {
		collection = fmt.Sprintf("%s (%s)", info.Name, info.Description)
	}

	raw, err := p.chat.Chat(ctx, []domain.ChatMessage{
		{Role: domain.RoleUser, Content: fmt.Sprintf(template, collection, analysis)},
	}, stageOptions)
	if err != nil {
		return decision, fmt.Errorf("sufficiency classification: %w", err)
	}

	if !p.decoder.Decode(ctx, raw, &decision) {
		decision.Reason = "classifier response was unparseable"
	}
	return decision, nil
}

// transform expands the question into 1–4 retrieval paraphrases. A
// provider failure propagates; when the repair ladder gives up, the
// original question is used as the single query so the search still
// runs.
func (p *Pipeline) transform(ctx context.Context, analysis, question string) ([]domain.TransformedQuery, error) {
	fallback := []domain.TransformedQuery{{Perspective: "original", Prompt: question}}

	template, err := p.prompts.Load(driven.PromptTransform)
	if err != nil {
		return nil, err
	}

	raw, err := p.chat.Chat(ctx, []domain.ChatMessage{
		{Role: domain.RoleUser, Content: fmt.Sprintf(template, analysis, question)},
	}, stageOptions)
	if err != nil {
		return nil, fmt.Errorf("query transformation: %w", err)
	}

	var queries []domain.TransformedQuery
	if !p.decoder.Decode(ctx, raw, &queries) || len(queries) == 0 {
		return fallback, nil
	}
	if len(queries) > maxTransformedQueries {
		queries = queries[:maxTransformedQueries]
	}
	for _, q := range queries {
		logger.Debug("perspective %q: %s", q.Perspective, q.Prompt)
	}
	return queries, nil
}

// searchAll runs one nearest-neighbour search per transformed query,
// concurrently, each widened by the fusion margin.
func (p *Pipeline) searchAll(ctx context.Context, entry *Entry, queries []domain.TransformedQuery, k int) ([][]domain.SearchResult, error) {
	if p.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	perQuery := make([][]domain.SearchResult, len(queries))
	errs := make([]error, len(queries))

	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q domain.TransformedQuery) {
			defer wg.Done()

			vector, err := p.embedder.Embed(ctx, q.Prompt)
			if err != nil {
				errs[i] = fmt.Errorf("embedding query %q: %w", q.Perspective, err)
				return
			}
			results, err := entry.Search(ctx, vector, k+searchMargin)
			if err != nil {
				errs[i] = fmt.Errorf("searching query %q: %w", q.Perspective, err)
				return
			}
			perQuery[i] = results
		}(i, q)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return perQuery, nil
}

// streamAnswer renders the system message and streams the completion,
// forwarding each token to onToken.
func (p *Pipeline) streamAnswer(
	ctx context.Context,
	history []domain.ChatMessage,
	sources []domain.FusedResult,
	topic string,
	settings domain.ChatSettings,
	onToken func(token string),
) (string, error) {
	messages := make([]domain.ChatMessage, 0, len(history)+1)
	messages = append(messages, domain.ChatMessage{
		Role:    domain.RoleSystem,
		Content: settings.RenderSystemMessage(renderSources(sources), topic),
	})
	messages = append(messages, history...)

	events, err := p.chat.ChatStream(ctx, messages, driven.ChatOptions{
		MaxTokens:   settings.MaxTokens,
		Temperature: settings.Temperature,
	})
	if err != nil {
		return "", err
	}

	var answer strings.Builder
	for ev := range events {
		switch ev.Kind {
		case driven.StreamToken:
			if ctx.Err() != nil {
				continue // drain without emitting after cancellation
			}
			answer.WriteString(ev.Token)
			if onToken != nil {
				onToken(ev.Token)
			}
		case driven.StreamError:
			return "", ev.Err
		case driven.StreamDone:
			return answer.String(), nil
		}
	}
	return answer.String(), nil
}

// wrapCancelled maps errors that occur after context cancellation to
// the cancelled outcome, which callers treat differently from failures.
func (p *Pipeline) wrapCancelled(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %v", domain.ErrCancelled, err)
	}
	return err
}

// renderHistory flattens chat history into prompt text.
func renderHistory(history []domain.ChatMessage) string {
	var b strings.Builder
	for _, msg := range history {
		fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
	}
	return strings.TrimSpace(b.String())
}

// renderSources joins fused results into the {{DOCUMENTS}} block.
func renderSources(sources []domain.FusedResult) string {
	if len(sources) == 0 {
		return "(no documents retrieved)"
	}
	var b strings.Builder
	for i, src := range sources {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		if src.Metadata.Title != "" {
			fmt.Fprintf(&b, "[%s]\n", src.Metadata.Title)
		}
		b.WriteString(src.Content)
	}
	return b.String()
}

// promptTexts projects the paraphrase texts for keyword extraction.
func promptTexts(queries []domain.TransformedQuery) []string {
	texts := make([]string, len(queries))
	for i, q := range queries {
		texts[i] = q.Prompt
	}
	return texts
}
