package driving

import (
	"context"

	"github.com/doclens-ai/doclens-cli/internal/core/domain"
)

// QueryPipeline answers one conversational turn with retrieval-augmented
// generation: analyse → classify sufficiency → transform → multi-query
// search → fuse → stream answer.
type QueryPipeline interface {
	// Answer runs the pipeline for the given turn. onToken is called
	// for every incremental answer fragment as it arrives; the returned
	// result carries the complete transcript and the citation payload.
	// Cancelling ctx aborts the turn with an error wrapping
	// domain.ErrCancelled and stops onToken emissions promptly.
	Answer(ctx context.Context, req AnswerRequest, onToken func(token string)) (*AnswerResult, error)
}

// AnswerRequest is one user turn plus its per-chat settings.
type AnswerRequest struct {
	// Database is the name of the database to search. Empty disables
	// retrieval (the turn is answered from history alone).
	Database string

	// History is the chat history, oldest first, ending with the user's
	// question. May contain "doc" citation messages; those are filtered
	// before any provider call.
	History []domain.ChatMessage

	// Settings are the per-chat options from the UI layer.
	Settings domain.ChatSettings
}

// AnswerResult is the outcome of one answered turn.
type AnswerResult struct {
	// Answer is the complete assistant transcript.
	Answer string

	// Searched is true when the sufficiency gate allowed retrieval and
	// a search was executed.
	Searched bool

	// Reason is the classifier's stated reason for its decision.
	Reason string

	// Sources is the citation payload: the fused results that grounded
	// the answer. Empty when Searched is false.
	Sources []domain.FusedResult
}
