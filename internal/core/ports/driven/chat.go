package driven

import (
	"context"

	"github.com/doclens-ai/doclens-cli/internal/core/domain"
)

// ChatProvider is a vendor-agnostic streaming chat-completion capability.
//
// Implementations may include:
//   - OpenAI and OpenAI-compatible endpoints (Azure, LM Studio)
//   - Anthropic (Claude)
//   - Ollama (local models)
type ChatProvider interface {
	// Chat conducts a non-streaming conversation and returns the full
	// completion. Used by the structured pipeline stages (analysis,
	// classification, transformation, JSON repair, title generation).
	Chat(ctx context.Context, messages []domain.ChatMessage, opts ChatOptions) (string, error)

	// ChatStream starts a streaming completion. Events are delivered on
	// the returned channel: zero or more token events, then exactly one
	// terminal event (done, error, or cancelled). The channel is closed
	// after the terminal event. Cancelling ctx stops upstream
	// consumption promptly and yields a terminal event whose Err wraps
	// context.Canceled.
	ChatStream(ctx context.Context, messages []domain.ChatMessage, opts ChatOptions) (<-chan StreamEvent, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the provider is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatOptions configures a completion request.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}

// StreamEventKind discriminates stream events.
type StreamEventKind int

// Stream event kinds.
const (
	// StreamToken carries an incremental text fragment.
	StreamToken StreamEventKind = iota

	// StreamDone signals normal completion.
	StreamDone

	// StreamError signals a provider failure or cancellation; Err is set.
	StreamError
)

// StreamEvent is one event on a chat completion stream.
type StreamEvent struct {
	Kind  StreamEventKind
	Token string
	Err   error
}
