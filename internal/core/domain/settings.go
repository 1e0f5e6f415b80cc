package domain

import "strings"

// AIProvider identifies a chat or embedding provider vendor.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API, or any OpenAI-compatible
	// endpoint (Azure OpenAI, LM Studio) via a custom base URL.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// EmbeddingSettings configures the embedding provider.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string
}

// IsConfigured returns true if a provider has been selected.
func (s *EmbeddingSettings) IsConfigured() bool {
	return s != nil && s.Provider != ""
}

// ChatProviderSettings configures the chat-completion provider.
type ChatProviderSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string
}

// IsConfigured returns true if a provider has been selected.
func (s *ChatProviderSettings) IsConfigured() bool {
	return s != nil && s.Provider != ""
}

// Placeholders recognised in the chat system message template.
const (
	PlaceholderDocuments = "{{DOCUMENTS}}"
	PlaceholderTopic     = "{{TOPIC}}"
)

// ChatSettings are the per-chat options supplied by the UI layer.
type ChatSettings struct {
	// SystemMessage is a template; PlaceholderDocuments is replaced with
	// the fused retrieval context and PlaceholderTopic with the database
	// description.
	SystemMessage string

	// Temperature is passed through to the chat provider.
	Temperature float64

	// MaxTokens limits the generated answer length.
	MaxTokens int

	// MaxHistoryLength limits how many history messages are sent.
	MaxHistoryLength int

	// SearchResultsLimit is k, the number of fused results to retrieve.
	SearchResultsLimit int
}

// RenderSystemMessage fills the template placeholders.
func (s *ChatSettings) RenderSystemMessage(documents, topic string) string {
	msg := strings.ReplaceAll(s.SystemMessage, PlaceholderDocuments, documents)
	return strings.ReplaceAll(msg, PlaceholderTopic, topic)
}

// Default chunking parameters.
const (
	DefaultChunkSize      = 512
	DefaultOverlapPercent = 25
)

// ChunkingSettings configure the token-bounded splitter.
type ChunkingSettings struct {
	// ChunkSize is the chunk budget in model tokens.
	ChunkSize int

	// OverlapPercent determines the overlap between consecutive chunks:
	// overlap = floor(ChunkSize * OverlapPercent / 100) tokens.
	OverlapPercent int
}

// Normalised returns the settings with zero values replaced by defaults.
func (s ChunkingSettings) Normalised() ChunkingSettings {
	if s.ChunkSize <= 0 {
		s.ChunkSize = DefaultChunkSize
	}
	if s.OverlapPercent < 0 || s.OverlapPercent >= 100 {
		s.OverlapPercent = DefaultOverlapPercent
	}
	return s
}
