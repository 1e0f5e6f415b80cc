// Package ai provides factory functions for creating AI provider adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	anthropicchat "github.com/doclens-ai/doclens-cli/internal/adapters/driven/chat/anthropic"
	ollamachat "github.com/doclens-ai/doclens-cli/internal/adapters/driven/chat/ollama"
	openaichat "github.com/doclens-ai/doclens-cli/internal/adapters/driven/chat/openai"
	ollamaembed "github.com/doclens-ai/doclens-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/doclens-ai/doclens-cli/internal/adapters/driven/embedding/openai"
	"github.com/doclens-ai/doclens-cli/internal/core/domain"
	"github.com/doclens-ai/doclens-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for provider connectivity validation.
const pingTimeout = 5 * time.Second

// CreateEmbeddingProvider creates the appropriate embedding provider
// based on settings. Returns nil if no provider is configured.
func CreateEmbeddingProvider(settings *domain.EmbeddingSettings) (driven.EmbeddingProvider, error) {
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.New(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.New(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		// Anthropic does not offer an embeddings API.
		return nil, fmt.Errorf("%w: anthropic does not support embeddings, use ollama or openai",
			domain.ErrProviderUnsupported)

	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrProviderUnsupported, settings.Provider)
	}
}

// CreateChatProvider creates the appropriate chat provider based on
// settings. Returns nil if no provider is configured.
func CreateChatProvider(settings *domain.ChatProviderSettings) (driven.ChatProvider, error) {
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamachat.New(ollamachat.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaichat.New(openaichat.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicchat.New(anthropicchat.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("%w: chat provider %q", domain.ErrProviderUnsupported, settings.Provider)
	}
}

// CreateAndValidateEmbeddingProvider creates an embedding provider and
// validates connectivity. Returns an error wrapping
// domain.ErrEmbeddingUnavailable if the provider cannot be reached.
func CreateAndValidateEmbeddingProvider(settings *domain.EmbeddingSettings) (driven.EmbeddingProvider, error) {
	provider, err := CreateEmbeddingProvider(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if provider == nil {
		return nil, fmt.Errorf("%w: no embedding provider configured", domain.ErrEmbeddingUnavailable)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := provider.Ping(ctx); err != nil {
		provider.Close()
		return nil, fmt.Errorf("%w: provider unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}
	return provider, nil
}

// CreateAndValidateChatProvider creates a chat provider and validates
// connectivity. Returns an error wrapping domain.ErrChatUnavailable if
// the provider cannot be reached.
func CreateAndValidateChatProvider(settings *domain.ChatProviderSettings) (driven.ChatProvider, error) {
	provider, err := CreateChatProvider(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrChatUnavailable, err)
	}
	if provider == nil {
		return nil, fmt.Errorf("%w: no chat provider configured", domain.ErrChatUnavailable)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := provider.Ping(ctx); err != nil {
		provider.Close()
		return nil, fmt.Errorf("%w: provider unreachable (%w)", domain.ErrChatUnavailable, err)
	}
	return provider, nil
}
