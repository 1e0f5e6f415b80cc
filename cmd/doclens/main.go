// Command doclens builds local embedding databases from documents and
// answers questions about them with retrieval-augmented generation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/doclens-ai/doclens-cli/internal/adapters/driven/ai"
	configfile "github.com/doclens-ai/doclens-cli/internal/adapters/driven/config/file"
	storefile "github.com/doclens-ai/doclens-cli/internal/adapters/driven/store/file"
	"github.com/doclens-ai/doclens-cli/internal/adapters/driving/cli"
	"github.com/doclens-ai/doclens-cli/internal/chunker"
	"github.com/doclens-ai/doclens-cli/internal/core/services"
	"github.com/doclens-ai/doclens-cli/internal/extractors"
	"github.com/doclens-ai/doclens-cli/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configStore, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	prompts, err := configfile.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("loading prompts: %w", err)
	}

	store, err := storefile.New(configStore.DataDir())
	if err != nil {
		return fmt.Errorf("opening database store: %w", err)
	}
	catalog := services.NewCatalog(store)

	embedder, err := ai.CreateEmbeddingProvider(configStore.EmbeddingSettings())
	if err != nil {
		return fmt.Errorf("configuring embedding provider: %w", err)
	}
	chat, err := ai.CreateChatProvider(configStore.ChatProviderSettings())
	if err != nil {
		return fmt.Errorf("configuring chat provider: %w", err)
	}

	splitter, err := chunker.New()
	if err != nil {
		return fmt.Errorf("initialising tokenizer: %w", err)
	}

	registry := extractors.Default()

	wiring := cli.Services{
		ChatSettings:  configStore.ChatSettings(),
		SupportedFile: registry.Supported,
	}

	// Commands degrade to "not configured" errors for the providers the
	// config file leaves unset.
	if embedder != nil {
		opts := []services.IngestorOption{services.WithFileProgress(cli.ReportFile)}
		if chat != nil {
			opts = append(opts, services.WithTitleGeneration(chat, prompts))
		}
		wiring.Ingest = services.NewIngestor(
			store, catalog, registry, embedder, splitter,
			configStore.ChunkingSettings(), opts...,
		)
	}
	if chat != nil {
		keywords, err := services.NewKeywordExtractor()
		if err != nil {
			logger.Warn("keyword extractor unavailable, ranking on similarity alone: %v", err)
			keywords = nil
		}
		wiring.Query = services.NewPipeline(catalog, chat, embedder, prompts, keywords)
	}

	cli.SetVersion(version)
	cli.SetServices(wiring)

	return cli.Execute(ctx)
}
