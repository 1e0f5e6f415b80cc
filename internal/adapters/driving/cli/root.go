// Package cli is the cobra command surface of doclens. Commands are
// package-level and wired in init; the composition root injects the
// services before Execute runs.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/doclens-ai/doclens-cli/internal/core/domain"
	"github.com/doclens-ai/doclens-cli/internal/core/ports/driving"
	"github.com/doclens-ai/doclens-cli/internal/logger"
)

// version is overridden at build time via -ldflags.
var version = "dev"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "doclens",
	Short: "Chat with your documents",
	Long: `Doclens builds local embedding databases from your documents and
answers questions about them with retrieval-augmented generation.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

// Services injected by the composition root.
var (
	ingestService driving.IngestService
	queryPipeline driving.QueryPipeline
	chatSettings  domain.ChatSettings

	// supportedFile reports whether a path's extension has an extractor;
	// the watch command uses it to ignore editor droppings.
	supportedFile func(path string) bool
)

// Services bundles everything the commands need.
type Services struct {
	Ingest        driving.IngestService
	Query         driving.QueryPipeline
	ChatSettings  domain.ChatSettings
	SupportedFile func(path string) bool
}

// SetServices injects the service implementations.
func SetServices(s Services) {
	ingestService = s.Ingest
	queryPipeline = s.Query
	chatSettings = s.ChatSettings
	supportedFile = s.SupportedFile
}

// SetVersion sets the version string printed by the version command.
func SetVersion(v string) {
	version = v
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command. Cancelling ctx aborts the running
// command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
