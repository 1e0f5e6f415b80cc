package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/doclens-ai/doclens-cli/internal/core/domain"
	"github.com/doclens-ai/doclens-cli/internal/core/ports/driving"
)

var (
	askDatabase string
	askSources  bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your documents",
	Long: `Answers a question with retrieval-augmented generation. The pipeline
decides per question whether a document search is needed; with --db it
searches the named database, without it the model answers directly.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askDatabase, "db", "", "database to search")
	askCmd.Flags().BoolVar(&askSources, "sources", false, "print the cited sources after the answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if queryPipeline == nil {
		return errors.New("query pipeline not configured")
	}

	req := driving.AnswerRequest{
		Database: askDatabase,
		History: []domain.ChatMessage{
			{Role: domain.RoleUser, Content: args[0]},
		},
		Settings: chatSettings,
	}

	result, err := queryPipeline.Answer(cmd.Context(), req, func(token string) {
		cmd.Print(token)
	})
	if err != nil {
		if errors.Is(err, domain.ErrCancelled) {
			cmd.Println()
			return nil
		}
		return fmt.Errorf("failed to answer: %w", err)
	}
	cmd.Println()

	if askSources && len(result.Sources) > 0 {
		printSources(cmd, result.Sources)
	}
	return nil
}

func printSources(cmd *cobra.Command, sources []domain.FusedResult) {
	cmd.Println()
	cmd.Println(color.New(color.Bold).Sprint("Sources:"))
	for i, src := range sources {
		title := src.Metadata.Title
		if title == "" {
			title = src.Metadata.Source
		}
		cmd.Printf("  [%d] %s (score %.2f, matched by %d queries)\n",
			i+1, color.CyanString(title), src.CombinedScore, src.Count)
		cmd.Printf("      %s\n", snippet(src.Content, 120))
	}
}

// snippet returns the first line of content, truncated to max runes.
func snippet(content string, max int) string {
	line := content
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	runes := []rune(line)
	if len(runes) > max {
		return string(runes[:max]) + "…"
	}
	return line
}
