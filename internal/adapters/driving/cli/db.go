package cli

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/doclens-ai/doclens-cli/internal/core/ports/driving"
	"github.com/doclens-ai/doclens-cli/internal/logger"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage embedding databases",
	Long:  `Create, extend, shrink, list, or delete embedding databases.`,
}

var dbCreateCmd = &cobra.Command{
	Use:   "create [name] [files...]",
	Short: "Create a database from documents",
	Long: `Creates a new embedding database from the given files.
Creation is all-or-nothing: if any file fails, nothing is kept.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runDBCreate,
}

var dbAddCmd = &cobra.Command{
	Use:   "add [name] [files...]",
	Short: "Add documents to a database",
	Long: `Adds files to an existing database. Files that fail are reported
and skipped; the remaining files are still added.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runDBAdd,
}

var dbRemoveDocCmd = &cobra.Command{
	Use:   "remove-doc [name] [document]",
	Short: "Remove one document from a database",
	Args:  cobra.ExactArgs(2),
	RunE:  runDBRemoveDoc,
}

var dbDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a database",
	Args:  cobra.ExactArgs(1),
	RunE:  runDBDelete,
}

var dbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List databases",
	RunE:  runDBList,
}

// dbDescription is a flag for the create command.
var dbDescription string

func init() {
	dbCreateCmd.Flags().StringVarP(&dbDescription, "description", "d", "", "what the database is about")

	dbCmd.AddCommand(dbCreateCmd)
	dbCmd.AddCommand(dbAddCmd)
	dbCmd.AddCommand(dbRemoveDocCmd)
	dbCmd.AddCommand(dbDeleteCmd)
	dbCmd.AddCommand(dbListCmd)
	rootCmd.AddCommand(dbCmd)
}

// The active ingestion progress bar, advanced by ReportFile.
var (
	progressMu  sync.Mutex
	progressBar *progressbar.ProgressBar
)

// ReportFile advances the active progress bar. The composition root
// registers it as the ingestor's per-file callback.
func ReportFile(result driving.FileResult) {
	progressMu.Lock()
	defer progressMu.Unlock()
	if progressBar != nil {
		_ = progressBar.Add(1)
	}
	if result.Err != nil {
		logger.Debug("file %s failed: %v", result.Path, result.Err)
	}
}

func startProgress(total int, label string) {
	progressMu.Lock()
	defer progressMu.Unlock()
	progressBar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionShowCount(),
	)
}

func stopProgress() {
	progressMu.Lock()
	defer progressMu.Unlock()
	if progressBar != nil {
		_ = progressBar.Finish()
		progressBar = nil
	}
}

func runDBCreate(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	name, paths := args[0], args[1:]

	startProgress(len(paths), "embedding documents")
	id, err := ingestService.CreateDatabase(cmd.Context(), name, dbDescription, paths)
	stopProgress()
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	cmd.Printf("Created database %s (%s) from %d files.\n", color.CyanString(name), id, len(paths))
	return nil
}

func runDBAdd(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	name, paths := args[0], args[1:]

	startProgress(len(paths), "embedding documents")
	report, err := ingestService.AddDocuments(cmd.Context(), name, paths)
	stopProgress()
	if err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}

	for _, f := range report.FailedFiles() {
		cmd.Println(color.YellowString("  skipped %s: %v", f.Path, f.Err))
	}
	added := len(report.Files) - len(report.FailedFiles())
	cmd.Printf("Added %d of %d files to %s.\n", added, len(report.Files), color.CyanString(name))
	return nil
}

func runDBRemoveDoc(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	name, docName := args[0], args[1]
	if err := ingestService.DeleteDocument(cmd.Context(), name, docName); err != nil {
		return fmt.Errorf("failed to remove document: %w", err)
	}

	cmd.Printf("Removed %s from %s.\n", docName, color.CyanString(name))
	return nil
}

func runDBDelete(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	name := args[0]
	if err := ingestService.DeleteDatabase(cmd.Context(), name); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}

	cmd.Printf("Deleted database %s.\n", name)
	return nil
}

func runDBList(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	infos, err := ingestService.ListDatabases(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list databases: %w", err)
	}

	if len(infos) == 0 {
		cmd.Println("No databases yet. Create one with: doclens db create")
		return nil
	}

	cmd.Println("Databases:")
	cmd.Println()
	for _, info := range infos {
		cmd.Printf("  %s (%s)\n", color.CyanString(info.Name), info.ID)
		if info.Description != "" {
			cmd.Printf("      %s\n", info.Description)
		}
	}
	cmd.Println()
	cmd.Printf("Total: %d\n", len(infos))
	return nil
}
