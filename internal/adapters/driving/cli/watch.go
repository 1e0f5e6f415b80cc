package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/doclens-ai/doclens-cli/internal/logger"
)

var watchDatabase string

// watchDebounce collapses the bursts of write events editors produce
// into one reindex per file.
const watchDebounce = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Keep a database in sync with a directory",
	Long: `Watches a directory and maintains the database incrementally:
new or changed files are reindexed, removed files are deleted from the
database. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchDatabase, "db", "", "database to maintain (required)")
	_ = watchCmd.MarkFlagRequired("db")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	dir := args[0]
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	cmd.Printf("Watching %s for database %s. Ctrl-C to stop.\n", dir, watchDatabase)

	ctx := cmd.Context()
	var (
		mu      sync.Mutex
		pending = make(map[string]*time.Timer)
	)

	reindexLater := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := pending[path]; ok {
			t.Stop()
		}
		pending[path] = time.AfterFunc(watchDebounce, func() {
			mu.Lock()
			delete(pending, path)
			mu.Unlock()
			reindex(ctx, path)
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			switch {
			case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
				if supportedFile == nil || supportedFile(event.Name) {
					reindexLater(event.Name)
				}
			case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
				docName := filepath.Base(event.Name)
				if err := ingestService.DeleteDocument(ctx, watchDatabase, docName); err != nil {
					logger.Warn("watch: deleting %s failed: %v", docName, err)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: %v", err)
		}
	}
}

// reindex replaces one document: any stale chunks go first, then the
// file is re-added.
func reindex(ctx context.Context, path string) {
	docName := filepath.Base(path)
	if err := ingestService.DeleteDocument(ctx, watchDatabase, docName); err != nil {
		logger.Warn("watch: removing stale %s failed: %v", docName, err)
		return
	}
	report, err := ingestService.AddDocuments(ctx, watchDatabase, []string{path})
	if err != nil {
		logger.Warn("watch: reindexing %s failed: %v", path, err)
		return
	}
	for _, f := range report.FailedFiles() {
		logger.Warn("watch: reindexing %s failed: %v", f.Path, f.Err)
	}
	if report.Success {
		logger.Info("reindexed %s", docName)
	}
}
