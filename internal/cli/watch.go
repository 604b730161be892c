package cli

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/propscan/internal/scanner"
	"github.com/mvp-joe/propscan/internal/storage"
	"github.com/mvp-joe/propscan/internal/watcher"
)

var (
	watchDB    string
	watchQuiet bool
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Keep the record store current while files change",
	Long: `Scan dir (default: current directory) into the record store, then watch it
for changes. Changed Ruby files are rescanned and their records replaced.
Deleted files are removed from the store. Runs until interrupted.

Example:
  propscan watch`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchDB, "db", "", "record store path (default from config)")
	watchCmd.Flags().BoolVarP(&watchQuiet, "quiet", "q", false, "suppress progress output")
}

func runWatch(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	log.SetOutput(logOutput(watchQuiet))

	ctx, cancel := signalContext()
	defer cancel()

	db, err := openStore(root, cfg, watchDB)
	if err != nil {
		return err
	}
	defer db.Close()

	discovery, err := newDiscovery(root, cfg)
	if err != nil {
		return err
	}

	sc, err := newScanner(cfg, NewCLIProgressReporter(watchQuiet))
	if err != nil {
		return fmt.Errorf("failed to create scanner: %w", err)
	}
	defer sc.Close()

	result, runID, err := scanIntoStore(ctx, db, sc, discovery, cfg.ScopeMode())
	if err != nil {
		return err
	}
	logFailures(result.Failures)

	files, err := watcher.NewFileWatcher(root, discovery, 0)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	incremental := scanner.NewIncremental(sc, storage.NewRecordWriter(db), runID)
	coordinator := watcher.NewWatchCoordinator(files, incremental, func(stats *watcher.RescanStats) {
		log.Printf("Rescanned %d files (%d removed, %d failed, %d classes)",
			stats.FilesScanned, stats.FilesRemoved, stats.Failures, stats.Classes)
	})

	log.Printf("Watching %s for changes (Ctrl+C to stop)...", root)
	if err := coordinator.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("file watching failed: %w", err)
	}
	return nil
}
