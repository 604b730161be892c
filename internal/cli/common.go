package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mvp-joe/propscan/internal/autogen/dsl"
	"github.com/mvp-joe/propscan/internal/config"
	"github.com/mvp-joe/propscan/internal/scanner"
	"github.com/mvp-joe/propscan/internal/storage"
)

// resolveRoot returns the directory named by the first argument, or the
// current directory. Paths are kept as given so records carry paths relative
// to where the command was run.
func resolveRoot(args []string) (string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("failed to access %s: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", root)
	}
	return root, nil
}

// loadConfig loads the project configuration for root, honoring --config.
func loadConfig(root string) (*config.Config, error) {
	loader := config.NewLoader(root)
	if cfgFile != "" {
		loader = config.NewFileLoader(root, cfgFile)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			log.Println("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

func newScanner(cfg *config.Config, progress scanner.ProgressReporter) (*scanner.Scanner, error) {
	return scanner.New(scanner.Options{
		Workers:   cfg.Scan.Workers,
		CacheSize: cfg.Scan.CacheSize,
		ScopeMode: cfg.ScopeMode(),
		Progress:  progress,
	})
}

func newDiscovery(root string, cfg *config.Config) (*scanner.Discovery, error) {
	discovery, err := scanner.NewDiscovery(root, cfg.Paths.Include, cfg.Paths.Ignore)
	if err != nil {
		return nil, fmt.Errorf("failed to create file discovery: %w", err)
	}
	return discovery, nil
}

// dbPath returns override, or the configured path, resolved against root
// unless absolute.
func dbPath(root string, cfg *config.Config, override string) string {
	path := cfg.Storage.DBPath
	if override != "" {
		path = override
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func openStore(root string, cfg *config.Config, override string) (*sql.DB, error) {
	path := dbPath(root, cfg, override)
	db, err := storage.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open record store %s: %w", path, err)
	}
	return db, nil
}

// scanIntoStore runs a full scan and replaces the stored records with its
// results. Files that were stored before but are no longer discovered are
// removed. It returns the scan result and the run the records belong to.
func scanIntoStore(ctx context.Context, db *sql.DB, sc *scanner.Scanner, discovery *scanner.Discovery, mode dsl.ScopeMode) (*scanner.Result, string, error) {
	writer := storage.NewRecordWriter(db)
	reader := storage.NewRecordReader(db)

	runID, err := writer.BeginRun(discovery.RootDir(), mode)
	if err != nil {
		return nil, "", fmt.Errorf("failed to begin scan run: %w", err)
	}

	result, err := sc.ScanDir(ctx, discovery)
	if err != nil {
		return nil, "", err
	}

	if err := writer.WriteFileRecords(runID, result.Records); err != nil {
		return nil, "", fmt.Errorf("failed to write records: %w", err)
	}

	seen := make(map[string]bool, len(result.Records)+len(result.Failures))
	for _, record := range result.Records {
		seen[record.SourceFile] = true
	}
	for _, failure := range result.Failures {
		seen[failure.Path] = true
	}

	stored, err := reader.ListFiles()
	if err != nil {
		return nil, "", fmt.Errorf("failed to list stored files: %w", err)
	}
	for _, path := range stored {
		if seen[path] {
			continue
		}
		if err := writer.DeleteFile(path); err != nil {
			return nil, "", fmt.Errorf("failed to remove stale file %s: %w", path, err)
		}
	}

	if err := writer.FinishRun(runID, len(result.Records), len(result.Failures)); err != nil {
		return nil, "", fmt.Errorf("failed to finish scan run: %w", err)
	}

	return result, runID, nil
}

// ensureScanned performs a full scan when the store holds no files yet.
func ensureScanned(ctx context.Context, db *sql.DB, root string, cfg *config.Config, progress scanner.ProgressReporter) error {
	files, err := storage.NewRecordReader(db).ListFiles()
	if err != nil {
		return fmt.Errorf("failed to list stored files: %w", err)
	}
	if len(files) > 0 {
		return nil
	}

	discovery, err := newDiscovery(root, cfg)
	if err != nil {
		return err
	}
	sc, err := newScanner(cfg, progress)
	if err != nil {
		return err
	}
	defer sc.Close()

	result, _, err := scanIntoStore(ctx, db, sc, discovery, cfg.ScopeMode())
	if err != nil {
		return err
	}
	logFailures(result.Failures)
	return nil
}

func logFailures(failures []scanner.Failure) {
	for _, failure := range failures {
		log.Printf("Warning: failed to scan %s: %v", failure.Path, failure.Err)
	}
}
