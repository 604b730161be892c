package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/propscan/internal/mcp"
	"github.com/mvp-joe/propscan/internal/scanner"
	"github.com/mvp-joe/propscan/internal/storage"
	"github.com/mvp-joe/propscan/internal/watcher"
)

var (
	mcpDB    string
	mcpWatch bool
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp [dir]",
	Short: "Start the MCP server for prop record queries",
	Long: `Start the Model Context Protocol (MCP) server that lets coding assistants
look up the prop records and class ancestry of a Ruby codebase.

The MCP server:
- Reads file records from the SQLite record store, scanning first if it is empty
- Provides the propscan_class, propscan_classes and propscan_ancestry tools
- Communicates via stdio (standard MCP transport)
- With --watch, rescans the project up front and keeps the store current

Example:
  propscan mcp --watch`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().StringVar(&mcpDB, "db", "", "record store path (default from config)")
	mcpCmd.Flags().BoolVarP(&mcpWatch, "watch", "w", false, "rescan changed files while serving")
}

func runMCP(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	// stdout carries the protocol
	log.SetOutput(os.Stderr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := openStore(root, cfg, mcpDB)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintf(os.Stderr, "propscan MCP Server\n")
	fmt.Fprintf(os.Stderr, "Record store: %s\n\n", dbPath(root, cfg, mcpDB))

	var opts mcp.Options
	if mcpWatch {
		discovery, err := newDiscovery(root, cfg)
		if err != nil {
			return err
		}

		sc, err := newScanner(cfg, NewCLIProgressReporter(true))
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
		opts.Files = files
		opts.Rescanner = scanner.NewIncremental(sc, storage.NewRecordWriter(db), runID)
	} else if err := ensureScanned(ctx, db, root, cfg, NewCLIProgressReporter(true)); err != nil {
		return err
	}

	server, err := mcp.NewMCPServer(db, opts)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	// Serve (blocks until shutdown)
	if err := server.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
