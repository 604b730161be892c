// Package mcp serves stored prop records and the class ancestry graph to
// MCP clients over stdio.
package mcp

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/propscan/internal/storage"
	"github.com/mvp-joe/propscan/internal/watcher"
)

const (
	serverName    = "propscan-mcp"
	serverVersion = "1.0.0"
)

// Options configures optional live updates. When Files and Rescanner are both
// set, changed files are rescanned while serving and the graph is rebuilt
// after every rescan.
type Options struct {
	Files     watcher.FileWatcher
	Rescanner watcher.Rescanner
}

// MCPServer manages the MCP server lifecycle.
type MCPServer struct {
	provider    *GraphProvider
	coordinator *watcher.WatchCoordinator
	mcp         *server.MCPServer
}

// NewMCPServer creates an MCP server reading from db, which must have the
// record schema.
func NewMCPServer(db *sql.DB, opts Options) (*MCPServer, error) {
	reader := storage.NewRecordReader(db)

	provider, err := NewGraphProvider(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create graph provider: %w", err)
	}

	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
	)

	AddPropscanClassTool(mcpServer, reader)
	AddPropscanClassesTool(mcpServer, reader)
	AddPropscanAncestryTool(mcpServer, provider)
	AddPropscanStatusTool(mcpServer, reader, provider, opts.Files != nil && opts.Rescanner != nil)

	s := &MCPServer{
		provider: provider,
		mcp:      mcpServer,
	}

	if opts.Files != nil && opts.Rescanner != nil {
		s.coordinator = watcher.NewWatchCoordinator(opts.Files, opts.Rescanner, func(*watcher.RescanStats) {
			if err := provider.Reload(); err != nil {
				log.Printf("Warning: failed to reload ancestry graph: %v", err)
			}
		})
	}

	return s, nil
}

// Serve starts the MCP server and blocks until shutdown.
func (s *MCPServer) Serve(ctx context.Context) error {
	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.coordinator != nil {
		go func() {
			if err := s.coordinator.Start(ctx); err != nil && ctx.Err() == nil {
				log.Printf("Warning: file watching stopped: %v", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting MCP server on stdio...")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	select {
	case <-sigCh:
		log.Printf("Received shutdown signal, stopping gracefully...")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Provider returns the graph provider backing the ancestry tool.
func (s *MCPServer) Provider() *GraphProvider {
	return s.provider
}
