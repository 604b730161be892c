package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/propscan/internal/storage"
)

// StatusSource reports what the record store holds. storage.RecordReader
// implements it.
type StatusSource interface {
	LatestRun() (*storage.ScanRun, error)
	ListFiles() ([]string, error)
}

// StatusResponse is the propscan_status tool result.
type StatusResponse struct {
	LatestRun *storage.ScanRun `json:"latest_run,omitempty"`
	Files     int              `json:"files"`
	Watching  bool             `json:"watching"`
	Graph     MetricsSnapshot  `json:"graph"`
}

// AddPropscanStatusTool registers the propscan_status tool with an MCP server.
func AddPropscanStatusTool(s *server.MCPServer, source StatusSource, provider *GraphProvider, watching bool) {
	tool := mcp.NewTool(
		"propscan_status",
		mcp.WithDescription("Report the state of the prop record store: the latest scan run, the number of stored files, whether changes are being watched, and ancestry graph reload statistics."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createPropscanStatusHandler(source, provider, watching))
}

func createPropscanStatusHandler(source StatusSource, provider *GraphProvider, watching bool) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		run, err := source.LatestRun()
		if err != nil {
			return nil, fmt.Errorf("failed to read latest scan run: %w", err)
		}

		files, err := source.ListFiles()
		if err != nil {
			return nil, fmt.Errorf("failed to list stored files: %w", err)
		}

		return jsonResult(StatusResponse{
			LatestRun: run,
			Files:     len(files),
			Watching:  watching,
			Graph:     provider.Metrics(),
		})
	}
}
