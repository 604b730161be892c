package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/propscan/internal/autogen/dsl"
)

// ClassResponse is the propscan_class tool result.
type ClassResponse struct {
	Name    string             `json:"name"`
	Records []*dsl.ClassRecord `json:"records"` // One per defining file
}

// ClassListResponse is the propscan_classes tool result.
type ClassListResponse struct {
	Classes []string `json:"classes"`
	Total   int      `json:"total"`
}

// AddPropscanClassTool registers the propscan_class tool with an MCP server.
func AddPropscanClassTool(s *server.MCPServer, source ClassSource) {
	tool := mcp.NewTool(
		"propscan_class",
		mcp.WithDescription("Look up the prop declarations, ancestors, model reference and problem locations extracted for a Ruby class or module. Returns one record per file that defines the class."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Fully qualified class name (e.g., 'Payments::Charge'); a leading '::' is ignored")),
		mcp.WithString("file",
			mcp.Description("Only return the record from this source file")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createPropscanClassHandler(source))
}

func createPropscanClassHandler(source ClassSource) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := argsMap(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		name, err := parseStringArg(args, "name", true)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		file, err := parseStringArg(args, "file", false)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		qualified := dsl.ParseQualifiedName(name)
		records, err := source.FindClass(qualified)
		if err != nil {
			return nil, fmt.Errorf("class lookup failed: %w", err)
		}

		if file != "" {
			filtered := records[:0]
			for _, rec := range records {
				if rec.SourceFile == file {
					filtered = append(filtered, rec)
				}
			}
			records = filtered
		}

		if len(records) == 0 {
			return mcp.NewToolResultError(fmt.Sprintf("class not found: %s", qualified)), nil
		}

		return jsonResult(ClassResponse{Name: qualified.String(), Records: records})
	}
}

// AddPropscanClassesTool registers the propscan_classes tool with an MCP server.
func AddPropscanClassesTool(s *server.MCPServer, source ClassSource) {
	tool := mcp.NewTool(
		"propscan_classes",
		mcp.WithDescription("List the qualified names of all analyzed Ruby classes and modules, optionally filtered by namespace prefix."),
		mcp.WithString("prefix",
			mcp.Description("Only list names starting with this prefix (e.g., 'Payments::')")),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of names to return (default: 200, max: 5000)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createPropscanClassesHandler(source))
}

func createPropscanClassesHandler(source ClassSource) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := argsMap(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		prefix, err := parseStringArg(args, "prefix", false)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		prefix = strings.TrimPrefix(prefix, "::")
		maxResults := parseClampedInt(args, "max_results", 200, 1, 5000)

		names, err := source.ListClasses()
		if err != nil {
			return nil, fmt.Errorf("class listing failed: %w", err)
		}

		response := ClassListResponse{Classes: []string{}}
		for _, name := range names {
			s := name.String()
			if !strings.HasPrefix(s, prefix) {
				continue
			}
			response.Total++
			if len(response.Classes) < maxResults {
				response.Classes = append(response.Classes, s)
			}
		}

		return jsonResult(response)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
