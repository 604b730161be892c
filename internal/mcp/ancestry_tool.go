package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/propscan/internal/autogen/dsl"
	"github.com/mvp-joe/propscan/internal/graph"
)

// Ancestry query directions.
const (
	DirectionAncestors   = "ancestors"
	DirectionDescendants = "descendants"
	DirectionModels      = "models"
	DirectionModelUsers  = "model_users"
)

// MaxDepth caps traversal depth for the propscan_ancestry tool.
const MaxDepth = 50

// AncestryResponse is the propscan_ancestry tool result.
type AncestryResponse struct {
	Target    string         `json:"target"`
	Direction string         `json:"direction"`
	Depth     int            `json:"depth"` // 0 means unlimited
	Results   []graph.Result `json:"results"`
}

// AddPropscanAncestryTool registers the propscan_ancestry tool with an MCP server.
func AddPropscanAncestryTool(s *server.MCPServer, provider *GraphProvider) {
	tool := mcp.NewTool(
		"propscan_ancestry",
		mcp.WithDescription("Traverse the class ancestry graph built from superclasses, include/prepend mixins and model references. Directions: ancestors (what this class inherits from), descendants (what inherits from it), models (its model references), model_users (classes whose model is this class)."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Fully qualified class name (e.g., 'Payments::Charge')")),
		mcp.WithString("direction",
			mcp.Description("One of 'ancestors', 'descendants', 'models', 'model_users' (default: ancestors)")),
		mcp.WithNumber("depth",
			mcp.Description("Traversal depth for ancestors/descendants (default: 1, 0 for unlimited, max: 50)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createPropscanAncestryHandler(provider))
}

func createPropscanAncestryHandler(provider *GraphProvider) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := argsMap(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		name, err := parseStringArg(args, "name", true)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		direction, err := parseStringArg(args, "direction", false)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if direction == "" {
			direction = DirectionAncestors
		}
		depth := parseClampedInt(args, "depth", 1, 0, MaxDepth)

		target := dsl.ParseQualifiedName(name).String()
		ancestry := provider.Ancestry()

		var results []graph.Result
		switch direction {
		case DirectionAncestors:
			results, err = ancestry.Ancestors(target, depth)
		case DirectionDescendants:
			results, err = ancestry.Descendants(target, depth)
		case DirectionModels:
			results, err = direct(ancestry.Models(target))
		case DirectionModelUsers:
			results, err = direct(ancestry.ModelUsers(target))
		default:
			return mcp.NewToolResultError(fmt.Sprintf("invalid direction: %s (must be one of: ancestors, descendants, models, model_users)", direction)), nil
		}

		if errors.Is(err, graph.ErrNodeNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("class not found: %s", target)), nil
		}
		if err != nil {
			return nil, fmt.Errorf("ancestry query failed: %w", err)
		}

		return jsonResult(AncestryResponse{
			Target:    target,
			Direction: direction,
			Depth:     depth,
			Results:   results,
		})
	}
}

// direct wraps one-hop node lists as depth 1 results.
func direct(nodes []*graph.Node, err error) ([]graph.Result, error) {
	if err != nil {
		return nil, err
	}
	results := make([]graph.Result, 0, len(nodes))
	for _, node := range nodes {
		results = append(results, graph.Result{Node: node, Depth: 1})
	}
	return results, nil
}
