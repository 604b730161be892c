package mcp

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// argsMap returns the tool arguments as a map.
func argsMap(request mcp.CallToolRequest) (map[string]interface{}, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid arguments format")
	}
	return args, nil
}

// parseStringArg extracts a string argument from an MCP arguments map.
// Returns an error if the argument is required but missing or invalid.
func parseStringArg(args map[string]interface{}, key string, required bool) (string, error) {
	val, ok := args[key]
	if !ok {
		if required {
			return "", fmt.Errorf("%s parameter is required", key)
		}
		return "", nil
	}

	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}

	if required && str == "" {
		return "", fmt.Errorf("%s cannot be empty", key)
	}

	return str, nil
}

// parseClampedInt extracts an integer argument and clamps it to [min, max].
// MCP sends numbers as float64. Returns defaultVal if the argument is missing
// or not a number.
func parseClampedInt(args map[string]interface{}, key string, defaultVal, min, max int) int {
	f, ok := args[key].(float64)
	if !ok {
		return defaultVal
	}
	val := int(f)
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
