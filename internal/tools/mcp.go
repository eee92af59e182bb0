package tools

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterMCP exposes the retrieval tools over MCP so external clients
// (editors, agents) can query the corpus directly.
// Called from main after server creation but before Run().
func RegisterMCP(server *mcp.Server, reg *Registry, deps *Dependencies) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        SearchToolName,
		Description: "Search course materials with smart course name matching and lesson filtering",
	}, newDispatchHandler[SearchInput](reg, SearchToolName))

	mcp.AddTool(server, &mcp.Tool{
		Name:        OutlineToolName,
		Description: "Get the complete outline of a course: title, link and the full numbered lesson list",
	}, newDispatchHandler[OutlineInput](reg, OutlineToolName))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_courses",
		Description: "List all indexed courses with corpus statistics",
	}, newListCoursesHandler(deps))
}

// newDispatchHandler adapts a registry tool to an MCP handler. The typed
// input is re-marshaled so both transports share one argument schema.
func newDispatchHandler[T any](reg *Registry, name string) mcp.ToolHandlerFor[T, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input T) (
		*mcp.CallToolResult, any, error,
	) {
		args, err := json.Marshal(input)
		if err != nil {
			return ErrorResult("Invalid arguments", err.Error()), nil, nil
		}
		res, err := reg.Execute(ctx, name, args)
		if err != nil {
			return ErrorResult("Tool execution failed", err.Error()), nil, nil
		}
		return TextResult(res.Text), nil, nil
	}
}

// ListCoursesInput is empty; the tool takes no arguments.
type ListCoursesInput struct{}

func newListCoursesHandler(deps *Dependencies) mcp.ToolHandlerFor[ListCoursesInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, _ ListCoursesInput) (
		*mcp.CallToolResult, any, error,
	) {
		stats, err := deps.Store.Stats(ctx)
		if err != nil {
			deps.Logger.Error("stats failed", "error", err)
			return ErrorResult("Failed to read corpus statistics", "Database may be unavailable"), nil, nil
		}
		jsonBytes, _ := json.MarshalIndent(stats, "", "  ")
		return TextResult(string(jsonBytes)), nil, nil
	}
}

// ErrorResult creates a tool error result with optional recovery hint.
// Returns IsError=true so the calling model can see the error and
// self-correct.
func ErrorResult(msg, hint string) *mcp.CallToolResult {
	text := msg
	if hint != "" {
		text = msg + ". " + hint
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		IsError: true,
	}
}

// TextResult creates a success result with text content.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
