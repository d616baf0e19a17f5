package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/exodoc/exodoc/internal/docindex"
)

// DocSearcher is the slice of the search index the docs_search tool needs.
type DocSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]*docindex.Result, error)
}

// AddSearchDocsTool registers the docs_search tool with an MCP server.
// This function is composable - it can be combined with other tool registrations.
func AddSearchDocsTool(s *server.MCPServer, searcher DocSearcher) {
	tool := mcp.NewTool(
		"docs_search",
		mcp.WithDescription(`Full-text search over the project's extracted documentation using bleve query syntax.

Supports:
- Field scoping: name:add (exact item name), title:calculator, text:overflow
- Boolean operators: AND, OR, NOT, +required, -excluded
- Phrase search: "integer overflow"
- Wildcards: Calc* (prefix matching)

Results carry the doc's path relative to the docs root; pass it to docs_read
to fetch the full content.`),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Bleve query string (e.g., 'overflow', 'name:add', '\"exact phrase\"')")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return (1-100, default: 10)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createSearchDocsHandler(searcher))
}

// SearchDocsResponse is the JSON payload of one docs_search call.
type SearchDocsResponse struct {
	Query   string             `json:"query"`
	Results []*docindex.Result `json:"results"`
	Total   int                `json:"total"`
}

// createSearchDocsHandler creates the handler function for the docs_search tool.
func createSearchDocsHandler(searcher DocSearcher) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}

		query, ok := argsMap["query"].(string)
		if !ok || query == "" {
			return mcp.NewToolResultError("query parameter is required"), nil
		}

		limit := 10
		if l, ok := argsMap["limit"].(float64); ok {
			limit = int(l)
		}

		results, err := searcher.Search(ctx, query, limit)
		if err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}

		response := &SearchDocsResponse{
			Query:   query,
			Results: results,
			Total:   len(results),
		}
		jsonData, err := json.Marshal(response)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}

		// Return as text result (mcp-go convention)
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}
