package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// AddReadDocTool registers the docs_read tool with an MCP server. Paths are
// docs-root-relative, exactly as docs_search and docs_list report them.
func AddReadDocTool(s *server.MCPServer, docsRoot string) {
	tool := mcp.NewTool(
		"docs_read",
		mcp.WithDescription("Read one extracted documentation file by its docs-root-relative path (as returned by docs_search and docs_list)."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Doc path relative to the docs root (e.g., 'Calculator/add.md')")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createReadDocHandler(docsRoot))
}

// ReadDocResponse is the JSON payload of one docs_read call.
type ReadDocResponse struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// createReadDocHandler creates the handler function for the docs_read tool.
func createReadDocHandler(docsRoot string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}

		rel, ok := argsMap["path"].(string)
		if !ok || rel == "" {
			return mcp.NewToolResultError("path parameter is required"), nil
		}

		full, err := resolveDocPath(docsRoot, rel)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		data, err := os.ReadFile(full)
		if os.IsNotExist(err) {
			return mcp.NewToolResultError(fmt.Sprintf("doc not found: %s", rel)), nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read doc: %w", err)
		}

		response := &ReadDocResponse{Path: rel, Content: string(data)}
		jsonData, err := json.Marshal(response)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}

// resolveDocPath joins a client-supplied relative path onto the docs root,
// rejecting absolute paths and anything escaping the root.
func resolveDocPath(docsRoot, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("path must be relative to the docs root: %s", rel)
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes the docs root: %s", rel)
	}
	return filepath.Join(docsRoot, clean), nil
}
