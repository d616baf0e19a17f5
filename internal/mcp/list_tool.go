package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// AddListDocsTool registers the docs_list tool with an MCP server.
func AddListDocsTool(s *server.MCPServer, docsRoot string) {
	tool := mcp.NewTool(
		"docs_list",
		mcp.WithDescription("List extracted documentation files under the docs root, sorted. Paths are docs-root-relative and mirror the source item hierarchy (Module/Type/item.md)."),
		mcp.WithString("prefix",
			mcp.Description("Only list docs under this subdirectory (e.g., 'Calculator')")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createListDocsHandler(docsRoot))
}

// ListDocsResponse is the JSON payload of one docs_list call.
type ListDocsResponse struct {
	Paths []string `json:"paths"`
	Total int      `json:"total"`
}

// createListDocsHandler creates the handler function for the docs_list tool.
func createListDocsHandler(docsRoot string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}

		root := docsRoot
		prefix := ""
		if p, ok := argsMap["prefix"].(string); ok && p != "" {
			resolved, err := resolveDocPath(docsRoot, p)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			root = resolved
			prefix = p
		}

		paths, err := listDocs(docsRoot, root, prefix)
		if err != nil {
			return nil, err
		}

		response := &ListDocsResponse{Paths: paths, Total: len(paths)}
		jsonData, err := json.Marshal(response)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}

// listDocs walks root collecting markdown paths relative to docsRoot. A
// missing root (nothing extracted yet, or an unknown prefix) lists empty.
func listDocs(docsRoot, root, prefix string) ([]string, error) {
	paths := []string{}
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == root {
				return filepath.SkipAll
			}
			return err
		}
		if info.IsDir() || !strings.HasSuffix(p, ".md") {
			return nil
		}
		rel, err := filepath.Rel(docsRoot, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list docs under %q: %w", prefix, err)
	}
	sort.Strings(paths)
	return paths, nil
}
