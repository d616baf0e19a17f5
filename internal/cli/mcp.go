package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/exodoc/exodoc/internal/config"
	"github.com/exodoc/exodoc/internal/mcp"
)

var mcpDocs string

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server over the extracted documentation",
	Long: `Start a Model Context Protocol (MCP) server that lets LLM coding
assistants search and read the migrated documentation.

The server:
- Indexes the docs tree with full-text search (docs_search tool)
- Reads single docs by path (docs_read tool)
- Lists the doc hierarchy (docs_list tool)
- Refreshes the index when docs change on disk
- Communicates via stdio (standard MCP transport)

Example:
  exodoc mcp`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVarP(&mcpDocs, "docs", "d", "", "Docs root to serve (overrides Cargo.toml)")
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	docsRoot, err := resolveDocsRoot(mcpDocs)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Exodoc MCP Server\n")
	fmt.Fprintf(os.Stderr, "Docs root: %s\n", docsRoot)

	srv, err := mcp.NewServer(ctx, docsRoot, config.IndexPath(rootDir))
	if err != nil {
		return err
	}
	defer srv.Close()

	return srv.Serve(ctx)
}
