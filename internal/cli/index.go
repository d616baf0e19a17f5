package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/exodoc/exodoc/internal/config"
	"github.com/exodoc/exodoc/internal/docindex"
)

var indexDocs string

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the full-text search index over the docs tree",
	Long: `Index (re)builds the bleve search index from the markdown files under the
docs root. The index lives in .exodoc/index.bleve and backs both
'exodoc search' and the MCP server.

Example:
  exodoc index
`,
	RunE: runIndexDocs,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().StringVarP(&indexDocs, "docs", "d", "", "Docs root to index (overrides Cargo.toml)")
}

func runIndexDocs(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	docsRoot, err := resolveDocsRoot(indexDocs)
	if err != nil {
		return err
	}

	idx, err := docindex.Open(config.IndexPath(rootDir))
	if err != nil {
		return err
	}
	defer idx.Close()

	count, err := idx.Rebuild(ctx, docsRoot)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("indexing cancelled")
		}
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Printf("✓ Indexed %d doc(s) from %s\n", count, docsRoot)
	return nil
}
