package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/exodoc/exodoc/internal/config"
	"github.com/exodoc/exodoc/internal/docindex"
)

var searchLimit int

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the extracted documentation",
	Long: `Search runs a full-text query against the docs index built by
'exodoc index'. Bleve query syntax applies: field scoping (name:add),
boolean operators, phrases, and wildcards.

Examples:
  exodoc search overflow
  exodoc search 'name:add'
  exodoc search '"integer overflow" -name:test' --limit 5
`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 0, "Maximum results (default from config, 10)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := config.LoadConfigFromDir(rootDir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	limit := cfg.Search.Limit
	if searchLimit > 0 {
		limit = searchLimit
	}

	indexPath := config.IndexPath(rootDir)
	if _, err := os.Stat(indexPath); os.IsNotExist(err) {
		return fmt.Errorf("no search index at %s, run 'exodoc index' first", indexPath)
	}
	idx, err := docindex.Open(indexPath)
	if err != nil {
		return err
	}
	defer idx.Close()

	query := strings.Join(args, " ")
	results, err := idx.Search(ctx, query, limit)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No results")
		return nil
	}
	for i, res := range results {
		fmt.Printf("%d. %s (%.2f)\n", i+1, res.Path, res.Score)
		for _, hl := range res.Highlights {
			fmt.Printf("   %s\n", stripHighlightTags(hl))
		}
	}
	return nil
}

// stripHighlightTags removes bleve's html highlight markers for terminal output.
func stripHighlightTags(s string) string {
	s = strings.ReplaceAll(s, "<mark>", "")
	s = strings.ReplaceAll(s, "</mark>", "")
	return strings.ReplaceAll(s, "\n", " ")
}
