package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/exodoc/exodoc/internal/config"
	"github.com/exodoc/exodoc/internal/ledger"
)

var statusDocs string

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest migration run and orphaned docs",
	Long: `Status reads the extraction ledger (.exodoc/ledger.db) and prints the most
recent run's counts, plus markdown files under the docs root that the run no
longer tracks. Orphans usually mean the source item was renamed or removed;
they are listed, never deleted.

Example:
  exodoc status
`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVarP(&statusDocs, "docs", "d", "", "Docs root to scan for orphans (overrides Cargo.toml)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	led, err := ledger.OpenReadOnly(config.LedgerPath(rootDir))
	if err != nil {
		return err
	}
	defer led.Close()

	summary, err := led.Status(ctx)
	if errors.Is(err, ledger.ErrNoRuns) {
		fmt.Println("No migration runs recorded yet, run 'exodoc migrate' first")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Last run %s (root %s)\n", summary.StartedAt.Local().Format("2006-01-02 15:04:05"), summary.Root)
	fmt.Printf("  Files processed: %d\n", summary.FilesProcessed)
	fmt.Printf("  Docs tracked:    %d\n", summary.DocsTracked)
	fmt.Printf("  Docs written:    %d\n", summary.FilesWritten)
	fmt.Printf("  Docs skipped:    %d\n", summary.FilesSkipped)
	if summary.FilesRewritten > 0 {
		fmt.Printf("  Sources rewritten: %d\n", summary.FilesRewritten)
	}
	if summary.FilesTouched > 0 {
		fmt.Printf("  Placeholders touched: %d\n", summary.FilesTouched)
	}
	if summary.ErrorCount > 0 {
		fmt.Printf("  Errors: %d\n", summary.ErrorCount)
	}

	docsRoot, err := resolveDocsRoot(statusDocs)
	if err != nil {
		return err
	}
	orphans, err := led.Orphans(ctx, docsRoot)
	if err != nil {
		return err
	}
	if len(orphans) == 0 {
		fmt.Println("No orphaned docs")
		return nil
	}
	fmt.Printf("%d orphaned doc(s) under %s:\n", len(orphans), docsRoot)
	for _, path := range orphans {
		fmt.Printf("  %s\n", path)
	}
	return nil
}
