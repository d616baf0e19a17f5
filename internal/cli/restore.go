package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/exodoc/exodoc/internal/config"
	"github.com/exodoc/exodoc/internal/migrate"
)

var (
	restoreDryRun bool
	restoreDocs   string
	restoreQuiet  bool
)

// restoreCmd represents the restore command
var restoreCmd = &cobra.Command{
	Use:   "restore [source]",
	Short: "Re-inject migrated markdown back as inline doc comments",
	Long: `Restore is the inverse of migrate: for every item whose derived markdown
file exists, its content is written back as /// doc comments (module docs as
//!), replacing any current docs, and exodoc reference attributes are
removed. Items without a markdown file keep their docs and only lose the
reference attribute.

Examples:
  exodoc restore
  exodoc restore crates/core --dry-run
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRestore,
}

func init() {
	rootCmd.AddCommand(restoreCmd)
	restoreCmd.Flags().BoolVarP(&restoreDryRun, "dry-run", "n", false, "Report without writing any file")
	restoreCmd.Flags().StringVarP(&restoreDocs, "docs", "d", "", "Docs root to restore from (overrides Cargo.toml)")
	restoreCmd.Flags().BoolVarP(&restoreQuiet, "quiet", "q", false, "Disable progress bars and non-error output")
}

func runRestore(cmd *cobra.Command, args []string) error {
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

	opts := migrate.Options{
		Root:    ".",
		Include: cfg.Paths.Include,
		Exclude: cfg.Paths.Exclude,
		Restore: true,
		DryRun:  restoreDryRun,
		Workers: cfg.Migration.Workers,
		Docs:    restoreDocs,
	}
	if len(args) > 0 {
		opts.Root = args[0]
	}

	reporter := NewCLIProgressReporter(restoreQuiet)
	rep, err := executeMigrate(ctx, opts, reporter, "")
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("restore cancelled")
		}
		return err
	}

	printReportErrors(os.Stderr, rep)
	fmt.Printf("Restore complete: %d source file(s) updated\n", rep.FilesRestored)
	return nil
}
