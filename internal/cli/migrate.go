package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/exodoc/exodoc/internal/config"
	"github.com/exodoc/exodoc/internal/ledger"
	"github.com/exodoc/exodoc/internal/migrate"
)

var (
	migrateStrip       bool
	migrateAnnotate    bool
	migrateTouch       bool
	migrateFull        bool
	migrateDryRun      bool
	migrateDocs        string
	migrateInlinePaths bool
	migrateWorkers     int
	migrateQuiet       bool
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate [source]",
	Short: "Extract inline documentation into markdown files",
	Long: `Migrate walks the source tree, extracts inline documentation (///, //!,
#[doc = "..."]) into markdown files under the docs root, and optionally
rewrites the sources.

The docs root comes from [package.metadata.exodoc] docs-path in the nearest
Cargo.toml (created with "docs" on first use), or from --docs.

Examples:
  # Extract docs only, sources untouched
  exodoc migrate

  # Full migration: strip doc comments, inject reference attributes,
  # create placeholder files for undocumented items
  exodoc migrate --full

  # Preview what a migration would do
  exodoc migrate --full --dry-run

  # Migrate one crate subtree into an explicit docs directory
  exodoc migrate crates/core --docs documentation
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVarP(&migrateStrip, "strip", "s", false, "Remove migrated doc comments from sources")
	migrateCmd.Flags().BoolVarP(&migrateAnnotate, "annotate", "a", false, "Inject #[exodoc::docs] reference attributes")
	migrateCmd.Flags().BoolVarP(&migrateTouch, "touch", "t", false, "Create empty docs for undocumented items (requires --annotate)")
	migrateCmd.Flags().BoolVarP(&migrateFull, "full", "m", false, "Full migration: --strip --annotate --touch")
	migrateCmd.Flags().BoolVarP(&migrateDryRun, "dry-run", "n", false, "Report without writing any file")
	migrateCmd.Flags().StringVarP(&migrateDocs, "docs", "d", "", "Docs output root (overrides Cargo.toml, implies inline paths)")
	migrateCmd.Flags().BoolVar(&migrateInlinePaths, "inline-paths", false, "Embed the docs path into reference attributes")
	migrateCmd.Flags().IntVar(&migrateWorkers, "workers", 0, "Parallel file workers (0 = one per CPU)")
	migrateCmd.Flags().BoolVarP(&migrateQuiet, "quiet", "q", false, "Disable progress bars and non-error output")
}

func runMigrate(cmd *cobra.Command, args []string) error {
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

	opts := buildMigrateOptions(cfg, args)
	reporter := NewCLIProgressReporter(migrateQuiet)

	ledgerPath := ""
	if !opts.DryRun {
		ledgerPath = config.LedgerPath(rootDir)
	}
	rep, err := executeMigrate(ctx, opts, reporter, ledgerPath)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("migration cancelled")
		}
		return err
	}

	printReportErrors(os.Stderr, rep)
	if migrateQuiet {
		fmt.Printf("Migration complete: %d doc(s) from %d file(s)\n",
			rep.DocsExtracted, rep.FilesProcessed)
	} else {
		printReport(os.Stdout, rep)
	}
	return nil
}

// buildMigrateOptions merges configuration and flags into pipeline options.
// Flags win over config; --full expands to strip+annotate+touch.
func buildMigrateOptions(cfg *config.Config, args []string) migrate.Options {
	opts := migrate.Options{
		Root:        ".",
		Include:     cfg.Paths.Include,
		Exclude:     cfg.Paths.Exclude,
		Strip:       migrateStrip,
		Annotate:    migrateAnnotate,
		Touch:       migrateTouch,
		DryRun:      migrateDryRun,
		Workers:     cfg.Migration.Workers,
		Docs:        cfg.Migration.Docs,
		InlinePaths: cfg.Migration.InlinePaths || migrateInlinePaths,
	}
	if len(args) > 0 {
		opts.Root = args[0]
	}
	if migrateFull {
		opts.Strip = true
		opts.Annotate = true
		opts.Touch = true
	}
	if migrateWorkers > 0 {
		opts.Workers = migrateWorkers
	}
	if migrateDocs != "" {
		opts.Docs = migrateDocs
	}
	return opts
}

// executeMigrate runs one migration pass, recording it in the ledger at
// ledgerPath when non-empty. Ledger trouble never fails the migration; the
// pass runs untracked with a warning.
func executeMigrate(ctx context.Context, opts migrate.Options, reporter migrate.Reporter, ledgerPath string) (*migrate.Report, error) {
	processor := migrate.NewProcessor(reporter)

	var led *ledger.Ledger
	if ledgerPath != "" && !opts.Restore {
		var err error
		led, err = ledger.Open(ledgerPath)
		if err != nil {
			log.Printf("Warning: extraction ledger unavailable: %v", err)
		} else {
			defer led.Close()
			if err := led.Begin(ctx, opts.Root); err != nil {
				log.Printf("Warning: failed to begin ledger run: %v", err)
				led = nil
			} else {
				processor.SetRecordSink(led)
			}
		}
	}

	rep, err := processor.Run(ctx, opts)
	if err != nil {
		return nil, err
	}
	if led != nil {
		if err := led.Finish(ctx, rep); err != nil {
			log.Printf("Warning: failed to record ledger run: %v", err)
		}
	}
	return rep, nil
}
