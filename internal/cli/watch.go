package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/exodoc/exodoc/internal/config"
	"github.com/exodoc/exodoc/internal/migrate"
	"github.com/exodoc/exodoc/internal/watcher"
)

var (
	watchDocs    string
	watchWorkers int
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [source]",
	Short: "Continuously extract documentation as sources change",
	Long: `Watch runs one extraction pass, then watches the source tree and re-runs
extraction whenever .rs files change. Changes are debounced so a burst of
editor saves triggers a single pass. Sources are never rewritten in watch
mode; it only keeps the docs tree current.

Example:
  exodoc watch
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&watchDocs, "docs", "d", "", "Docs output root (overrides Cargo.toml)")
	watchCmd.Flags().IntVar(&watchWorkers, "workers", 0, "Parallel file workers (0 = one per CPU)")
}

func runWatch(cmd *cobra.Command, args []string) error {
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
		Workers: cfg.Migration.Workers,
		Docs:    cfg.Migration.Docs,
	}
	if len(args) > 0 {
		opts.Root = args[0]
	}
	if watchWorkers > 0 {
		opts.Workers = watchWorkers
	}
	if watchDocs != "" {
		opts.Docs = watchDocs
	}

	watchRoot := opts.Root
	if info, err := os.Stat(watchRoot); err == nil && !info.IsDir() {
		return fmt.Errorf("watch needs a directory, got %s", watchRoot)
	}

	fw, err := watcher.NewFileWatcher([]string{watchRoot}, []string{".rs"}, nil)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	log.Printf("Watching %s for changes (Ctrl+C to stop)...", watchRoot)
	runner := watcher.NewRunner(fw, migrate.NewProcessor(&migrate.NoOpReporter{}), opts)
	if err := runner.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch failed: %w", err)
	}
	log.Println("Watch stopped")
	return nil
}
