package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "exodoc",
	Short: "Migrate inline Rust documentation into external markdown files",
	Long: `Exodoc moves documentation that lives inline in Rust sources (///, //!,
#[doc = "..."]) into standalone markdown files, one per documented item,
mirroring the module/type hierarchy under a docs directory.

It can also rewrite the sources: strip the migrated doc comments and inject
#[exodoc::docs] reference attributes the exodoc proc-macro crate resolves at
build time, so rustdoc output is unchanged while the text lives in markdown.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// signalContext returns a context cancelled on SIGINT/SIGTERM, printing a
// notice the first time so the user knows the run is winding down.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted! Finishing current files...")
		cancel()
	}()
	return ctx, cancel
}
