package cli

import (
	"fmt"
	"io"

	"github.com/exodoc/exodoc/internal/migrate"
)

// printReport renders a migration report as the summary block every command
// ends with. Counts are always shown, partial failure included; zero-valued
// optional counts are elided.
func printReport(w io.Writer, rep *migrate.Report) {
	fmt.Fprintf(w, "  Files processed: %d\n", rep.FilesProcessed)
	fmt.Fprintf(w, "  Docs extracted:  %d\n", rep.DocsExtracted)
	fmt.Fprintf(w, "  Docs written:    %d\n", rep.FilesWritten)
	fmt.Fprintf(w, "  Docs skipped:    %d\n", rep.FilesSkipped)
	if rep.FilesRewritten > 0 {
		fmt.Fprintf(w, "  Sources rewritten: %d\n", rep.FilesRewritten)
	}
	if rep.FilesTouched > 0 {
		fmt.Fprintf(w, "  Placeholders touched: %d\n", rep.FilesTouched)
	}
	if rep.FilesRestored > 0 {
		fmt.Fprintf(w, "  Sources restored: %d\n", rep.FilesRestored)
	}
	if rep.ParseFailures > 0 {
		fmt.Fprintf(w, "  Parse failures:  %d\n", rep.ParseFailures)
	}
}

// printReportErrors lists the non-fatal errors of a run, one per line.
func printReportErrors(w io.Writer, rep *migrate.Report) {
	for _, msg := range rep.Errors {
		fmt.Fprintf(w, "Warning: %s\n", msg)
	}
}
