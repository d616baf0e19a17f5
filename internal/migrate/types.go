// Package migrate orchestrates the documentation migration pipeline:
// discover Rust sources, parse and extract in parallel workers, rewrite
// sources in place, and materialize markdown records under the docs root.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/exodoc/exodoc/internal/extract"
)

// Options select what a run does. Zero value extracts only.
type Options struct {
	Root        string   // file or directory to process
	Include     []string // discovery include globs, default **/*.rs
	Exclude     []string // discovery exclude globs, default target/.git
	Strip       bool     // remove doc attributes from sources
	Annotate    bool     // inject reference attributes
	Touch       bool     // create placeholder files for undocumented items
	Restore     bool     // inverse migration; exclusive with the flags above
	DryRun      bool     // report without mutating anything
	Workers     int      // 0 means one per CPU
	Docs        string   // explicit output root, implies inline paths
	InlinePaths bool     // inline the default docs path into references
}

var (
	ErrRestoreExclusive   = errors.New("restore cannot be combined with strip, annotate, or touch")
	ErrTouchNeedsAnnotate = errors.New("touch requires annotate")
)

func (o Options) validate() error {
	if o.Restore && (o.Strip || o.Annotate || o.Touch) {
		return ErrRestoreExclusive
	}
	if o.Touch && !o.Annotate {
		return ErrTouchNeedsAnnotate
	}
	return nil
}

// Report aggregates one run. Non-fatal problems are recorded as error strings
// naming the file and cause; counts are always populated, partial failure
// included. A report is never persisted.
type Report struct {
	FilesProcessed int
	DocsExtracted  int
	FilesWritten   int
	FilesSkipped   int
	FilesRewritten int
	FilesTouched   int
	FilesRestored  int
	ParseFailures  int
	Errors         []string
}

func (r *Report) errorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// CollisionError reports two extractions deriving the same output path with
// different content. Nothing is written there: no silent winner.
type CollisionError struct {
	Path    string
	Origins []string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("doc path collision at %s (from %s)", e.Path, strings.Join(e.Origins, ", "))
}

// RecordSink observes the merged extraction records before materialization.
// Sink failures are recorded in the report, never fatal.
type RecordSink interface {
	RecordExtractions(ctx context.Context, records []extract.Extraction) error
}
