package watcher

import (
	"context"
	"log"

	"github.com/exodoc/exodoc/internal/migrate"
)

// Runner couples a FileWatcher to a Migrator: it runs one migration pass up
// front, then re-runs it for every debounced batch of source changes.
type Runner struct {
	watcher  FileWatcher
	migrator Migrator
	opts     migrate.Options
}

// NewRunner creates a runner that executes migration passes with the given
// options whenever watched sources change.
func NewRunner(watcher FileWatcher, migrator Migrator, opts migrate.Options) *Runner {
	return &Runner{
		watcher:  watcher,
		migrator: migrator,
		opts:     opts,
	}
}

// Start runs the initial migration pass, then blocks re-running it on source
// changes until the context is cancelled. An error from the initial pass is
// returned; errors from later passes are logged and watching continues.
func (r *Runner) Start(ctx context.Context) error {
	rep, err := r.migrator.Run(ctx, r.opts)
	if err != nil {
		r.cleanup()
		return err
	}
	logReport(rep)

	if err := r.watcher.Start(ctx, r.handleChanges); err != nil {
		r.cleanup()
		return err
	}

	<-ctx.Done()
	r.cleanup()
	return ctx.Err()
}

// cleanup stops the file watcher.
func (r *Runner) cleanup() {
	if err := r.watcher.Stop(); err != nil {
		log.Printf("Warning: file watcher stop failed: %v", err)
	}
}

// handleChanges processes a debounced batch of changed source files.
func (r *Runner) handleChanges(files []string) {
	if len(files) == 0 {
		return
	}

	log.Printf("Detected %d source change(s), running migration...", len(files))

	// Pause while the pass runs so sources it rewrites land in the
	// accumulated batch instead of firing mid-run. Resume fires that batch,
	// and the follow-up pass finds nothing left to change.
	r.watcher.Pause()
	defer r.watcher.Resume()

	// Change processing outlives the debounce window, so it gets its own context.
	ctx := context.Background()
	rep, err := r.migrator.Run(ctx, r.opts)
	if err != nil {
		log.Printf("Error: migration failed: %v", err)
		return
	}
	logReport(rep)
}

func logReport(rep *migrate.Report) {
	log.Printf("✓ Processed %d file(s): %d doc(s) extracted, %d written, %d skipped",
		rep.FilesProcessed, rep.DocsExtracted, rep.FilesWritten, rep.FilesSkipped)
	if rep.FilesRewritten > 0 {
		log.Printf("  Rewrote %d source file(s)", rep.FilesRewritten)
	}
	for _, msg := range rep.Errors {
		log.Printf("Warning: %s", msg)
	}
}
