package migrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/exodoc/exodoc/internal/extract"
	"github.com/exodoc/exodoc/internal/manifest"
	"github.com/exodoc/exodoc/internal/rewrite"
	"github.com/exodoc/exodoc/internal/source"
)

// Processor runs the migration pipeline. One processor may serve many runs;
// manifest lookups are cached across them.
type Processor struct {
	resolver *manifest.Resolver
	progress Reporter
	sink     RecordSink
}

func NewProcessor(progress Reporter) *Processor {
	if progress == nil {
		progress = &NoOpReporter{}
	}
	return &Processor{
		resolver: manifest.NewResolver(),
		progress: progress,
	}
}

// SetRecordSink registers an observer for the merged extraction records of
// each run. Passing nil removes the sink.
func (p *Processor) SetRecordSink(sink RecordSink) {
	p.sink = sink
}

// fileResult carries one worker's output back to the accumulator. Results
// are merged in discovery order so reports and record batches are
// deterministic regardless of worker scheduling.
type fileResult struct {
	records   []extract.Extraction
	touched   []extract.Extraction
	rewritten bool
	restored  bool
	parseErr  string
	ioErrs    []string
	fatal     error
}

// Run executes one pipeline pass and returns its report. Fatal errors are
// invalid option combinations, discovery failures, cancellation, and
// manifest failures; everything else is recorded in the report.
func (p *Processor) Run(ctx context.Context, opts Options) (*Report, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	discovery, err := NewDiscovery(opts.Root, opts.Include, opts.Exclude)
	if err != nil {
		return nil, err
	}
	files, err := discovery.Files()
	if err != nil {
		return nil, err
	}
	p.progress.OnDiscoveryComplete(len(files))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(files) && len(files) > 0 {
		workers = len(files)
	}

	results := make([]fileResult, len(files))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = p.processFile(files[idx], opts)
				p.progress.OnFileProcessed(files[idx])
			}
		}()
	}

	// Cancellation is coarse: checked between files, never inside one, so a
	// canceled run still leaves every touched source syntactically whole.
	for i := range files {
		if ctx.Err() != nil {
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep := &Report{}
	var records []extract.Extraction
	var placeholders []extract.Extraction
	for i := range results {
		res := &results[i]
		if res.fatal != nil {
			return nil, res.fatal
		}
		rep.FilesProcessed++
		if res.parseErr != "" {
			rep.ParseFailures++
			rep.Errors = append(rep.Errors, res.parseErr)
			continue
		}
		rep.Errors = append(rep.Errors, res.ioErrs...)
		if res.rewritten {
			rep.FilesRewritten++
		}
		if res.restored {
			rep.FilesRestored++
		}
		records = append(records, res.records...)
		placeholders = append(placeholders, res.touched...)
	}
	rep.DocsExtracted = len(records)

	// Placeholders yield to real extractions targeting the same path, which
	// happens when one file's undocumented item is documented from another
	// file's impl block.
	if len(placeholders) > 0 {
		real := make(map[string]struct{}, len(records))
		for _, rec := range records {
			real[rec.Path] = struct{}{}
		}
		kept := placeholders[:0]
		for _, ph := range placeholders {
			if _, ok := real[ph.Path]; ok {
				continue
			}
			kept = append(kept, ph)
		}
		placeholders = kept
		rep.FilesTouched = len(placeholders)
		records = append(records, placeholders...)
	}

	if !opts.Restore {
		p.progress.OnWriteStart(len(records))
		if p.sink != nil && len(records) > 0 {
			if err := p.sink.RecordExtractions(ctx, records); err != nil {
				rep.errorf("failed to record run: %v", err)
			}
		}
		materialize(records, opts.DryRun, rep)
	}

	p.progress.OnComplete(rep)
	return rep, nil
}

func (p *Processor) processFile(path string, opts Options) fileResult {
	var res fileResult

	data, err := os.ReadFile(path)
	if err != nil {
		res.ioErrs = append(res.ioErrs, fmt.Sprintf("failed to read %s: %v", path, err))
		return res
	}
	parsed, err := source.Parse(path, data)
	if err != nil {
		res.parseErr = err.Error()
		return res
	}

	settings, err := p.settingsFor(path, opts)
	if err != nil {
		res.fatal = err
		return res
	}

	if opts.Restore {
		text, err := rewrite.Restore(parsed, settings.DocsRoot)
		if err != nil {
			res.ioErrs = append(res.ioErrs, fmt.Sprintf("failed to restore %s: %v", path, err))
			return res
		}
		if text != string(parsed.Source) {
			res.restored = true
			if !opts.DryRun {
				if err := writeFileAtomic(path, []byte(text)); err != nil {
					res.restored = false
					res.ioErrs = append(res.ioErrs, fmt.Sprintf("failed to write %s: %v", path, err))
				}
			}
		}
		return res
	}

	res.records = extract.All(parsed, settings.DocsRoot)
	if opts.Touch {
		res.touched = placeholderRecords(parsed, settings.DocsRoot, res.records)
	}

	ropts := rewrite.Options{
		Strip:    opts.Strip,
		Annotate: opts.Annotate,
		CfgAttr:  settings.CfgAttr,
	}
	if settings.Mode == manifest.ModeInlinePaths {
		ropts.InlinePath = settings.DocsRel
	}
	if text, ok := rewrite.Apply(parsed, ropts); ok && text != string(parsed.Source) {
		res.rewritten = true
		if !opts.DryRun {
			if err := writeFileAtomic(path, []byte(text)); err != nil {
				res.rewritten = false
				res.ioErrs = append(res.ioErrs, fmt.Sprintf("failed to write %s: %v", path, err))
			}
		}
	}
	return res
}

func (p *Processor) settingsFor(path string, opts Options) (manifest.Settings, error) {
	if opts.Docs != "" {
		return manifest.InlineSettings(opts.Docs)
	}
	if opts.InlinePaths {
		return manifest.InlineSettings(manifest.DefaultDocsPath)
	}
	return p.resolver.Resolve(filepath.Dir(path), opts.DryRun)
}

// placeholderRecords lists the documentable paths of a file that neither
// this run extracted nor the docs tree already holds. They materialize as
// empty files so every item has a markdown slot waiting for content.
func placeholderRecords(f *source.File, docsRoot string, extracted []extract.Extraction) []extract.Extraction {
	have := make(map[string]struct{}, len(extracted))
	for _, rec := range extracted {
		have[rec.Path] = struct{}{}
	}
	var out []extract.Extraction
	for _, path := range extract.ExpectedPaths(f, docsRoot) {
		if _, ok := have[path]; ok {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			continue
		}
		out = append(out, extract.Extraction{
			Path: path,
			File: f.Path,
			Kind: "placeholder",
			Line: 1,
		})
	}
	return out
}

// writeFileAtomic replaces path through a same-directory temp file and
// rename, so an interrupted run never leaves a half-written source behind.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".exodoc-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if info, err := os.Stat(path); err == nil {
		if err := tmp.Chmod(info.Mode()); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("failed to set mode: %w", err)
		}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
