package migrate

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/exodoc/exodoc/internal/extract"
)

// materialize writes extraction records to disk and folds the outcome into
// the report. Records that target the same path with identical content
// collapse into one write; differing content is a collision and the path is
// left untouched. Files already holding the expected content are skipped.
// Dry runs perform every check against the real filesystem but mutate
// nothing, so the reported counts match what a real run would do.
func materialize(records []extract.Extraction, dryRun bool, rep *Report) {
	type target struct {
		path    string
		content string
		origins []string
		clash   bool
	}

	byPath := make(map[string]*target, len(records))
	order := make([]*target, 0, len(records))
	for i := range records {
		rec := &records[i]
		t, ok := byPath[rec.Path]
		if !ok {
			t = &target{path: rec.Path, content: rec.Content, origins: []string{rec.Origin()}}
			byPath[rec.Path] = t
			order = append(order, t)
			continue
		}
		t.origins = append(t.origins, rec.Origin())
		if rec.Content != t.content {
			t.clash = true
		}
	}

	madeDirs := make(map[string]bool)
	for _, t := range order {
		if t.clash {
			collision := &CollisionError{Path: t.path, Origins: t.origins}
			rep.errorf("%s", collision.Error())
			continue
		}

		info, err := os.Stat(t.path)
		switch {
		case err == nil && info.IsDir():
			rep.errorf("cannot write %s: path is a directory", t.path)
			continue
		case err == nil:
			existing, err := os.ReadFile(t.path)
			if err != nil {
				rep.errorf("failed to read %s: %v", t.path, err)
				continue
			}
			if bytes.Equal(existing, []byte(t.content)) {
				rep.FilesSkipped++
				continue
			}
		}

		dir := filepath.Dir(t.path)
		if dryRun {
			if err := dirConflict(dir); err != nil {
				rep.errorf("cannot write %s: %v", t.path, err)
				continue
			}
			rep.FilesWritten++
			continue
		}
		if !madeDirs[dir] {
			if err := os.MkdirAll(dir, 0755); err != nil {
				rep.errorf("failed to create %s: %v", dir, err)
				continue
			}
			madeDirs[dir] = true
		}
		if err := os.WriteFile(t.path, []byte(t.content), 0644); err != nil {
			rep.errorf("failed to write %s: %v", t.path, err)
			continue
		}
		rep.FilesWritten++
	}
}

// dirConflict walks up from dir to the nearest existing ancestor and reports
// when that ancestor is a regular file, which is the failure MkdirAll would
// hit on a real run.
func dirConflict(dir string) error {
	for d := dir; ; {
		info, err := os.Stat(d)
		if err == nil {
			if !info.IsDir() {
				return &notDirError{path: d}
			}
			return nil
		}
		parent := filepath.Dir(d)
		if parent == d {
			return nil
		}
		d = parent
	}
}

type notDirError struct {
	path string
}

func (e *notDirError) Error() string {
	return e.path + " exists and is not a directory"
}
