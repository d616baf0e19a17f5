// Package manifest resolves per-crate documentation settings from Cargo.toml.
// The [package.metadata.exodoc] table holds docs-path (output root, created
// with a default when absent) and cfg-attr (conditional reference predicate).
// Edits are surgical line insertions: the rest of the manifest is never
// reformatted.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/maypok86/otter"
	"golang.org/x/sync/singleflight"
)

// Mode selects how reference attributes name the docs root.
type Mode int

const (
	// ModeManifest emits bare references; the build-time consumer reads the
	// path from the manifest.
	ModeManifest Mode = iota
	// ModeInlinePaths embeds the path into every reference attribute.
	ModeInlinePaths
)

// Settings is the resolved configuration for one crate.
type Settings struct {
	DocsRel  string // configured path, as written into attributes
	DocsRoot string // absolute output root for writes
	Mode     Mode
	CfgAttr  string // non-empty wraps references in cfg_attr(<pred>, ...)
}

// ErrNotFound means no Cargo.toml exists above the requested directory.
var ErrNotFound = errors.New("no Cargo.toml found")

const (
	manifestName = "Cargo.toml"
	sectionName  = "[package.metadata.exodoc]"
	docsPathKey  = "docs-path"
	cfgAttrKey   = "cfg-attr"

	// DefaultDocsPath is written into a manifest that has no docs-path yet.
	DefaultDocsPath = "docs"

	cacheCapacity = 64
)

// Find walks up from dir to the nearest directory containing Cargo.toml.
func Find(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	for {
		if _, err := os.Stat(filepath.Join(abs, manifestName)); err == nil {
			return abs, nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("%w above %s", ErrNotFound, dir)
		}
		abs = parent
	}
}

// InlineSettings builds settings for an explicit docs root, bypassing the
// manifest entirely.
func InlineSettings(docs string) (Settings, error) {
	abs, err := filepath.Abs(docs)
	if err != nil {
		return Settings{}, fmt.Errorf("resolve docs root %s: %w", docs, err)
	}
	return Settings{DocsRel: docs, DocsRoot: abs, Mode: ModeInlinePaths}, nil
}

// Resolver caches per-manifest settings. Parallel workers resolving files of
// the same crate hit the cache; the first miss runs the read-or-create under
// singleflight so the default section is written at most once.
type Resolver struct {
	cache otter.Cache[string, Settings]
	group singleflight.Group
}

func NewResolver() *Resolver {
	cache, err := otter.MustBuilder[string, Settings](cacheCapacity).Build()
	if err != nil {
		// capacity is a positive constant; Build cannot reject it
		panic(err)
	}
	return &Resolver{cache: cache}
}

// Resolve locates the manifest above dir and returns its settings, creating
// the metadata section with the default docs-path when missing. Dry runs
// read but never write; a missing manifest is an error either way.
func (r *Resolver) Resolve(dir string, dryRun bool) (Settings, error) {
	mdir, err := Find(dir)
	if err != nil {
		return Settings{}, err
	}
	if s, ok := r.cache.Get(mdir); ok {
		return s, nil
	}
	v, err, _ := r.group.Do(mdir, func() (interface{}, error) {
		if s, ok := r.cache.Get(mdir); ok {
			return s, nil
		}
		s, complete, err := readOrCreate(mdir, dryRun)
		if err != nil {
			return Settings{}, err
		}
		// A dry run that skipped writing the default docs-path must not
		// be cached, or a later real run would never insert it.
		if complete || !dryRun {
			r.cache.Set(mdir, s)
		}
		return s, nil
	})
	if err != nil {
		return Settings{}, err
	}
	return v.(Settings), nil
}

// readOrCreate parses the metadata section and, when docs-path is absent,
// inserts it (into an existing section, or as a new section at the end).
// The second return reports whether the manifest already named a docs-path.
func readOrCreate(mdir string, dryRun bool) (Settings, bool, error) {
	path := filepath.Join(mdir, manifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, false, fmt.Errorf("read manifest %s: %w", path, err)
	}

	parsed := parseManifest(string(data))
	docsRel := parsed.docsPath
	complete := docsRel != ""
	if docsRel == "" {
		docsRel = DefaultDocsPath
		if !dryRun {
			updated := insertDocsPath(string(data), parsed)
			if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
				return Settings{}, false, fmt.Errorf("update manifest %s: %w", path, err)
			}
		}
	}
	settings := Settings{
		DocsRel:  docsRel,
		DocsRoot: filepath.Join(mdir, filepath.FromSlash(docsRel)),
		Mode:     ModeManifest,
		CfgAttr:  parsed.cfgAttr,
	}
	return settings, complete, nil
}

type parsedManifest struct {
	docsPath    string
	cfgAttr     string
	sectionLine int // 0-based line of the section header, -1 when absent
}

// parseManifest scans for the metadata section. Line-based on purpose:
// writing back through a TOML round trip would reformat the whole file.
func parseManifest(text string) parsedManifest {
	p := parsedManifest{sectionLine: -1}
	inSection := false
	for i, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") {
			inSection = trimmed == sectionName
			if inSection {
				p.sectionLine = i
			}
			continue
		}
		if !inSection {
			continue
		}
		if key, value, ok := parseKeyValue(trimmed); ok {
			switch key {
			case docsPathKey:
				p.docsPath = value
			case cfgAttrKey:
				p.cfgAttr = value
			}
		}
	}
	return p
}

// parseKeyValue handles `key = "value"` with optional quotes and trailing
// comments.
func parseKeyValue(line string) (string, string, bool) {
	eq := strings.IndexByte(line, '=')
	if eq < 0 {
		return "", "", false
	}
	key := strings.TrimSpace(line[:eq])
	value := strings.TrimSpace(line[eq+1:])
	if key == "" || value == "" {
		return "", "", false
	}
	if strings.HasPrefix(value, `"`) {
		end := strings.IndexByte(value[1:], '"')
		if end < 0 {
			return "", "", false
		}
		return key, value[1 : 1+end], true
	}
	if hash := strings.IndexByte(value, '#'); hash >= 0 {
		value = strings.TrimSpace(value[:hash])
	}
	return key, value, value != ""
}

// insertDocsPath adds the default docs-path: right after an existing section
// header, or as a fresh section at the end of the file.
func insertDocsPath(text string, p parsedManifest) string {
	keyLine := fmt.Sprintf("%s = %q", docsPathKey, DefaultDocsPath)
	if p.sectionLine >= 0 {
		lines := strings.Split(text, "\n")
		out := make([]string, 0, len(lines)+1)
		out = append(out, lines[:p.sectionLine+1]...)
		out = append(out, keyLine)
		out = append(out, lines[p.sectionLine+1:]...)
		return strings.Join(out, "\n")
	}
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return text + "\n" + sectionName + "\n" + keyLine + "\n"
}
