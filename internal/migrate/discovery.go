package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// workDirName is the tool's own state directory, never scanned.
const workDirName = ".exodoc"

var (
	defaultInclude = []string{"**/*.rs"}
	defaultExclude = []string{"target/**", ".git/**"}
)

type compiledPattern struct {
	pattern string
	matcher glob.Glob
	// rootMatcher handles files directly under the root, whose relative
	// path has no separator and so never matches a **/ prefix.
	rootMatcher glob.Glob
}

// Discovery walks a root and returns the Rust sources that pass the
// include and exclude globs. Results are absolute and sorted so runs are
// reproducible.
type Discovery struct {
	root    string
	include []compiledPattern
	exclude []compiledPattern
}

func NewDiscovery(root string, include, exclude []string) (*Discovery, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}
	if len(include) == 0 {
		include = defaultInclude
	}
	if exclude == nil {
		exclude = defaultExclude
	}
	inc, err := compilePatterns(include)
	if err != nil {
		return nil, err
	}
	exc, err := compilePatterns(exclude)
	if err != nil {
		return nil, err
	}
	return &Discovery{root: abs, include: inc, exclude: exc}, nil
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, pattern := range patterns {
		matcher, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %s: %w", pattern, err)
		}
		cp := compiledPattern{pattern: pattern, matcher: matcher}
		if simplified, ok := strings.CutPrefix(pattern, "**/"); ok {
			rootMatcher, err := glob.Compile(simplified, '/')
			if err != nil {
				return nil, fmt.Errorf("invalid glob pattern %s: %w", pattern, err)
			}
			cp.rootMatcher = rootMatcher
		}
		compiled = append(compiled, cp)
	}
	return compiled, nil
}

// Files returns the matching sources. A root that is itself a file is
// returned as a single-element list, which lets watchers and the CLI point
// the pipeline at one source without a directory walk.
func (d *Discovery) Files() ([]string, error) {
	info, err := os.Stat(d.root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", d.root, err)
	}
	if !info.IsDir() {
		return []string{d.root}, nil
	}

	var files []string
	err = filepath.Walk(d.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if info.IsDir() {
			if rel != "." && d.excluded(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.excluded(rel) {
			return nil
		}
		if matchesAny(rel, d.include) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", d.root, err)
	}

	sort.Strings(files)
	return files, nil
}

func (d *Discovery) excluded(rel string) bool {
	if rel == workDirName || strings.HasPrefix(rel, workDirName+"/") {
		return true
	}
	if matchesAny(rel, d.exclude) {
		return true
	}
	// A bare directory name never matches its own dir/** pattern, so try
	// the path as if it had children.
	return matchesAny(rel+"/**", d.exclude)
}

func matchesAny(rel string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.matcher.Match(rel) {
			return true
		}
		if cp.rootMatcher != nil && !strings.Contains(rel, "/") && cp.rootMatcher.Match(rel) {
			return true
		}
	}
	return false
}
