package migrate

// Test Plan for Discovery:
// - Default globs find .rs files, sorted, and skip target and .git
// - Root-level files without a path separator still match **/ patterns
// - Custom excludes replace the defaults
// - The tool's own state directory is never scanned
// - A root that is a file is returned as-is
// - Invalid glob patterns fail construction

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func discover(t *testing.T, root string, include, exclude []string) []string {
	t.Helper()
	d, err := NewDiscovery(root, include, exclude)
	require.NoError(t, err)
	files, err := d.Files()
	require.NoError(t, err)
	return files
}

// Test: defaults pick up every .rs file outside target and .git, in sorted
// order with absolute paths.
func TestDiscovery_FindsRustSources(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"build.rs":            "fn main() {}",
		"src/lib.rs":          "",
		"src/util/mod.rs":     "",
		"target/debug/gen.rs": "",
		".git/hook.rs":        "",
		"README.md":           "# readme",
	})

	files := discover(t, root, nil, nil)
	assert.Equal(t, []string{
		filepath.Join(root, "build.rs"),
		filepath.Join(root, "src", "lib.rs"),
		filepath.Join(root, "src", "util", "mod.rs"),
	}, files)
}

// Test: custom excludes replace the defaults entirely.
func TestDiscovery_CustomExcludes(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"src/lib.rs":       "",
		"vendor/dep.rs":    "",
		"target/old/x.rs":  "",
		"examples/demo.rs": "",
	})

	files := discover(t, root, nil, []string{"vendor/**", "examples/**"})
	assert.Equal(t, []string{
		filepath.Join(root, "src", "lib.rs"),
		filepath.Join(root, "target", "old", "x.rs"),
	}, files)
}

// Test: .exodoc is ignored even with excludes disabled.
func TestDiscovery_SkipsWorkDir(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"src/lib.rs":        "",
		".exodoc/cached.rs": "",
	})

	files := discover(t, root, nil, []string{})
	assert.Equal(t, []string{filepath.Join(root, "src", "lib.rs")}, files)
}

// Test: pointing the pipeline at one file skips the walk.
func TestDiscovery_SingleFileRoot(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"src/lib.rs": ""})
	target := filepath.Join(root, "src", "lib.rs")

	assert.Equal(t, []string{target}, discover(t, target, nil, nil))
}

// Test: a missing root fails Files, not construction.
func TestDiscovery_MissingRoot(t *testing.T) {
	t.Parallel()

	d, err := NewDiscovery(filepath.Join(t.TempDir(), "absent"), nil, nil)
	require.NoError(t, err)
	_, err = d.Files()
	assert.Error(t, err)
}

// Test: a bad glob is rejected up front.
func TestDiscovery_InvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := NewDiscovery(t.TempDir(), []string{"[unclosed"}, nil)
	assert.Error(t, err)
}
