package manifest

// Test Plan for Manifest Resolution:
// - Find walks up to the nearest Cargo.toml
// - Resolve reads docs-path and cfg-attr from an existing section
// - Resolve creates the section when absent, exactly once
// - Resolve inserts docs-path into an existing section, keys untouched
// - Dry runs return defaults without writing
// - Concurrent resolves dedupe through singleflight and the cache
// - Key/value parsing tolerates spacing, comments, quoting

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "Cargo.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// Test: Find climbs from a nested source directory to the manifest.
func TestFind(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeManifest(t, dir, "[package]\nname = \"demo\"\n")
	sub := filepath.Join(dir, "src", "nested")
	require.NoError(t, os.MkdirAll(sub, 0755))

	got, err := Find(sub)
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}

// Test: no manifest anywhere above is ErrNotFound.
func TestFind_NotFound(t *testing.T) {
	t.Parallel()

	_, err := Find(t.TempDir())
	assert.ErrorIs(t, err, ErrNotFound)
}

// Test: an existing section resolves without touching the file.
func TestResolve_ReadsExistingSection(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := `[package]
name = "demo"

[package.metadata.exodoc]
docs-path = "documentation"
cfg-attr = "docsrs"
`
	path := writeManifest(t, dir, content)

	s, err := NewResolver().Resolve(dir, false)
	require.NoError(t, err)
	assert.Equal(t, "documentation", s.DocsRel)
	assert.Equal(t, filepath.Join(dir, "documentation"), s.DocsRoot)
	assert.Equal(t, ModeManifest, s.Mode)
	assert.Equal(t, "docsrs", s.CfgAttr)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(after))
}

// Test: a missing section is appended with the default, once.
func TestResolve_CreatesSection(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeManifest(t, dir, "[package]\nname = \"demo\"\n")

	s, err := NewResolver().Resolve(dir, false)
	require.NoError(t, err)
	assert.Equal(t, DefaultDocsPath, s.DocsRel)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[package]\nname = \"demo\"\n\n[package.metadata.exodoc]\ndocs-path = \"docs\"\n", string(after))

	// a second run with a fresh resolver reads instead of re-creating
	_, err = NewResolver().Resolve(dir, false)
	require.NoError(t, err)
	again, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(again), "[package.metadata.exodoc]"))
}

// Test: docs-path slots into an existing section above its other keys.
func TestResolve_InsertsIntoExistingSection(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeManifest(t, dir, `[package]
name = "demo"

[package.metadata.exodoc]
cfg-attr = "docsrs"
`)

	s, err := NewResolver().Resolve(dir, false)
	require.NoError(t, err)
	assert.Equal(t, DefaultDocsPath, s.DocsRel)
	assert.Equal(t, "docsrs", s.CfgAttr)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `[package]
name = "demo"

[package.metadata.exodoc]
docs-path = "docs"
cfg-attr = "docsrs"
`, string(after))
}

// Test: dry runs never mutate the manifest.
func TestResolve_DryRunNeverWrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := "[package]\nname = \"demo\"\n"
	path := writeManifest(t, dir, content)

	r := NewResolver()
	s, err := r.Resolve(dir, true)
	require.NoError(t, err)
	assert.Equal(t, DefaultDocsPath, s.DocsRel)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(after))

	// a real run through the same resolver still inserts the section
	_, err = r.Resolve(dir, false)
	require.NoError(t, err)
	after, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(after), "[package.metadata.exodoc]")
}

// Test: concurrent workers resolving one crate create the section once.
func TestResolve_ConcurrentCreatesOnce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeManifest(t, dir, "[package]\nname = \"demo\"\n")
	r := NewResolver()

	var wg sync.WaitGroup
	results := make([]Settings, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := r.Resolve(dir, false)
			assert.NoError(t, err)
			results[i] = s
		}(i)
	}
	wg.Wait()

	for _, s := range results {
		assert.Equal(t, DefaultDocsPath, s.DocsRel)
	}
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(after), "[package.metadata.exodoc]"))
}

// Test: explicit docs root bypasses the manifest.
func TestInlineSettings(t *testing.T) {
	t.Parallel()

	s, err := InlineSettings("docs")
	require.NoError(t, err)
	assert.Equal(t, "docs", s.DocsRel)
	assert.Equal(t, ModeInlinePaths, s.Mode)
	assert.True(t, filepath.IsAbs(s.DocsRoot))
}

// Test: key/value spellings the scanner accepts.
func TestParseKeyValue(t *testing.T) {
	t.Parallel()

	cases := []struct {
		line  string
		key   string
		value string
		ok    bool
	}{
		{`docs-path = "x"`, "docs-path", "x", true},
		{`docs-path="y"`, "docs-path", "y", true},
		{`docs-path = z  # trailing comment`, "docs-path", "z", true},
		{`docs-path = "with # hash"`, "docs-path", "with # hash", true},
		{`just a line`, "", "", false},
		{`empty =`, "", "", false},
	}
	for _, tc := range cases {
		key, value, ok := parseKeyValue(tc.line)
		assert.Equal(t, tc.ok, ok, tc.line)
		if tc.ok {
			assert.Equal(t, tc.key, key, tc.line)
			assert.Equal(t, tc.value, value, tc.line)
		}
	}
}
