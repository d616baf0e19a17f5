package rewrite

// Test Plan for Restore:
// - Markdown content returns as /// doc comments, references come out
// - Multi-line content with blank lines renders /// and bare /// markers
// - Module docs return as //! at the top of the file
// - Items without markdown keep their current docs, lose only references
// - Existing inline docs are replaced when markdown exists
// - Replacing docs on an indented method keeps the method's indentation
// - Nested items read from their context path with matching indentation
// - Empty placeholder files remove references without injecting
// - Impl blocks defer shared type docs to the declaring item in the file
// - Migrate then restore reproduces the original doc comments exactly

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exodoc/exodoc/internal/extract"
)

func writeDoc(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func restoreText(t *testing.T, src, root string) string {
	t.Helper()
	out, err := Restore(parseSrc(t, src), root)
	require.NoError(t, err)
	return out
}

// Test: single-item restore injects the markdown and drops the reference.
func TestRestore_InjectsDocComments(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeDoc(t, root, "add.md", "Restored line.")

	out := restoreText(t, "#[exodoc::docs]\npub fn add() {}\n", root)
	assert.Equal(t, "/// Restored line.\npub fn add() {}\n", out)
}

// Test: blank markdown lines become bare /// markers.
func TestRestore_MultilineContent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeDoc(t, root, "add.md", "Line one.\n\nLine two.")

	out := restoreText(t, "#[exodoc::docs]\npub fn add() {}\n", root)
	assert.Equal(t, "/// Line one.\n///\n/// Line two.\npub fn add() {}\n", out)
}

// Test: module markdown returns as //! and the module reference is removed.
func TestRestore_ModuleDocs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeDoc(t, root, "lib.md", "Crate level.")

	out := restoreText(t, "#![doc = exodoc::module_docs!()]\n\npub fn f() {}\n", root)
	assert.Equal(t, "//! Crate level.\n\npub fn f() {}\n", out)
}

// Test: no markdown means existing docs stay put.
func TestRestore_KeepsDocsWhenNoMarkdown(t *testing.T) {
	t.Parallel()

	out := restoreText(t, "/// Original.\n#[exodoc::docs]\npub fn add() {}\n", t.TempDir())
	assert.Equal(t, "/// Original.\npub fn add() {}\n", out)
}

// Test: markdown wins over stale inline docs.
func TestRestore_ReplacesExistingDocs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeDoc(t, root, "add.md", "New.")

	out := restoreText(t, "/// Old.\npub fn add() {}\n", root)
	assert.Equal(t, "/// New.\npub fn add() {}\n", out)
}

// Test: impl methods restore from the implementing type's directory with
// their own indentation.
func TestRestore_NestedImplMethod(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeDoc(t, root, "Calculator/add.md", "Adds things.")

	out := restoreText(t, "impl Calculator {\n    pub fn add(&self) {}\n}\n", root)
	assert.Equal(t, "impl Calculator {\n    /// Adds things.\n    pub fn add(&self) {}\n}\n", out)
}

// Test: replacing the docs of an indented impl method keeps the method
// line's indentation intact.
func TestRestore_ReplacesIndentedMethodDocs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeDoc(t, root, "Calculator/add.md", "New.")

	src := "impl Calculator {\n    /// Old.\n    pub fn add(&self) {}\n}\n"
	out := restoreText(t, src, root)
	assert.Equal(t, "impl Calculator {\n    /// New.\n    pub fn add(&self) {}\n}\n", out)
}

// Test: enum variants restore from Type/Variant.md.
func TestRestore_VariantDocs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeDoc(t, root, "Status/Error.md", "Failure case.")

	out := restoreText(t, "pub enum Status {\n    Ok,\n    Error,\n}\n", root)
	assert.Equal(t, "pub enum Status {\n    Ok,\n    /// Failure case.\n    Error,\n}\n", out)
}

// Test: an empty placeholder removes the reference and injects nothing.
func TestRestore_EmptyPlaceholder(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeDoc(t, root, "add.md", "")

	out := restoreText(t, "#[exodoc::docs]\n/// Kept.\npub fn add() {}\n", root)
	assert.Equal(t, "/// Kept.\npub fn add() {}\n", out)
}

// Test: migrate then restore reproduces the original source exactly.
// Test: a type declared in the same file owns the shared markdown path, so
// the impl block loses its reference but gains no doc comment.
func TestRestore_ImplSharesTypePath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeDoc(t, root, "Calc.md", "A calc.")
	writeDoc(t, root, filepath.Join("Calc", "add.md"), "Adds.")

	src := "#[exodoc::docs]\npub struct Calc {}\n\n#[exodoc::docs]\nimpl Calc {\n    pub fn add(&self) {}\n}\n"
	want := "/// A calc.\npub struct Calc {}\n\nimpl Calc {\n    /// Adds.\n    pub fn add(&self) {}\n}\n"
	assert.Equal(t, want, restoreText(t, src, root))
}

// Test: an impl block for a type declared elsewhere receives the type docs.
func TestRestore_LoneImplGetsTypeDocs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeDoc(t, root, "Calc.md", "Calc docs.")

	src := "#[exodoc::docs]\nimpl Calc {\n    pub fn add(&self) {}\n}\n"
	want := "/// Calc docs.\nimpl Calc {\n    pub fn add(&self) {}\n}\n"
	assert.Equal(t, want, restoreText(t, src, root))
}

func TestRestore_RoundTripsMigration(t *testing.T) {
	t.Parallel()

	src := "/// first line\n/// second line\npub fn add() {}\n"
	root := t.TempDir()

	parsed := parseSrc(t, src)
	for _, rec := range extract.All(parsed, root) {
		rel, err := filepath.Rel(root, rec.Path)
		require.NoError(t, err)
		writeDoc(t, root, rel, rec.Content)
	}

	migrated, ok := Apply(parsed, Options{Strip: true, Annotate: true})
	require.True(t, ok)
	assert.Equal(t, "#[exodoc::docs]\npub fn add() {}\n", migrated)

	assert.Equal(t, src, restoreText(t, migrated, root))
}
