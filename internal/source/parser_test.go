package source

// Test Plan for Rust Source Parser:
// - Lower a representative file: structs, impls, enums, modules, use decls
// - Attach doc comments and attribute items to the following declaration
// - Collect file-level inner doc attributes
// - End line doc comment attributes at the text, not the newline
// - Resolve impl block names to the implementing type, trait impls included
// - Nest enum variants, struct fields, and struct-variant fields
// - Keep non-documentable declarations opaque (Other)
// - Report syntax errors as *ParseError with a line number

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const calcSrc = `//! Math helpers.

use std::fmt;

/// A calculator.
#[derive(Debug)]
pub struct Calculator {
    /// Accumulated value.
    pub value: i64,
}

impl Calculator {
    /// Adds two numbers.
    pub fn add(&self, a: i64, b: i64) -> i64 {
        a + b
    }
}

impl fmt::Display for Calculator {
    fn fmt(&self, f: &mut fmt::Formatter<'_>) -> fmt::Result {
        write!(f, "{}", self.value)
    }
}

/// Processing status.
pub enum Status {
    /// All good.
    Ok,
    /// Something failed.
    Error,
}

pub mod inner {
    /// Inner helper.
    pub fn helper() {}
}
`

// Test: representative file lowers to the expected item sequence.
func TestParse_ItemTree(t *testing.T) {
	t.Parallel()

	f, err := Parse("src/lib.rs", []byte(calcSrc))
	require.NoError(t, err)
	require.Len(t, f.Items, 6)

	assert.Equal(t, KindOther, f.Items[0].Kind)

	st := f.Items[1]
	assert.Equal(t, KindStruct, st.Kind)
	assert.Equal(t, "Calculator", st.Name)
	require.Len(t, st.Attrs, 2)
	assert.Equal(t, "/// A calculator.", st.Attrs[0].Text)
	assert.Equal(t, "#[derive(Debug)]", st.Attrs[1].Text)
	require.Len(t, st.Fields, 1)
	assert.Equal(t, "value", st.Fields[0].Name)
	require.Len(t, st.Fields[0].Attrs, 1)
	assert.Equal(t, "/// Accumulated value.", st.Fields[0].Attrs[0].Text)

	imp := f.Items[2]
	assert.Equal(t, KindImplBlock, imp.Kind)
	assert.Equal(t, "Calculator", imp.Name)
	require.Len(t, imp.Children, 1)
	assert.Equal(t, KindFunction, imp.Children[0].Kind)
	assert.Equal(t, "add", imp.Children[0].Name)
	require.Len(t, imp.Children[0].Attrs, 1)
	assert.Equal(t, "/// Adds two numbers.", imp.Children[0].Attrs[0].Text)

	traitImpl := f.Items[3]
	assert.Equal(t, KindImplBlock, traitImpl.Kind)
	assert.Equal(t, "Calculator", traitImpl.Name)
	require.Len(t, traitImpl.Children, 1)
	assert.Equal(t, "fmt", traitImpl.Children[0].Name)

	en := f.Items[4]
	assert.Equal(t, KindEnum, en.Kind)
	assert.Equal(t, "Status", en.Name)
	require.Len(t, en.Variants, 2)
	assert.Equal(t, "Ok", en.Variants[0].Name)
	assert.Equal(t, "Error", en.Variants[1].Name)
	require.Len(t, en.Variants[1].Attrs, 1)
	assert.Equal(t, "/// Something failed.", en.Variants[1].Attrs[0].Text)

	mod := f.Items[5]
	assert.Equal(t, KindModule, mod.Kind)
	assert.Equal(t, "inner", mod.Name)
	require.Len(t, mod.Children, 1)
	assert.Equal(t, "helper", mod.Children[0].Name)
}

// Test: file-level //! entries land in InnerAttrs, not on the first item.
func TestParse_FileInnerDocs(t *testing.T) {
	t.Parallel()

	f, err := Parse("src/lib.rs", []byte(calcSrc))
	require.NoError(t, err)

	require.Len(t, f.InnerAttrs, 1)
	assert.Equal(t, "//! Math helpers.", f.InnerAttrs[0].Text)
	assert.True(t, f.InnerAttrs[0].Inner)
	assert.Equal(t, 1, f.InnerAttrs[0].Line)
}

// Test: item spans start at the first attached attribute and cover the body.
func TestParse_SpansIncludeAttrs(t *testing.T) {
	t.Parallel()

	f, err := Parse("src/lib.rs", []byte(calcSrc))
	require.NoError(t, err)

	st := f.Items[1]
	text := f.Text(st.Span)
	assert.True(t, strings.HasPrefix(text, "/// A calculator."), "span should start at the doc comment, got %q", text)
	assert.True(t, strings.HasSuffix(text, "}"))
	assert.Equal(t, 7, st.Line, "declaration line, not attribute line")
	assert.Equal(t, 5, st.Attrs[0].Line)
}

// Test: line doc comments end at the comment text, newline excluded, so
// consecutive lines join cleanly and spans match their text.
func TestParse_LineCommentExcludesNewline(t *testing.T) {
	t.Parallel()

	f, err := Parse("src/lib.rs", []byte("/// first line\n/// second line\npub fn add() {}\n"))
	require.NoError(t, err)
	require.Len(t, f.Items, 1)

	attrs := f.Items[0].Attrs
	require.Len(t, attrs, 2)
	assert.Equal(t, "/// first line", attrs[0].Text)
	assert.Equal(t, "/// second line", attrs[1].Text)
	for _, a := range attrs {
		assert.Equal(t, a.Text, f.Text(a.Span))
	}

	crlf, err := Parse("src/lib.rs", []byte("/// windows line\r\npub fn f() {}\r\n"))
	require.NoError(t, err)
	require.Len(t, crlf.Items, 1)
	require.Len(t, crlf.Items[0].Attrs, 1)
	assert.Equal(t, "/// windows line", crlf.Items[0].Attrs[0].Text)
}

// Test: doc comments before non-documentable declarations fold into the
// opaque span instead of becoming attributes.
func TestParse_StrayDocsStayOpaque(t *testing.T) {
	t.Parallel()

	f, err := Parse("src/lib.rs", []byte("/// stray\nuse std::fmt;\n"))
	require.NoError(t, err)

	require.Len(t, f.Items, 1)
	it := f.Items[0]
	assert.Equal(t, KindOther, it.Kind)
	assert.Empty(t, it.Attrs)
	assert.Equal(t, "/// stray\nuse std::fmt;", f.Text(it.Span))
}

// Test: trait bodies lower method signatures, default methods, associated
// consts and types.
func TestParse_TraitMembers(t *testing.T) {
	t.Parallel()

	src := `pub trait Measure {
    /// Unit label.
    const UNIT: &'static str;
    /// Output type.
    type Output;
    /// Computes the measure.
    fn measure(&self) -> Self::Output;
    /// Formats a value.
    fn describe(&self) -> String {
        String::from("measure")
    }
}
`
	f, err := Parse("src/lib.rs", []byte(src))
	require.NoError(t, err)
	require.Len(t, f.Items, 1)

	tr := f.Items[0]
	assert.Equal(t, KindTrait, tr.Kind)
	assert.Equal(t, "Measure", tr.Name)
	require.Len(t, tr.Children, 4)
	assert.Equal(t, KindConst, tr.Children[0].Kind)
	assert.Equal(t, "UNIT", tr.Children[0].Name)
	assert.Equal(t, KindTypeAlias, tr.Children[1].Kind)
	assert.Equal(t, "Output", tr.Children[1].Name)
	assert.Equal(t, KindFunction, tr.Children[2].Kind)
	assert.Equal(t, "measure", tr.Children[2].Name)
	assert.Equal(t, KindFunction, tr.Children[3].Kind)
	assert.Equal(t, "describe", tr.Children[3].Name)
}

// Test: struct variants expose their named fields one level down.
func TestParse_StructVariantFields(t *testing.T) {
	t.Parallel()

	src := `pub enum Shape {
    /// A circle.
    Circle {
        /// Radius in meters.
        radius: f64,
    },
    /// Nothing.
    Empty,
}
`
	f, err := Parse("src/lib.rs", []byte(src))
	require.NoError(t, err)
	require.Len(t, f.Items, 1)

	en := f.Items[0]
	require.Len(t, en.Variants, 2)
	circle := en.Variants[0]
	assert.Equal(t, "Circle", circle.Name)
	require.Len(t, circle.Fields, 1)
	assert.Equal(t, "radius", circle.Fields[0].Name)
	require.Len(t, circle.Fields[0].Attrs, 1)
	assert.Equal(t, "/// Radius in meters.", circle.Fields[0].Attrs[0].Text)
	assert.Empty(t, en.Variants[1].Fields)
}

// Test: tuple and unit structs carry no named fields.
func TestParse_TupleAndUnitStructs(t *testing.T) {
	t.Parallel()

	f, err := Parse("src/lib.rs", []byte("pub struct Point(i32, i32);\npub struct Marker;\n"))
	require.NoError(t, err)
	require.Len(t, f.Items, 2)
	assert.Equal(t, "Point", f.Items[0].Name)
	assert.Empty(t, f.Items[0].Fields)
	assert.Equal(t, "Marker", f.Items[1].Name)
	assert.Empty(t, f.Items[1].Fields)
}

// Test: impl name resolution peels generics, references, and paths.
func TestParse_ImplTypeNames(t *testing.T) {
	t.Parallel()

	cases := []struct {
		src  string
		want string
	}{
		{"impl Calculator {}", "Calculator"},
		{"impl<T> Wrapper<T> {}", "Wrapper"},
		{"impl foo::bar::Engine {}", "Engine"},
		{"impl<'a> Parser<'a> {}", "Parser"},
		{"impl std::fmt::Display for config::Settings {}", "Settings"},
	}
	for _, tc := range cases {
		f, err := Parse("src/lib.rs", []byte(tc.src))
		require.NoError(t, err, tc.src)
		require.Len(t, f.Items, 1, tc.src)
		assert.Equal(t, tc.want, f.Items[0].Name, tc.src)
	}
}

// Test: nested module bodies carry their own inner attributes.
func TestParse_ModuleInnerAttrs(t *testing.T) {
	t.Parallel()

	src := `mod engine {
    //! Engine internals.
    pub fn run() {}
}
`
	f, err := Parse("src/lib.rs", []byte(src))
	require.NoError(t, err)
	require.Len(t, f.Items, 1)

	mod := f.Items[0]
	require.Len(t, mod.InnerAttrs, 1)
	assert.Equal(t, "//! Engine internals.", mod.InnerAttrs[0].Text)
	require.Len(t, mod.Children, 1)
	assert.Equal(t, "run", mod.Children[0].Name)
}

// Test: broken syntax surfaces as *ParseError and no File.
func TestParse_SyntaxError(t *testing.T) {
	t.Parallel()

	f, err := Parse("src/bad.rs", []byte("pub fn broken(\n"))
	require.Error(t, err)
	assert.Nil(t, f)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "src/bad.rs", perr.File)
	assert.Contains(t, perr.Error(), "src/bad.rs")
}

// Test: parsing twice yields identical trees (no hidden state).
func TestParse_Deterministic(t *testing.T) {
	t.Parallel()

	a, err := Parse("src/lib.rs", []byte(calcSrc))
	require.NoError(t, err)
	b, err := Parse("src/lib.rs", []byte(calcSrc))
	require.NoError(t, err)

	require.Equal(t, len(a.Items), len(b.Items))
	for i := range a.Items {
		assert.Equal(t, a.Items[i].Kind, b.Items[i].Kind)
		assert.Equal(t, a.Items[i].Name, b.Items[i].Name)
		assert.Equal(t, a.Items[i].Span, b.Items[i].Span)
	}
}
