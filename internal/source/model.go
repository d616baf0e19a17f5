// Package source models Rust source files as a tree of documentable items.
// Items keep byte spans into the original text so rewrites can splice edits
// while re-emitting every untouched byte verbatim.
package source

// Kind identifies the declaration shape of an item. The set is closed:
// anything not listed is Other and passes through untouched.
type Kind int

const (
	KindFunction Kind = iota
	KindImplBlock
	KindModule
	KindTrait
	KindEnum
	KindStruct
	KindTypeAlias
	KindConst
	KindStatic
	KindOther
)

// String returns the lowercase kind name used in reports and the ledger.
func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindImplBlock:
		return "impl"
	case KindModule:
		return "module"
	case KindTrait:
		return "trait"
	case KindEnum:
		return "enum"
	case KindStruct:
		return "struct"
	case KindTypeAlias:
		return "type"
	case KindConst:
		return "const"
	case KindStatic:
		return "static"
	default:
		return "other"
	}
}

// Span is a half-open byte range [Start, End) into File.Source.
type Span struct {
	Start uint
	End   uint
}

// Attr is one attribute entry: a #[...] or #![...] attribute item, or a doc
// comment (///, //!, /** */, /*! */). Text is the exact original token text;
// classification happens lazily over it.
type Attr struct {
	Span  Span
	Text  string
	Inner bool
	Line  int
}

// Field is a named struct or struct-variant field.
type Field struct {
	Name  string
	Attrs []Attr
	Span  Span
	Line  int
}

// Variant is one enum variant. Fields is non-empty only for struct variants.
type Variant struct {
	Name   string
	Attrs  []Attr
	Fields []Field
	Span   Span
	Line   int
}

// Item is one declaration. Span covers the declaration including its outer
// attributes and doc comments, so inserting at Span.Start places text before
// everything the item owns.
type Item struct {
	Kind       Kind
	Name       string
	Attrs      []Attr
	InnerAttrs []Attr // module bodies only
	Children   []*Item
	Variants   []Variant
	Fields     []Field
	Span       Span
	Line       int
}

// Named reports whether the item can anchor a documentation path.
func (it *Item) Named() bool {
	return it.Kind != KindOther && it.Name != ""
}

// HasBody reports whether the kind owns child items.
func (k Kind) HasBody() bool {
	switch k {
	case KindModule, KindImplBlock, KindTrait:
		return true
	default:
		return false
	}
}

// File is a parsed source file. Source is retained in full so callers can
// short-circuit rewrites that produce identical text.
type File struct {
	Path       string
	Source     []byte
	Items      []*Item
	InnerAttrs []Attr // file-level #![...] and //! entries
}

// Text returns the span's slice of the original source.
func (f *File) Text(s Span) string {
	return string(f.Source[s.Start:s.End])
}
