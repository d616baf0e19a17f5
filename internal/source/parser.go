package source

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
)

// ParseError reports a file whose syntax tree contains errors. The caller
// records it and skips the file; the run continues.
type ParseError struct {
	File   string
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s:%d: %s", e.File, e.Line, e.Reason)
}

var rustLanguage = sitter.NewLanguage(rust.Language())

// Parse lowers Rust source into the item model. The returned File keeps the
// source bytes; every item and attribute carries spans into them.
func Parse(path string, src []byte) (*File, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	parser.SetLanguage(rustLanguage)

	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, &ParseError{File: path, Line: 1, Reason: "no syntax tree produced"}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		line, reason := firstSyntaxError(root)
		return nil, &ParseError{File: path, Line: line, Reason: reason}
	}

	f := &File{Path: path, Source: src}
	f.Items, f.InnerAttrs = lowerBody(root, src)
	return f, nil
}

// firstSyntaxError locates the first error or missing node for the message.
func firstSyntaxError(root *sitter.Node) (int, string) {
	line, reason := int(root.StartPosition().Row)+1, "syntax error"
	found := false
	walkNodes(root, func(n *sitter.Node) bool {
		if found {
			return false
		}
		if n.IsMissing() {
			line, reason = int(n.StartPosition().Row)+1, fmt.Sprintf("missing %q", n.Kind())
			found = true
			return false
		}
		if n.IsError() {
			line = int(n.StartPosition().Row) + 1
			found = true
			return false
		}
		return true
	})
	return line, reason
}

func walkNodes(node *sitter.Node, visit func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !visit(node) {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walkNodes(node.Child(uint(i)), visit)
	}
}

// lowerBody walks the children of a source file or declaration list.
// Attribute items and outer doc comments accumulate until the declaration
// they belong to; inner entries collect separately. Plain comments are
// trivia: they stay in the source and never enter the model.
func lowerBody(container *sitter.Node, src []byte) ([]*Item, []Attr) {
	var items []*Item
	var inners []Attr
	var pending []Attr

	for i := 0; i < int(container.ChildCount()); i++ {
		n := container.Child(uint(i))
		if !n.IsNamed() {
			continue
		}
		switch n.Kind() {
		case "attribute_item":
			pending = append(pending, attrFromNode(n, src, false))
		case "inner_attribute_item":
			inners = append(inners, attrFromNode(n, src, true))
		case "line_comment", "block_comment":
			text := nodeText(n, src)
			switch {
			case isOuterDocComment(text):
				pending = append(pending, attrFromNode(n, src, false))
			case isInnerDocComment(text):
				inners = append(inners, attrFromNode(n, src, true))
			}
		default:
			it := lowerItem(n, src)
			attachPending(it, pending)
			pending = nil
			items = append(items, it)
		}
	}
	if len(pending) > 0 {
		// Attributes with no declaration after them. Keep the bytes opaque.
		items = append(items, &Item{
			Kind: KindOther,
			Span: Span{Start: pending[0].Span.Start, End: pending[len(pending)-1].Span.End},
			Line: pending[0].Line,
		})
	}
	return items, inners
}

// attachPending gives accumulated entries to the declaration. Other items
// absorb them into their span instead: attributes on non-documentable code
// pass through byte-identically.
func attachPending(it *Item, pending []Attr) {
	if len(pending) == 0 {
		return
	}
	if pending[0].Span.Start < it.Span.Start {
		it.Span.Start = pending[0].Span.Start
	}
	if it.Kind != KindOther {
		it.Attrs = pending
	}
}

func lowerItem(n *sitter.Node, src []byte) *Item {
	it := &Item{
		Kind: KindOther,
		Span: Span{Start: n.StartByte(), End: n.EndByte()},
		Line: int(n.StartPosition().Row) + 1,
	}
	switch n.Kind() {
	case "function_item", "function_signature_item":
		it.Kind = KindFunction
		it.Name = fieldText(n, "name", src)
	case "impl_item":
		it.Kind = KindImplBlock
		it.Name = implTypeName(n.ChildByFieldName("type"), src)
		if body := n.ChildByFieldName("body"); body != nil {
			it.Children, _ = lowerBody(body, src)
		}
	case "mod_item":
		it.Kind = KindModule
		it.Name = fieldText(n, "name", src)
		if body := n.ChildByFieldName("body"); body != nil {
			it.Children, it.InnerAttrs = lowerBody(body, src)
		}
	case "trait_item":
		it.Kind = KindTrait
		it.Name = fieldText(n, "name", src)
		if body := n.ChildByFieldName("body"); body != nil {
			it.Children, _ = lowerBody(body, src)
		}
	case "enum_item":
		it.Kind = KindEnum
		it.Name = fieldText(n, "name", src)
		if body := n.ChildByFieldName("body"); body != nil {
			it.Variants = lowerVariants(body, src)
		}
	case "struct_item":
		it.Kind = KindStruct
		it.Name = fieldText(n, "name", src)
		if body := n.ChildByFieldName("body"); body != nil && body.Kind() == "field_declaration_list" {
			it.Fields = lowerFields(body, src)
		}
	case "type_item", "associated_type":
		it.Kind = KindTypeAlias
		it.Name = fieldText(n, "name", src)
	case "const_item":
		it.Kind = KindConst
		it.Name = fieldText(n, "name", src)
	case "static_item":
		it.Kind = KindStatic
		it.Name = fieldText(n, "name", src)
	}
	return it
}

// lowerVariants walks an enum_variant_list. Attribute items and doc comments
// inside the list precede the variant they document.
func lowerVariants(list *sitter.Node, src []byte) []Variant {
	var variants []Variant
	var pending []Attr

	for i := 0; i < int(list.ChildCount()); i++ {
		n := list.Child(uint(i))
		if !n.IsNamed() {
			continue
		}
		switch n.Kind() {
		case "attribute_item":
			pending = append(pending, attrFromNode(n, src, false))
		case "line_comment", "block_comment":
			if text := nodeText(n, src); isOuterDocComment(text) {
				pending = append(pending, attrFromNode(n, src, false))
			}
		case "enum_variant":
			v := Variant{
				Name:  fieldText(n, "name", src),
				Attrs: pending,
				Span:  Span{Start: n.StartByte(), End: n.EndByte()},
				Line:  int(n.StartPosition().Row) + 1,
			}
			if len(pending) > 0 && pending[0].Span.Start < v.Span.Start {
				v.Span.Start = pending[0].Span.Start
			}
			if body := n.ChildByFieldName("body"); body != nil && body.Kind() == "field_declaration_list" {
				v.Fields = lowerFields(body, src)
			}
			pending = nil
			variants = append(variants, v)
		}
	}
	return variants
}

// lowerFields walks a field_declaration_list. Tuple fields have no names and
// stay opaque; only named fields can anchor documentation.
func lowerFields(list *sitter.Node, src []byte) []Field {
	var fields []Field
	var pending []Attr

	for i := 0; i < int(list.ChildCount()); i++ {
		n := list.Child(uint(i))
		if !n.IsNamed() {
			continue
		}
		switch n.Kind() {
		case "attribute_item":
			pending = append(pending, attrFromNode(n, src, false))
		case "line_comment", "block_comment":
			if text := nodeText(n, src); isOuterDocComment(text) {
				pending = append(pending, attrFromNode(n, src, false))
			}
		case "field_declaration":
			f := Field{
				Name:  fieldText(n, "name", src),
				Attrs: pending,
				Span:  Span{Start: n.StartByte(), End: n.EndByte()},
				Line:  int(n.StartPosition().Row) + 1,
			}
			if len(pending) > 0 && pending[0].Span.Start < f.Span.Start {
				f.Span.Start = pending[0].Span.Start
			}
			pending = nil
			fields = append(fields, f)
		}
	}
	return fields
}

// implTypeName resolves the rightmost identifier of the implementing type,
// peeling generics, references, and path qualifiers. `impl Display for
// Calculator` and `impl foo::Calculator<T>` both yield Calculator.
func implTypeName(n *sitter.Node, src []byte) string {
	if n == nil {
		return "Unknown"
	}
	switch n.Kind() {
	case "type_identifier", "primitive_type":
		return nodeText(n, src)
	case "generic_type":
		return implTypeName(n.ChildByFieldName("type"), src)
	case "scoped_type_identifier":
		return implTypeName(n.ChildByFieldName("name"), src)
	case "reference_type", "pointer_type":
		return implTypeName(n.ChildByFieldName("type"), src)
	case "dynamic_type":
		return implTypeName(n.ChildByFieldName("trait"), src)
	}
	return "Unknown"
}

func attrFromNode(n *sitter.Node, src []byte, inner bool) Attr {
	end := n.EndByte()
	// tree-sitter-rust line_comment spans run through the terminating
	// newline; the attribute owns only the comment text.
	if n.Kind() == "line_comment" {
		if end > n.StartByte() && src[end-1] == '\n' {
			end--
			if end > n.StartByte() && src[end-1] == '\r' {
				end--
			}
		}
	}
	return Attr{
		Span:  Span{Start: n.StartByte(), End: end},
		Text:  string(src[n.StartByte():end]),
		Inner: inner,
		Line:  int(n.StartPosition().Row) + 1,
	}
}

func fieldText(n *sitter.Node, field string, src []byte) string {
	c := n.ChildByFieldName(field)
	if c == nil {
		return ""
	}
	return nodeText(c, src)
}

func nodeText(n *sitter.Node, src []byte) string {
	return string(src[n.StartByte():n.EndByte()])
}

func isOuterDocComment(t string) bool {
	if strings.HasPrefix(t, "///") {
		return !strings.HasPrefix(t, "////")
	}
	return strings.HasPrefix(t, "/**") && !strings.HasPrefix(t, "/***") &&
		strings.HasSuffix(t, "*/") && len(t) >= 5
}

func isInnerDocComment(t string) bool {
	if strings.HasPrefix(t, "//!") {
		return true
	}
	return strings.HasPrefix(t, "/*!") && strings.HasSuffix(t, "*/") && len(t) >= 5
}
