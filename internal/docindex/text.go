package docindex

import (
	"strings"

	gm "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	gmparser "github.com/gomarkdown/markdown/parser"
)

// markdownText parses markdown and returns the first heading plus the plain
// text of every leaf node. Formatting is noise to the tokenizer; headings,
// prose, and code block contents all stay searchable.
func markdownText(src []byte) (title string, text string) {
	doc := gm.Parse(src, gmparser.NewWithExtensions(
		gmparser.CommonExtensions|gmparser.Autolink,
	))

	var b strings.Builder
	ast.WalkFunc(doc, func(n ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		if heading, ok := n.(*ast.Heading); ok && title == "" {
			title = nodeText(heading)
		}
		if leaf := n.AsLeaf(); leaf != nil && len(leaf.Literal) > 0 {
			b.Write(leaf.Literal)
			b.WriteByte(' ')
		}
		return ast.GoToNext
	})
	return title, strings.TrimSpace(b.String())
}

// nodeText collects the literal text under one AST node.
func nodeText(node ast.Node) string {
	var b strings.Builder
	ast.WalkFunc(node, func(n ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		if leaf := n.AsLeaf(); leaf != nil && len(leaf.Literal) > 0 {
			b.Write(leaf.Literal)
		}
		return ast.GoToNext
	})
	return strings.TrimSpace(b.String())
}
