// Package extract walks parsed files and derives documentation records.
// Path derivation lives here and is shared by migration, touch, and restore
// so the three can never disagree about where an item's markdown lives.
package extract

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/exodoc/exodoc/internal/source"
)

// Extraction is one migrated documentation record: markdown destination,
// content, and the source location it came from. Records are immutable once
// produced.
type Extraction struct {
	Path    string
	Content string
	File    string
	Line    int
	Kind    string
	Item    string
}

// Origin formats the source location for reports and the ledger.
func (e Extraction) Origin() string {
	return fmt.Sprintf("%s:%d", e.File, e.Line)
}

// All extracts every documentation record from the file, depth first, in
// source order. Running it twice on the same file yields identical records.
func All(f *source.File, root string) []Extraction {
	var out []Extraction
	if content, ok := docContent(f.InnerAttrs); ok {
		mp := ModulePath(f.Path)
		out = append(out, Extraction{
			Path:    filepath.Join(root, mp+".md"),
			Content: content,
			File:    f.Path,
			Line:    firstDocLine(f.InnerAttrs),
			Kind:    "module",
			Item:    mp,
		})
	}
	walkItems(f, f.Items, nil, root, &out)
	return out
}

func walkItems(f *source.File, items []*source.Item, ctx []string, root string, out *[]Extraction) {
	for _, it := range items {
		if !it.Named() {
			continue
		}
		if content, ok := docContent(itemDocAttrs(it)); ok {
			*out = append(*out, Extraction{
				Path:    BuildPath(root, ctx, it.Name),
				Content: content,
				File:    f.Path,
				Line:    it.Line,
				Kind:    it.Kind.String(),
				Item:    joinItem(ctx, it.Name),
			})
		}
		switch it.Kind {
		case source.KindModule, source.KindImplBlock, source.KindTrait:
			walkItems(f, it.Children, push(ctx, it.Name), root, out)
		case source.KindEnum:
			walkVariants(f, it, push(ctx, it.Name), root, out)
		case source.KindStruct:
			walkFields(f, it.Fields, push(ctx, it.Name), root, out)
		}
	}
}

func walkVariants(f *source.File, en *source.Item, ctx []string, root string, out *[]Extraction) {
	for _, v := range en.Variants {
		if content, ok := docContent(v.Attrs); ok {
			*out = append(*out, Extraction{
				Path:    BuildPath(root, ctx, v.Name),
				Content: content,
				File:    f.Path,
				Line:    v.Line,
				Kind:    "variant",
				Item:    joinItem(ctx, v.Name),
			})
		}
		if len(v.Fields) > 0 {
			walkFields(f, v.Fields, push(ctx, v.Name), root, out)
		}
	}
}

func walkFields(f *source.File, fields []source.Field, ctx []string, root string, out *[]Extraction) {
	for _, fd := range fields {
		if fd.Name == "" {
			continue
		}
		if content, ok := docContent(fd.Attrs); ok {
			*out = append(*out, Extraction{
				Path:    BuildPath(root, ctx, fd.Name),
				Content: content,
				File:    f.Path,
				Line:    fd.Line,
				Kind:    "field",
				Item:    joinItem(ctx, fd.Name),
			})
		}
	}
}

// docContent joins the documentation literals of an attribute list: one
// leading space stripped per entry, entries joined with newlines, the whole
// trimmed. Internal blank lines survive. ok is false when no entry carries
// documentation.
func docContent(attrs []source.Attr) (string, bool) {
	var lines []string
	for _, a := range attrs {
		text, ok := source.DocText(a)
		if !ok {
			continue
		}
		lines = append(lines, strings.TrimPrefix(text, " "))
	}
	if len(lines) == 0 {
		return "", false
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), true
}

// itemDocAttrs merges a module's body-level inner docs after its outer docs
// so stripping the body never loses content.
func itemDocAttrs(it *source.Item) []source.Attr {
	if len(it.InnerAttrs) == 0 {
		return it.Attrs
	}
	merged := make([]source.Attr, 0, len(it.Attrs)+len(it.InnerAttrs))
	merged = append(merged, it.Attrs...)
	merged = append(merged, it.InnerAttrs...)
	return merged
}

// BuildPath derives the markdown path for an item: output root, one
// directory per context entry, item name. Pure function of its inputs.
func BuildPath(root string, ctx []string, name string) string {
	parts := make([]string, 0, len(ctx)+2)
	parts = append(parts, root)
	parts = append(parts, ctx...)
	parts = append(parts, name+".md")
	return filepath.Join(parts...)
}

// ModulePath derives a file's doc identity from its location under src/:
// src/lib.rs -> lib, src/a/b.rs -> a/b, src/foo/mod.rs -> foo. Files outside
// src/ use their stem.
func ModulePath(p string) string {
	s := strings.TrimSuffix(filepath.ToSlash(p), ".rs")
	if i := strings.LastIndex(s, "/src/"); i >= 0 {
		s = s[i+len("/src/"):]
	} else if strings.HasPrefix(s, "src/") {
		s = strings.TrimPrefix(s, "src/")
	} else {
		s = path.Base(s)
	}
	return strings.TrimSuffix(s, "/mod")
}

func push(ctx []string, name string) []string {
	next := make([]string, len(ctx)+1)
	copy(next, ctx)
	next[len(ctx)] = name
	return next
}

func joinItem(ctx []string, name string) string {
	if len(ctx) == 0 {
		return name
	}
	return strings.Join(ctx, "/") + "/" + name
}

func firstDocLine(attrs []source.Attr) int {
	for _, a := range attrs {
		if source.IsDoc(a) {
			return a.Line
		}
	}
	return 1
}
