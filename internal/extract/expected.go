package extract

import (
	"path/filepath"

	"github.com/exodoc/exodoc/internal/source"
)

// ExpectedPaths returns every markdown path the file's items can anchor,
// documented or not: the surface touch fills with placeholders and restore
// reads back. Duplicates (a struct and its impl share a path) collapse.
func ExpectedPaths(f *source.File, root string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	add(filepath.Join(root, ModulePath(f.Path)+".md"))
	expectItems(f.Items, nil, root, add)
	return out
}

func expectItems(items []*source.Item, ctx []string, root string, add func(string)) {
	for _, it := range items {
		if !it.Named() {
			continue
		}
		add(BuildPath(root, ctx, it.Name))
		switch it.Kind {
		case source.KindModule, source.KindImplBlock, source.KindTrait:
			expectItems(it.Children, push(ctx, it.Name), root, add)
		case source.KindEnum:
			ectx := push(ctx, it.Name)
			for _, v := range it.Variants {
				add(BuildPath(root, ectx, v.Name))
				if len(v.Fields) > 0 {
					vctx := push(ectx, v.Name)
					for _, fd := range v.Fields {
						if fd.Name != "" {
							add(BuildPath(root, vctx, fd.Name))
						}
					}
				}
			}
		case source.KindStruct:
			sctx := push(ctx, it.Name)
			for _, fd := range it.Fields {
				if fd.Name != "" {
					add(BuildPath(root, sctx, fd.Name))
				}
			}
		}
	}
}
