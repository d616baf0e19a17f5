package rewrite

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/exodoc/exodoc/internal/extract"
	"github.com/exodoc/exodoc/internal/source"
)

// Restore is the inverse migration: markdown content flows back into the
// source as doc comments and reference attributes come out. Items whose
// markdown file does not exist keep whatever docs they have. The returned
// text may equal the original; callers compare before writing back.
func Restore(f *source.File, docsRoot string) (string, error) {
	var edits []edit

	// file-level module docs
	content, found, err := readDoc(extract.BuildPath(docsRoot, nil, extract.ModulePath(f.Path)))
	if err != nil {
		return "", err
	}
	for _, a := range f.InnerAttrs {
		if source.IsReference(a) || (found && content != "" && source.IsDoc(a)) {
			sp := widenAttrSpan(f.Source, a.Span)
			edits = append(edits, edit{start: sp.Start, end: sp.End})
		}
	}
	if found && content != "" {
		pos := moduleInsertPos(f.Source)
		edits = append(edits, edit{start: pos, end: pos, text: docCommentText(content, "", "//!")})
	}

	claimed := make(map[string]struct{})
	claimPaths(f.Items, nil, docsRoot, claimed)

	if err := restoreItems(f, f.Items, nil, docsRoot, claimed, &edits); err != nil {
		return "", err
	}
	return applyEdits(f.Source, edits), nil
}

// claimPaths records the markdown paths owned by declarations other than
// impl blocks. An impl block shares its type's path; when the type is
// declared in the same file the docs belong on the type, and the impl only
// sheds its reference.
func claimPaths(items []*source.Item, ctx []string, root string, claimed map[string]struct{}) {
	for _, it := range items {
		if !it.Named() {
			continue
		}
		if it.Kind != source.KindImplBlock {
			claimed[extract.BuildPath(root, ctx, it.Name)] = struct{}{}
		}
		if it.Kind == source.KindModule {
			claimPaths(it.Children, appendCtx(ctx, it.Name), root, claimed)
		}
	}
}

func restoreItems(f *source.File, items []*source.Item, ctx []string, root string, claimed map[string]struct{}, edits *[]edit) error {
	for _, it := range items {
		if !it.Named() {
			continue
		}
		path := extract.BuildPath(root, ctx, it.Name)
		var content string
		var found bool
		_, deferred := claimed[path]
		if it.Kind != source.KindImplBlock || !deferred {
			var err error
			content, found, err = readDoc(path)
			if err != nil {
				return err
			}
		}
		restoreAttrs(f, it.Attrs, it.Span.Start, content, found, edits)

		switch it.Kind {
		case source.KindModule, source.KindImplBlock, source.KindTrait:
			if err := restoreItems(f, it.Children, appendCtx(ctx, it.Name), root, claimed, edits); err != nil {
				return err
			}
		case source.KindEnum:
			ectx := appendCtx(ctx, it.Name)
			for _, v := range it.Variants {
				content, found, err := readDoc(extract.BuildPath(root, ectx, v.Name))
				if err != nil {
					return err
				}
				restoreAttrs(f, v.Attrs, v.Span.Start, content, found, edits)
				if len(v.Fields) > 0 {
					if err := restoreFields(f, v.Fields, appendCtx(ectx, v.Name), root, edits); err != nil {
						return err
					}
				}
			}
		case source.KindStruct:
			if err := restoreFields(f, it.Fields, appendCtx(ctx, it.Name), root, edits); err != nil {
				return err
			}
		}
	}
	return nil
}

func restoreFields(f *source.File, fields []source.Field, ctx []string, root string, edits *[]edit) error {
	for _, fd := range fields {
		if fd.Name == "" {
			continue
		}
		content, found, err := readDoc(extract.BuildPath(root, ctx, fd.Name))
		if err != nil {
			return err
		}
		restoreAttrs(f, fd.Attrs, fd.Span.Start, content, found, edits)
	}
	return nil
}

// restoreAttrs deletes reference attributes, and when markdown content was
// found, replaces the existing docs with freshly injected doc comments.
func restoreAttrs(f *source.File, attrs []source.Attr, insertAt uint, content string, found bool, edits *[]edit) {
	inject := found && content != ""
	for _, a := range attrs {
		if source.IsReference(a) || (inject && source.IsDoc(a)) {
			sp := widenAttrSpan(f.Source, a.Span)
			*edits = append(*edits, edit{start: sp.Start, end: sp.End})
		}
	}
	if inject {
		indent := lineIndent(f.Source, insertAt)
		*edits = append(*edits, edit{start: insertAt, end: insertAt, text: docCommentText(content, indent, "///")})
	}
}

// readDoc reads one markdown file. Absence is not an error: the item simply
// has no external docs.
func readDoc(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return strings.TrimSpace(string(data)), true, nil
}

// docCommentText renders content as doc comment lines ready to splice in at
// an indented position: continuation lines and the displaced declaration both
// get the indent.
func docCommentText(content, indent, marker string) string {
	lines := strings.Split(content, "\n")
	out := make([]string, len(lines))
	for i, line := range lines {
		if line == "" {
			out[i] = marker
		} else {
			out[i] = marker + " " + line
		}
	}
	return strings.Join(out, "\n"+indent) + "\n" + indent
}

func appendCtx(ctx []string, name string) []string {
	next := make([]string, len(ctx)+1)
	copy(next, ctx)
	next[len(ctx)] = name
	return next
}
