// Package rewrite edits Rust source by splicing byte spans: documentation
// attributes are deleted, reference attributes inserted, and every byte in
// between re-emitted verbatim. The output of a rewrite parses to the same
// item tree minus documentation.
package rewrite

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/exodoc/exodoc/internal/source"
)

// Options select what a rewrite pass does. InlinePath, when set, embeds the
// docs root into reference attributes; empty means the build-time consumer
// resolves the root from the manifest. CfgAttr, when set, wraps references
// in #[cfg_attr(<predicate>, ...)].
type Options struct {
	Strip      bool
	Annotate   bool
	InlinePath string
	CfgAttr    string
}

// Apply rewrites the file. ok is false when neither flag is set: the caller
// leaves the file untouched. The returned text may still equal the input;
// callers compare against File.Source before writing back.
func Apply(f *source.File, opts Options) (string, bool) {
	if !opts.Strip && !opts.Annotate {
		return "", false
	}
	var edits []edit
	if opts.Annotate {
		collectAnnotate(f, opts, &edits)
	}
	if opts.Strip {
		for _, a := range f.InnerAttrs {
			appendDocDeletion(f.Source, a, &edits)
		}
		collectStrip(f.Source, f.Items, &edits)
	}
	return applyEdits(f.Source, edits), true
}

type edit struct {
	start, end uint
	text       string
}

// applyEdits splices the edit list into the source. Insertions at a position
// order before deletions starting there, so an injected attribute lands ahead
// of a span being removed.
func applyEdits(src []byte, edits []edit) string {
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].start != edits[j].start {
			return edits[i].start < edits[j].start
		}
		return edits[i].end < edits[j].end
	})
	var b strings.Builder
	b.Grow(len(src) + 64)
	pos := uint(0)
	for _, e := range edits {
		if e.start < pos {
			continue
		}
		b.Write(src[pos:e.start])
		b.WriteString(e.text)
		pos = e.end
	}
	b.Write(src[pos:])
	return b.String()
}

// collectStrip deletes every documentation-carrying entry, recursively:
// outer attributes, module body inner attributes, enum variants, struct and
// variant fields.
func collectStrip(src []byte, items []*source.Item, edits *[]edit) {
	for _, it := range items {
		for _, a := range it.Attrs {
			appendDocDeletion(src, a, edits)
		}
		for _, a := range it.InnerAttrs {
			appendDocDeletion(src, a, edits)
		}
		for _, v := range it.Variants {
			for _, a := range v.Attrs {
				appendDocDeletion(src, a, edits)
			}
			stripFields(src, v.Fields, edits)
		}
		stripFields(src, it.Fields, edits)
		collectStrip(src, it.Children, edits)
	}
}

func stripFields(src []byte, fields []source.Field, edits *[]edit) {
	for _, fd := range fields {
		for _, a := range fd.Attrs {
			appendDocDeletion(src, a, edits)
		}
	}
}

func appendDocDeletion(src []byte, a source.Attr, edits *[]edit) {
	if !source.IsDoc(a) {
		return
	}
	sp := widenAttrSpan(src, a.Span)
	*edits = append(*edits, edit{start: sp.Start, end: sp.End})
}

// collectAnnotate inserts one reference attribute per named top-level item,
// before its pre-existing attributes, indentation matched. Containers are
// not descended into: their reference covers the subtree. Items already
// referenced are left alone, which makes the pass idempotent.
func collectAnnotate(f *source.File, opts Options, edits *[]edit) {
	for _, it := range f.Items {
		if !it.Named() || hasReference(it.Attrs) {
			continue
		}
		indent := lineIndent(f.Source, it.Span.Start)
		*edits = append(*edits, edit{
			start: it.Span.Start,
			end:   it.Span.Start,
			text:  refAttr(opts) + "\n" + indent,
		})
	}
	if hasInnerDocs(f) && !hasModuleReference(f) {
		pos := moduleInsertPos(f.Source)
		*edits = append(*edits, edit{start: pos, end: pos, text: moduleRefAttr(opts) + "\n"})
	}
}

func hasReference(attrs []source.Attr) bool {
	for _, a := range attrs {
		if source.IsReference(a) {
			return true
		}
	}
	return false
}

func hasInnerDocs(f *source.File) bool {
	for _, a := range f.InnerAttrs {
		if source.IsDoc(a) {
			return true
		}
	}
	return false
}

func hasModuleReference(f *source.File) bool {
	return hasReference(f.InnerAttrs)
}

// refAttr renders the item reference attribute for the configured mode.
func refAttr(opts Options) string {
	inner := "exodoc::docs"
	if opts.InlinePath != "" {
		inner = fmt.Sprintf("exodoc::docs(path = %q)", opts.InlinePath)
	}
	if opts.CfgAttr != "" {
		return fmt.Sprintf("#[cfg_attr(%s, %s)]", opts.CfgAttr, inner)
	}
	return "#[" + inner + "]"
}

// moduleRefAttr renders the file-level reference injected when the file
// carried module documentation.
func moduleRefAttr(opts Options) string {
	call := "exodoc::module_docs!()"
	if opts.InlinePath != "" {
		call = fmt.Sprintf("exodoc::module_docs!(path = %q)", opts.InlinePath)
	}
	if opts.CfgAttr != "" {
		return fmt.Sprintf("#![cfg_attr(%s, doc = %s)]", opts.CfgAttr, call)
	}
	return fmt.Sprintf("#![doc = %s]", call)
}

// moduleInsertPos returns where a file-level attribute can go: byte 0, or
// just past a shebang line.
func moduleInsertPos(src []byte) uint {
	if len(src) >= 2 && src[0] == '#' && src[1] == '!' && !(len(src) >= 3 && src[2] == '[') {
		if i := bytes.IndexByte(src, '\n'); i >= 0 {
			return uint(i + 1)
		}
		return uint(len(src))
	}
	return 0
}

// widenAttrSpan grows an attribute span to consume its whole line when the
// attribute owns it: leading indentation and the trailing newline go too, so
// deletion leaves no blank residue. An attribute sharing its line with code
// only takes one following space.
func widenAttrSpan(src []byte, s source.Span) source.Span {
	lineStart := s.Start
	for lineStart > 0 && src[lineStart-1] != '\n' {
		lineStart--
	}
	prefixWS := true
	for i := lineStart; i < s.Start; i++ {
		if src[i] != ' ' && src[i] != '\t' {
			prefixWS = false
			break
		}
	}
	eol := s.End
	for eol < uint(len(src)) && (src[eol] == ' ' || src[eol] == '\t') {
		eol++
	}
	if eol < uint(len(src)) && src[eol] == '\r' {
		eol++
	}
	if prefixWS && eol >= uint(len(src)) {
		return source.Span{Start: lineStart, End: uint(len(src))}
	}
	if prefixWS && src[eol] == '\n' {
		return source.Span{Start: lineStart, End: eol + 1}
	}
	end := s.End
	if end < uint(len(src)) && src[end] == ' ' {
		end++
	}
	return source.Span{Start: s.Start, End: end}
}

// lineIndent returns the whitespace prefix of the line containing pos when
// pos sits right after it, otherwise "".
func lineIndent(src []byte, pos uint) string {
	start := pos
	for start > 0 && src[start-1] != '\n' {
		start--
	}
	for i := start; i < pos; i++ {
		if src[i] != ' ' && src[i] != '\t' {
			return ""
		}
	}
	return string(src[start:pos])
}
