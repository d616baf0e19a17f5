package source

import "strings"

// Attribute classification. A single predicate decides what counts as
// documentation so extraction, strip, and injection detection can never
// disagree: an entry is documentation-carrying iff DocText returns ok.

// ReferenceMarker is the path every reference attribute contains, in both the
// item form (exodoc::docs) and the module form (exodoc::module_docs).
const ReferenceMarker = "exodoc::"

// DocText returns the documentation literal carried by the entry. It handles
// doc comments, #[doc = "..."] in all literal spellings, and cfg_attr
// wrappers whose inner attribute is a literal doc form. Entries like
// #[doc(hidden)] or #[cfg_attr(test, derive(Debug))] carry no literal and
// return ok == false.
func DocText(a Attr) (string, bool) {
	t := a.Text
	switch {
	case strings.HasPrefix(t, "///"):
		if strings.HasPrefix(t, "////") {
			return "", false
		}
		return t[3:], true
	case strings.HasPrefix(t, "//!"):
		return t[3:], true
	case strings.HasPrefix(t, "/**"):
		if strings.HasPrefix(t, "/***") || !strings.HasSuffix(t, "*/") || len(t) < 5 {
			return "", false
		}
		return t[3 : len(t)-2], true
	case strings.HasPrefix(t, "/*!"):
		if !strings.HasSuffix(t, "*/") || len(t) < 5 {
			return "", false
		}
		return t[3 : len(t)-2], true
	case strings.HasPrefix(t, "#"):
		return attrDocText(t)
	}
	return "", false
}

// IsDoc reports whether the entry is documentation-carrying.
func IsDoc(a Attr) bool {
	_, ok := DocText(a)
	return ok
}

// IsReference reports whether the entry is one of our reference attributes,
// in plain, inline-path, or cfg_attr-wrapped spelling.
func IsReference(a Attr) bool {
	stripped := removeSpaces(a.Text)
	return strings.Contains(stripped, ReferenceMarker+"docs") ||
		strings.Contains(stripped, ReferenceMarker+"module_docs")
}

// attrDocText parses the inside of an attribute item. The scan is
// whitespace-tolerant because `# [ doc = "x" ]` is legal Rust.
func attrDocText(t string) (string, bool) {
	s := strings.TrimPrefix(t, "#")
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "!")
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return "", false
	}
	return metaDocText(s[1 : len(s)-1])
}

// metaDocText parses attribute meta content: either `doc = <lit>` or
// `cfg_attr(<pred>, <meta>)` with one level of recursion.
func metaDocText(s string) (string, bool) {
	s = strings.TrimSpace(s)
	ident, rest := scanIdent(s)
	switch ident {
	case "doc":
		rest = strings.TrimSpace(rest)
		if !strings.HasPrefix(rest, "=") {
			return "", false
		}
		return scanStringLit(strings.TrimSpace(rest[1:]))
	case "cfg_attr":
		rest = strings.TrimSpace(rest)
		if !strings.HasPrefix(rest, "(") || !strings.HasSuffix(rest, ")") {
			return "", false
		}
		inner := rest[1 : len(rest)-1]
		comma := topLevelComma(inner)
		if comma < 0 {
			return "", false
		}
		return metaDocText(inner[comma+1:])
	}
	return "", false
}

func scanIdent(s string) (string, string) {
	i := 0
	for i < len(s) {
		c := s[i]
		if c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || i > 0 && c >= '0' && c <= '9' {
			i++
			continue
		}
		break
	}
	return s[:i], s[i:]
}

// topLevelComma finds the first comma outside nested brackets and string
// literals, or -1.
func topLevelComma(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '"':
			end := findClosingQuote(s, i)
			if end < 0 {
				return -1
			}
			i = end
		case ',':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// findClosingQuote returns the index of the quote closing the string literal
// opened at s[open], skipping escaped quotes, or -1.
func findClosingQuote(s string, open int) int {
	for i := open + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

// scanStringLit decodes a Rust string literal at the start of s: `"..."` with
// escapes, or raw `r"..."` / `r#"..."#` forms taken verbatim.
func scanStringLit(s string) (string, bool) {
	if strings.HasPrefix(s, `"`) {
		end := findClosingQuote(s, 0)
		if end < 0 {
			return "", false
		}
		return unescapeRust(s[1:end]), true
	}
	if strings.HasPrefix(s, "r") {
		hashes := 0
		for hashes+1 < len(s) && s[hashes+1] == '#' {
			hashes++
		}
		body := s[1+hashes:]
		if !strings.HasPrefix(body, `"`) {
			return "", false
		}
		closer := `"` + strings.Repeat("#", hashes)
		end := strings.Index(body[1:], closer)
		if end < 0 {
			return "", false
		}
		return body[1 : 1+end], true
	}
	return "", false
}

// unescapeRust decodes the escape sequences Rust allows in ordinary string
// literals. Malformed sequences are kept as written rather than erroring:
// the text came from a file that already parsed.
func unescapeRust(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(s) {
			b.WriteByte(c)
			break
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case '\\':
			b.WriteByte('\\')
		case '0':
			b.WriteByte(0)
		case '\'':
			b.WriteByte('\'')
		case '"':
			b.WriteByte('"')
		case 'x':
			if i+2 < len(s) {
				if v, ok := hexVal(s[i+1 : i+3]); ok {
					b.WriteByte(byte(v))
					i += 2
					continue
				}
			}
			b.WriteString(`\x`)
		case 'u':
			if r, n, ok := scanUnicodeEscape(s[i+1:]); ok {
				b.WriteRune(r)
				i += n
				continue
			}
			b.WriteString(`\u`)
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// scanUnicodeEscape parses the `{NNNN}` tail of a \u escape and returns the
// rune and the number of bytes consumed after the 'u'.
func scanUnicodeEscape(s string) (rune, int, bool) {
	if !strings.HasPrefix(s, "{") {
		return 0, 0, false
	}
	end := strings.IndexByte(s, '}')
	if end < 1 || end > 7 {
		return 0, 0, false
	}
	var v uint32
	for _, c := range []byte(s[1:end]) {
		d, ok := hexDigit(c)
		if !ok {
			return 0, 0, false
		}
		v = v<<4 | uint32(d)
	}
	return rune(v), end + 1, true
}

func hexVal(s string) (uint8, bool) {
	hi, ok1 := hexDigit(s[0])
	lo, ok2 := hexDigit(s[1])
	if !ok1 || !ok2 {
		return 0, false
	}
	return hi<<4 | lo, true
}

func hexDigit(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func removeSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
}
