package render

import (
	"strconv"
	"strings"
)

// escape writes s with HTML special characters replaced. In attribute
// context, whitespace that could break attribute parsing is escaped too.
func escape(b *strings.Builder, s string, attr bool) {
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&#39;")
		case '\n', '\r', '\t':
			if attr {
				b.WriteString("&#")
				b.WriteString(strconv.Itoa(int(r)))
				b.WriteByte(';')
			} else {
				b.WriteRune(r)
			}
		default:
			b.WriteRune(r)
		}
	}
}

// EscapeText escapes s for use as element content.
func EscapeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	escape(&b, s, false)
	return b.String()
}

// EscapeAttr escapes s for use inside a double-quoted attribute value.
func EscapeAttr(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	escape(&b, s, true)
	return b.String()
}
