package markup

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/vango-dev/vtree/pkg/vdom"
)

// Handler receives tokenizer events in document order.
type Handler interface {
	OnOpenTag(name string, attrs map[string]string)
	OnText(text string)
	OnCloseTag(name string)
}

// Position is a 1-based line and column in the template source.
type Position struct {
	Line   int
	Column int
}

// positionSetter is implemented by handlers that want source positions.
// The tokenizer calls SetPosition before each event.
type positionSetter interface {
	SetPosition(Position)
}

// Tokenizer pushes markup events to a Handler.
type Tokenizer interface {
	Tokenize(src io.Reader, h Handler) error
}

// controlAlias replaces the @ sigil of control tags. An HTML5 tokenizer
// treats "<@" as text, so the source is rewritten before tokenizing and the
// names are mapped back when events are emitted.
const controlAlias = "vtree-control-"

// HTMLTokenizer is a Tokenizer backed by golang.org/x/net/html.
// Tag and attribute names are lowercased; character references in text and
// attribute values are decoded. Comments and doctypes are skipped.
type HTMLTokenizer struct{}

// Tokenize implements Tokenizer.
func (HTMLTokenizer) Tokenize(src io.Reader, h Handler) error {
	raw, err := io.ReadAll(src)
	if err != nil {
		return err
	}
	raw = bytes.ReplaceAll(raw, []byte("</@"), []byte("</"+controlAlias))
	raw = bytes.ReplaceAll(raw, []byte("<@"), []byte("<"+controlAlias))

	ps, _ := h.(positionSetter)
	pos := Position{Line: 1, Column: 1}

	z := html.NewTokenizer(bytes.NewReader(raw))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() == io.EOF {
				return nil
			}
			return z.Err()
		}

		tokenRaw := z.Raw()
		if ps != nil {
			ps.SetPosition(pos)
		}
		start := pos
		pos = advance(pos, tokenRaw)

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, attrs := readTag(z)
			h.OnOpenTag(name, attrs)
			if tt == html.SelfClosingTagToken || vdom.IsVoidElement(name) {
				if ps != nil {
					ps.SetPosition(start)
				}
				h.OnCloseTag(name)
			}
		case html.EndTagToken:
			nameBytes, _ := z.TagName()
			name := unalias(string(nameBytes))
			if vdom.IsVoidElement(name) {
				continue
			}
			h.OnCloseTag(name)
		case html.TextToken:
			h.OnText(string(z.Text()))
		}
	}
}

func readTag(z *html.Tokenizer) (string, map[string]string) {
	nameBytes, hasAttr := z.TagName()
	name := unalias(string(nameBytes))
	attrs := make(map[string]string)
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		attrs[string(key)] = string(val)
	}
	return name, attrs
}

func unalias(name string) string {
	if strings.HasPrefix(name, controlAlias) {
		return "@" + name[len(controlAlias):]
	}
	return name
}

// advance moves pos past raw, undoing the width added by control aliases.
func advance(pos Position, raw []byte) Position {
	for len(raw) > 0 {
		if bytes.HasPrefix(raw, []byte(controlAlias)) {
			raw = raw[len(controlAlias):]
			pos.Column++
			continue
		}
		if raw[0] == '\n' {
			pos.Line++
			pos.Column = 1
		} else if raw[0]&0xC0 != 0x80 {
			pos.Column++
		}
		raw = raw[1:]
	}
	return pos
}
