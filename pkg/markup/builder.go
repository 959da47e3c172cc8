package markup

import (
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// TextPolicy controls how text events are normalized.
type TextPolicy uint8

const (
	// TextCollapse trims the text and collapses internal whitespace runs to
	// a single space. Whitespace-only text is dropped.
	TextCollapse TextPolicy = iota
	// TextTrim only trims leading and trailing whitespace.
	TextTrim
	// TextPreserve keeps text exactly as tokenized.
	TextPreserve
)

// String returns the policy name used in configuration files.
func (p TextPolicy) String() string {
	switch p {
	case TextCollapse:
		return "collapse"
	case TextTrim:
		return "trim"
	case TextPreserve:
		return "preserve"
	default:
		return "unknown"
	}
}

// ParseTextPolicy parses a policy name. The empty string means TextCollapse.
func ParseTextPolicy(s string) (TextPolicy, bool) {
	switch s {
	case "", "collapse":
		return TextCollapse, true
	case "trim":
		return TextTrim, true
	case "preserve":
		return TextPreserve, true
	}
	return TextCollapse, false
}

// Options configures a Builder.
type Options struct {
	// File names the template in error locations.
	File string

	// Text is the whitespace policy for text payloads.
	Text TextPolicy

	// NormalizeUnicode applies NFC normalization to text payloads so that
	// canonically equivalent strings compare equal when diffing.
	NormalizeUnicode bool
}

// frame is one entry of the open-element stack.
type frame struct {
	name  string     // tag name as written, for matching the close event
	node  *vdom.Node // element receiving text and children
	outer *vdom.Node // outermost node linked into the parent (a wrapper in attribute form)
	pos   Position
}

// Builder is a Handler that builds a vdom.Tree. Use Build or BuildFrom.
type Builder struct {
	opts  Options
	src   string
	nodes vdom.Nodes
	stack []frame
	pos   Position
	err   error
}

// NewBuilder creates a Builder. src is only used to quote source lines in
// errors and may be empty.
func NewBuilder(opts Options, src string) *Builder {
	return &Builder{opts: opts, src: src}
}

// Build tokenizes src with HTMLTokenizer and builds the tree.
func Build(src string, opts Options) (*vdom.Tree, error) {
	return BuildFrom(HTMLTokenizer{}, src, opts)
}

// BuildFrom builds the tree with the given tokenizer.
func BuildFrom(tok Tokenizer, src string, opts Options) (*vdom.Tree, error) {
	b := NewBuilder(opts, src)
	if err := tok.Tokenize(strings.NewReader(src), b); err != nil {
		if b.err != nil {
			return nil, b.err
		}
		return nil, errors.New("E104").Wrap(err)
	}
	return b.Finish()
}

// BuildReader reads the whole template from r and builds it.
func BuildReader(r io.Reader, opts Options) (*vdom.Tree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.New("E104").Wrap(err)
	}
	return Build(string(src), opts)
}

// SetPosition records the position of the next event.
func (b *Builder) SetPosition(p Position) {
	b.pos = p
}

// OnOpenTag implements Handler.
func (b *Builder) OnOpenTag(name string, attrs map[string]string) {
	if b.err != nil {
		return
	}

	node := vdom.NewNode(name, attrs)
	outer := node
	if !node.IsControl() {
		outer = b.wrapDirectives(node)
	}
	if b.err != nil {
		return
	}
	if node.IsControl() {
		b.checkControl(node)
	}

	if len(b.stack) > 0 {
		b.stack[len(b.stack)-1].node.AppendChild(outer)
	}
	outer.Walk(func(n *vdom.Node) bool {
		b.nodes = append(b.nodes, n)
		return true
	})
	b.stack = append(b.stack, frame{name: name, node: node, outer: outer, pos: b.pos})
}

// wrapDirectives turns @foreach / @if attributes into control nodes that
// wrap n. The loop wraps the condition, so conditions see loop variables.
func (b *Builder) wrapDirectives(n *vdom.Node) *vdom.Node {
	outer := n
	if cond, ok := n.Attrs[vdom.TagIf]; ok {
		delete(n.Attrs, vdom.TagIf)
		wrapper := vdom.NewNode(vdom.TagIf, map[string]string{"condition": cond})
		b.checkControl(wrapper)
		wrapper.AppendChild(outer)
		outer = wrapper
	}
	if target, ok := n.Attrs[vdom.TagForeach]; ok {
		delete(n.Attrs, vdom.TagForeach)
		loop := map[string]string{"target": target}
		for _, k := range []string{"target", "key", "value"} {
			if v, ok := n.Attrs[k]; ok {
				if v != "" || k != "target" {
					loop[k] = v
				}
				delete(n.Attrs, k)
			}
		}
		wrapper := vdom.NewNode(vdom.TagForeach, loop)
		b.checkControl(wrapper)
		wrapper.AppendChild(outer)
		outer = wrapper
	}
	n.Refresh()
	return outer
}

func (b *Builder) checkControl(n *vdom.Node) {
	required := "condition"
	if n.Tag == vdom.TagForeach {
		required = "target"
	}
	if strings.TrimSpace(n.Attrs[required]) == "" {
		b.fail(errors.New("E105").WithDetailf("%s requires a %q attribute", n.Tag, required))
	}
}

// OnText implements Handler. Text outside any element is dropped.
func (b *Builder) OnText(text string) {
	if b.err != nil || len(b.stack) == 0 {
		return
	}
	text = b.normalize(text)
	if text == "" {
		return
	}
	top := b.stack[len(b.stack)-1].node
	switch {
	case top.Text == "":
		top.Text = text
	case b.opts.Text == TextPreserve:
		top.Text += text
	default:
		top.Text += " " + text
	}
}

func (b *Builder) normalize(text string) string {
	switch b.opts.Text {
	case TextTrim:
		text = strings.TrimSpace(text)
	case TextPreserve:
	default:
		text = strings.Join(strings.Fields(text), " ")
	}
	if b.opts.NormalizeUnicode {
		text = norm.NFC.String(text)
	}
	return text
}

// OnCloseTag implements Handler.
func (b *Builder) OnCloseTag(name string) {
	if b.err != nil {
		return
	}
	if len(b.stack) == 0 {
		b.fail(errors.New("E102").WithDetailf("</%s> has no open element", name))
		return
	}
	top := b.stack[len(b.stack)-1]
	if top.name != name {
		b.fail(errors.New("E103").
			WithDetailf("expected </%s> for the element opened at %d:%d, found </%s>",
				top.name, top.pos.Line, top.pos.Column, name).
			WithSuggestion("Close elements in the reverse order they were opened"))
		return
	}
	b.stack = b.stack[:len(b.stack)-1]
}

func (b *Builder) fail(err *errors.Error) {
	if b.err == nil {
		b.err = err.WithSource(b.opts.File, b.src, b.pos.Line, b.pos.Column)
	}
}

// Finish validates the end of stream and returns the tree.
func (b *Builder) Finish() (*vdom.Tree, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.stack) > 0 {
		top := b.stack[len(b.stack)-1]
		b.pos = top.pos
		b.fail(errors.New("E101").
			WithDetailf("<%s> opened at %d:%d was never closed", top.name, top.pos.Line, top.pos.Column))
		return nil, b.err
	}
	return &vdom.Tree{Nodes: b.nodes}, nil
}
