package render

import (
	"io"
	"strings"
	"sync"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"

	"github.com/vango-dev/vtree/pkg/vdom"
)

// Options configures the HTML renderer.
type Options struct {
	// Pretty writes one element per line, indented by depth.
	Pretty bool

	// Indent is the string used for each indentation level in pretty mode.
	// Defaults to two spaces.
	Indent string

	// Minify runs the output through the HTML minifier. Pretty is ignored
	// when Minify is set.
	Minify bool
}

// Renderer writes resolved trees as HTML.
type Renderer struct {
	opts Options
}

// NewRenderer creates a Renderer.
func NewRenderer(opts Options) *Renderer {
	if opts.Indent == "" {
		opts.Indent = "  "
	}
	if opts.Minify {
		opts.Pretty = false
	}
	return &Renderer{opts: opts}
}

// String renders nodes with default options.
func String(nodes []*vdom.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		writeNode(&b, n, 0, Options{})
	}
	return b.String()
}

// RenderToString renders the sibling list nodes.
func (r *Renderer) RenderToString(nodes []*vdom.Node) (string, error) {
	var b strings.Builder
	for _, n := range nodes {
		writeNode(&b, n, 0, r.opts)
	}
	if !r.opts.Minify {
		return b.String(), nil
	}
	return getMinifier().String("text/html", b.String())
}

// RenderToWriter renders nodes to w.
func (r *Renderer) RenderToWriter(w io.Writer, nodes []*vdom.Node) error {
	s, err := r.RenderToString(nodes)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, s)
	return err
}

func writeNode(b *strings.Builder, n *vdom.Node, depth int, opts Options) {
	if n == nil {
		return
	}
	if opts.Pretty {
		b.WriteString(strings.Repeat(opts.Indent, depth))
	}
	b.WriteByte('<')
	b.WriteString(n.Tag)
	for _, k := range n.AttrNames() {
		if k == "key" {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(k)
		if v := n.Attrs[k]; v != "" {
			b.WriteString(`="`)
			escape(b, v, true)
			b.WriteByte('"')
		}
	}
	b.WriteByte('>')

	if vdom.IsVoidElement(n.Tag) {
		if opts.Pretty {
			b.WriteByte('\n')
		}
		return
	}

	escape(b, n.Text, false)
	if len(n.Children) > 0 {
		if opts.Pretty {
			b.WriteByte('\n')
		}
		for _, c := range n.Children {
			writeNode(b, c, depth+1, opts)
		}
		if opts.Pretty {
			b.WriteString(strings.Repeat(opts.Indent, depth))
		}
	}
	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteByte('>')
	if opts.Pretty {
		b.WriteByte('\n')
	}
}

var (
	minifier     *minify.M
	minifierOnce sync.Once
)

// getMinifier returns the shared HTML minifier. End and document tags are
// kept so a minified document has the same element structure.
func getMinifier() *minify.M {
	minifierOnce.Do(func() {
		minifier = minify.New()
		minifier.Add("text/html", &html.Minifier{
			KeepEndTags:      true,
			KeepDocumentTags: true,
		})
	})
	return minifier
}
