package markup

import (
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/vdom"
)

func mustBuild(t *testing.T, src string, opts Options) *vdom.Tree {
	t.Helper()
	tree, err := Build(src, opts)
	if err != nil {
		t.Fatalf("Build(%q) error = %v", src, err)
	}
	return tree
}

func TestBuildSimpleTree(t *testing.T) {
	tree := mustBuild(t, `<div id="app" class="a b"><p>Hello</p><p>World</p></div><span>x</span>`, Options{})

	if len(tree.Nodes) != 4 {
		t.Fatalf("Nodes = %d, want 4", len(tree.Nodes))
	}
	roots := tree.Roots()
	if len(roots) != 2 || roots[0].Tag != "div" || roots[1].Tag != "span" {
		t.Fatalf("Roots = %v", roots)
	}
	div := roots[0]
	if div.ID != "app" {
		t.Errorf("ID = %q, want app", div.ID)
	}
	if diff := cmp.Diff([]string{"a", "b"}, div.Class); diff != "" {
		t.Errorf("Class mismatch (-want +got):\n%s", diff)
	}
	if len(div.Children) != 2 || div.Children[1].Text != "World" {
		t.Errorf("children = %v", div.Children)
	}
	if div.Children[0].Parent != div {
		t.Error("child should point back at parent")
	}
}

func TestBuildTextPolicies(t *testing.T) {
	src := "<p>  hello \n\t  world  </p>"
	tests := []struct {
		policy TextPolicy
		want   string
	}{
		{TextCollapse, "hello world"},
		{TextTrim, "hello \n\t  world"},
		{TextPreserve, "  hello \n\t  world  "},
	}
	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			tree := mustBuild(t, src, Options{Text: tt.policy})
			if got := tree.Nodes[0].Text; got != tt.want {
				t.Errorf("Text = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildTextAroundChildrenIsFolded(t *testing.T) {
	tree := mustBuild(t, "<p>Hello <b>big</b> world</p>", Options{})
	p := tree.Roots()[0]
	if p.Text != "Hello world" {
		t.Errorf("Text = %q, want %q", p.Text, "Hello world")
	}
	if p.Children[0].Text != "big" {
		t.Errorf("child text = %q", p.Children[0].Text)
	}
}

func TestBuildWhitespaceOnlyTextDropped(t *testing.T) {
	tree := mustBuild(t, "<ul>\n  <li>a</li>\n</ul>", Options{})
	if tree.Roots()[0].Text != "" {
		t.Errorf("Text = %q, want empty", tree.Roots()[0].Text)
	}
}

func TestBuildNormalizeUnicode(t *testing.T) {
	decomposed := "<p>Cafe\u0301</p>"
	tree := mustBuild(t, decomposed, Options{NormalizeUnicode: true})
	if got := tree.Nodes[0].Text; got != "Caf\u00e9" {
		t.Errorf("Text = %q, want NFC form", got)
	}
}

func TestBuildEntitiesAndVoidElements(t *testing.T) {
	tree := mustBuild(t, `<p>a &amp; b<br>c<img src="x.png"/></p>`, Options{})
	p := tree.Roots()[0]
	if p.Text != "a & b c" {
		t.Errorf("Text = %q", p.Text)
	}
	if len(p.Children) != 2 || p.Children[0].Tag != "br" || p.Children[1].Attrs["src"] != "x.png" {
		t.Errorf("children = %v", p.Children)
	}
}

func TestBuildControlTags(t *testing.T) {
	src := `<ul><@foreach target="items" key="i" value="v"><li>{{v}}</li></@foreach><@if condition="show"><li>x</li></@if></ul>`
	tree := mustBuild(t, src, Options{})

	ul := tree.Roots()[0]
	if len(ul.Children) != 2 {
		t.Fatalf("children = %d, want 2", len(ul.Children))
	}
	loop := ul.Children[0]
	if loop.Tag != vdom.TagForeach || loop.Attrs["target"] != "items" || loop.Attrs["key"] != "i" {
		t.Errorf("loop = %+v", loop)
	}
	if loop.Key != "" {
		t.Error("control node must not carry a key")
	}
	if ul.Children[1].Tag != vdom.TagIf {
		t.Errorf("second child = %s, want @if", ul.Children[1].Tag)
	}
}

func TestBuildAttributeDirectives(t *testing.T) {
	src := `<ul><li @foreach target="items" key="i" value="v" class="row">{{v}}</li><p @if="n > 1">many</p></ul>`
	tree := mustBuild(t, src, Options{})

	ul := tree.Roots()[0]
	loop := ul.Children[0]
	if loop.Tag != vdom.TagForeach {
		t.Fatalf("first child = %s, want @foreach wrapper", loop.Tag)
	}
	want := map[string]string{"target": "items", "key": "i", "value": "v"}
	if diff := cmp.Diff(want, loop.Attrs); diff != "" {
		t.Errorf("loop attrs mismatch (-want +got):\n%s", diff)
	}
	li := loop.Children[0]
	if diff := cmp.Diff(map[string]string{"class": "row"}, li.Attrs); diff != "" {
		t.Errorf("li attrs mismatch (-want +got):\n%s", diff)
	}
	if li.Text != "{{v}}" {
		t.Errorf("li text = %q", li.Text)
	}

	cond := ul.Children[1]
	if cond.Tag != vdom.TagIf || cond.Attrs["condition"] != "n > 1" {
		t.Errorf("cond = %+v", cond)
	}

	var tags []string
	for _, n := range tree.Nodes {
		tags = append(tags, n.Tag)
	}
	if diff := cmp.Diff([]string{"ul", "@foreach", "li", "@if", "p"}, tags); diff != "" {
		t.Errorf("node list mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildEventAttributeKept(t *testing.T) {
	tree := mustBuild(t, `<button onClick="{{:save}}">Save</button>`, Options{})
	if got := tree.Nodes[0].Attrs["onclick"]; got != "{{:save}}" {
		t.Errorf("onclick = %q", got)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
		line int
	}{
		{"unclosed", "<div>\n  <p>text</p>\n", "E101", 1},
		{"stray close", "<p>a</p></div>", "E102", 1},
		{"mismatch", "<div>\n<p>a</div>", "E103", 2},
		{"foreach without target", `<@foreach key="i"></@foreach>`, "E105", 1},
		{"if without condition", `<p @if="">x</p>`, "E105", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.src, Options{File: "t.html"})
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.HasCode(err, tt.code) {
				t.Fatalf("error = %v, want %s", err, tt.code)
			}
			if errors.CategoryOf(err) != errors.CategoryBuild {
				t.Errorf("category = %q, want build", errors.CategoryOf(err))
			}
			e := errors.FromError(err, "")
			if e.Location == nil || e.Location.Line != tt.line || e.Location.File != "t.html" {
				t.Errorf("Location = %v, want line %d", e.Location, tt.line)
			}
		})
	}
}

func TestBuildErrorColumnIgnoresControlAlias(t *testing.T) {
	_, err := Build(`<@if condition="x"></p>`, Options{})
	e := errors.FromError(err, "")
	if e == nil || e.Location == nil {
		t.Fatalf("err = %v", err)
	}
	if e.Location.Column != 20 {
		t.Errorf("Column = %d, want 20", e.Location.Column)
	}
}

type failingTokenizer struct{}

func (failingTokenizer) Tokenize(io.Reader, Handler) error { return io.ErrUnexpectedEOF }

func TestBuildTokenizerFailure(t *testing.T) {
	_, err := BuildFrom(failingTokenizer{}, "<p>", Options{})
	if !errors.HasCode(err, "E104") {
		t.Errorf("err = %v, want E104", err)
	}
}

type scriptedTokenizer []func(Handler)

func (s scriptedTokenizer) Tokenize(_ io.Reader, h Handler) error {
	for _, step := range s {
		step(h)
	}
	return nil
}

func TestBuildFromCustomTokenizer(t *testing.T) {
	tok := scriptedTokenizer{
		func(h Handler) { h.OnText("ignored outside elements") },
		func(h Handler) { h.OnOpenTag("section", map[string]string{"id": "s"}) },
		func(h Handler) { h.OnText("body") },
		func(h Handler) { h.OnCloseTag("section") },
	}
	tree, err := BuildFrom(tok, "", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(tree.Nodes) != 1 || tree.Nodes[0].Text != "body" || tree.Nodes[0].ID != "s" {
		t.Errorf("tree = %+v", tree.Nodes)
	}
}

func TestBuildReader(t *testing.T) {
	tree, err := BuildReader(strings.NewReader("<p>x</p>"), Options{})
	if err != nil || len(tree.Nodes) != 1 {
		t.Errorf("BuildReader = %v, %v", tree, err)
	}
}

func TestParseTextPolicy(t *testing.T) {
	for _, name := range []string{"collapse", "trim", "preserve"} {
		p, ok := ParseTextPolicy(name)
		if !ok || p.String() != name {
			t.Errorf("ParseTextPolicy(%q) = %v, %v", name, p, ok)
		}
	}
	if p, ok := ParseTextPolicy(""); !ok || p != TextCollapse {
		t.Error("empty policy should default to collapse")
	}
	if _, ok := ParseTextPolicy("squash"); ok {
		t.Error("unknown policy should not parse")
	}
}
