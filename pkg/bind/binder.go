package bind

import (
	"fmt"
	"log/slog"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/bind/expr"
	"github.com/vango-dev/vtree/pkg/vdom"
)

var (
	// interpolation matches {{name}} but not {{:handler}}.
	interpolation = regexp.MustCompile(`\{\{\s*([^{}:\s][^{}]*?)\s*\}\}`)
	// eventBinding matches an attribute value made of a single {{:handler}}.
	eventBinding = regexp.MustCompile(`^\{\{:\s*([A-Za-z_$][\w$]*)\s*\}\}$`)
)

// Binder resolves template trees. A Binder may be shared between views;
// Bind never modifies the template it is given.
type Binder struct {
	// Handlers is the event-handler registry referenced by {{:name}}.
	Handlers map[string]vdom.Handler

	// Logger receives debug records for unresolved tokens. Defaults to
	// slog.Default().
	Logger *slog.Logger

	exprs expr.Cache
}

// New creates a Binder with the given handler registry.
func New(handlers map[string]vdom.Handler, logger *slog.Logger) *Binder {
	return &Binder{Handlers: handlers, Logger: logger}
}

func (b *Binder) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

// work is one pending node and the scope it resolves in.
type work struct {
	node  *vdom.Node
	scope *scope
}

// Bind resolves a clone of tree against data and returns the resolved roots.
// Nodes are processed in document order; children spliced in by a control
// node are processed after it, so nested control nodes expand too.
func (b *Binder) Bind(tree *vdom.Tree, data Data) ([]*vdom.Node, error) {
	container := &vdom.Node{Tag: "#root"}
	for _, r := range tree.Roots() {
		container.AppendChild(r.Clone())
	}

	root := newScope(data)
	stack := make([]work, 0, len(container.Children))
	stack = pushReversed(stack, container.Children, root)

	for len(stack) > 0 {
		w := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch w.node.Tag {
		case vdom.TagIf:
			spliced, err := b.expandIf(w.node, w.scope)
			if err != nil {
				return nil, err
			}
			stack = pushReversed(stack, spliced, w.scope)

		case vdom.TagForeach:
			items, err := b.expandForeach(w.node, w.scope)
			if err != nil {
				return nil, err
			}
			for i := len(items) - 1; i >= 0; i-- {
				stack = append(stack, items[i])
			}

		default:
			if err := b.resolveNode(w.node, w.scope); err != nil {
				return nil, err
			}
			stack = pushReversed(stack, w.node.Children, w.scope)
		}
	}

	roots := container.Children
	for _, r := range roots {
		r.Parent = nil
	}
	return roots, nil
}

// BindTree is Bind returning the resolved roots as a tree.
func (b *Binder) BindTree(tree *vdom.Tree, data Data) (*vdom.Tree, error) {
	roots, err := b.Bind(tree, data)
	if err != nil {
		return nil, err
	}
	return vdom.NewTree(roots), nil
}

func pushReversed(stack []work, nodes []*vdom.Node, s *scope) []work {
	for i := len(nodes) - 1; i >= 0; i-- {
		stack = append(stack, work{node: nodes[i], scope: s})
	}
	return stack
}

// expandIf replaces n with its children when the condition holds and removes
// it otherwise. It returns the spliced children.
func (b *Binder) expandIf(n *vdom.Node, s *scope) ([]*vdom.Node, error) {
	cond := b.interpolate(n.Attrs["condition"], s)
	e, err := b.exprs.Parse(cond)
	if err != nil {
		return nil, conditionError(cond, err)
	}
	ok, err := expr.EvalBool(e, s)
	if err != nil {
		return nil, conditionError(cond, err)
	}
	if !ok {
		n.Remove()
		return nil, nil
	}
	children := n.Children
	n.Children = nil
	n.ReplaceWith(children...)
	return children, nil
}

func conditionError(cond string, err error) error {
	return errors.New("E301").
		WithDetailf("@if condition %q", cond).
		WithSuggestion("Conditions support comparisons, && || !, literals and dotted variable names").
		Wrap(err)
}

// expandForeach replaces n with one clone of its children per entry of the
// target collection. Each clone is paired with an iteration scope binding
// the key and value names.
func (b *Binder) expandForeach(n *vdom.Node, s *scope) ([]work, error) {
	target := strings.TrimSpace(n.Attrs["target"])
	if m := interpolation.FindStringSubmatch(target); m != nil && m[0] == target {
		// A lone token names the collection itself.
		target = m[1]
	} else {
		target = b.interpolate(target, s)
	}
	keyName := b.interpolate(n.Attrs["key"], s)
	valueName := b.interpolate(n.Attrs["value"], s)

	coll, ok := s.resolve(target)
	if !ok || coll == nil {
		n.Remove()
		return nil, nil
	}

	var out []work
	var clones []*vdom.Node
	err := iterate(coll, func(k, v any) {
		vars := make(map[string]any, 2)
		if keyName != "" {
			vars[keyName] = k
		}
		if valueName != "" {
			vars[valueName] = v
		}
		iter := s.child(vars)
		for _, tmpl := range n.Children {
			c := tmpl.Clone()
			clones = append(clones, c)
			out = append(out, work{node: c, scope: iter})
		}
	})
	if err != nil {
		return nil, errors.New("E202").WithDetailf("@foreach target %q is %T", target, coll)
	}
	n.ReplaceWith(clones...)
	return out, nil
}

// iterate calls fn for each entry of coll: slices and arrays by index, maps
// by sorted key.
func iterate(coll any, fn func(k, v any)) error {
	rv := reflect.ValueOf(coll)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			fn(i, rv.Index(i).Interface())
		}
		return nil
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		for _, k := range keys {
			fn(k.Interface(), rv.MapIndex(k).Interface())
		}
		return nil
	}
	return fmt.Errorf("not iterable: %s", rv.Kind())
}

// resolveNode extracts event bindings, interpolates text and attributes and
// recomputes the derived fields.
func (b *Binder) resolveNode(n *vdom.Node, s *scope) error {
	for _, name := range n.AttrNames() {
		value := n.Attrs[name]
		if len(name) > 2 && strings.HasPrefix(name, "on") {
			if m := eventBinding.FindStringSubmatch(value); m != nil {
				h, ok := b.Handlers[m[1]]
				if !ok || h == nil {
					return errors.New("E201").
						WithDetailf("<%s %s=%q> references handler %q", n.Tag, name, value, m[1]).
						WithSuggestion("Register the handler in the view's handler map")
				}
				delete(n.Attrs, name)
				n.Bind(name[2:], h)
				continue
			}
		}
		n.Attrs[name] = b.interpolate(value, s)
	}
	n.Text = b.interpolate(n.Text, s)
	n.Refresh()
	return nil
}

// HandlerNames lists the handler names referenced by event bindings in
// tree, sorted and without duplicates.
func HandlerNames(tree *vdom.Tree) []string {
	seen := make(map[string]bool)
	var names []string
	for _, n := range tree.Nodes {
		for attr, value := range n.Attrs {
			if len(attr) <= 2 || !strings.HasPrefix(attr, "on") {
				continue
			}
			if m := eventBinding.FindStringSubmatch(value); m != nil && !seen[m[1]] {
				seen[m[1]] = true
				names = append(names, m[1])
			}
		}
	}
	sort.Strings(names)
	return names
}

// interpolate replaces every resolvable {{path}} in text.
func (b *Binder) interpolate(text string, s *scope) string {
	if !strings.Contains(text, "{{") {
		return text
	}
	return interpolation.ReplaceAllStringFunc(text, func(token string) string {
		path := interpolation.FindStringSubmatch(token)[1]
		v, ok := s.resolve(path)
		if !ok {
			b.logger().Debug("unresolved interpolation token", "token", token)
			return token
		}
		return Stringify(v)
	})
}
