package live

import (
	"fmt"

	"github.com/vango-dev/vtree/pkg/render"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// Element is a MemTree element.
type Element struct {
	Tag      string
	Attrs    map[string]string
	Text     string
	Children []*Element
	Parent   *Element
	Events   map[string]vdom.Handler

	seq int
}

func (e *Element) String() string {
	return fmt.Sprintf("<%s#%d>", e.Tag, e.seq)
}

func (e *Element) index() int {
	if e.Parent == nil {
		return -1
	}
	for i, c := range e.Parent.Children {
		if c == e {
			return i
		}
	}
	return -1
}

func (e *Element) detach() {
	if i := e.index(); i >= 0 {
		p := e.Parent
		p.Children = append(p.Children[:i], p.Children[i+1:]...)
	}
	e.Parent = nil
}

// MemTree is an in-memory LiveTree. It records the number of primitive
// calls so tests can assert how much work a patch list caused.
type MemTree struct {
	root  *Element
	seq   int
	Calls map[string]int

	// Fail, if set, is consulted before every primitive; a non-nil result
	// is returned instead of performing the call.
	Fail func(op string, ref Ref) error
}

// NewMemTree creates an empty MemTree.
func NewMemTree() *MemTree {
	return &MemTree{
		root:  &Element{Tag: "#root"},
		Calls: make(map[string]int),
	}
}

func (m *MemTree) call(op string, ref Ref) error {
	m.Calls[op]++
	if m.Fail != nil {
		return m.Fail(op, ref)
	}
	return nil
}

func element(ref Ref) (*Element, error) {
	e, ok := ref.(*Element)
	if !ok || e == nil {
		return nil, fmt.Errorf("not a MemTree element: %v", ref)
	}
	return e, nil
}

// Root implements LiveTree.
func (m *MemTree) Root() Ref { return m.root }

// Reset implements Resetter.
func (m *MemTree) Reset() error {
	for _, c := range m.root.Children {
		c.Parent = nil
	}
	m.root.Children = nil
	return nil
}

// CreateElement implements LiveTree.
func (m *MemTree) CreateElement(n *vdom.Node) (Ref, error) {
	if err := m.call("create", nil); err != nil {
		return nil, err
	}
	m.seq++
	e := &Element{Tag: n.Tag, Attrs: make(map[string]string, len(n.Attrs)), seq: m.seq}
	for k, v := range n.Attrs {
		if k != "key" {
			e.Attrs[k] = v
		}
	}
	return e, nil
}

// InsertBefore implements LiveTree.
func (m *MemTree) InsertBefore(parent, ref, anchor Ref) error {
	if err := m.call("insert", ref); err != nil {
		return err
	}
	p, err := element(parent)
	if err != nil {
		return err
	}
	e, err := element(ref)
	if err != nil {
		return err
	}
	a, err := element(anchor)
	if err != nil {
		return err
	}
	if a.Parent != p {
		return fmt.Errorf("anchor %s is not a child of %s", a, p)
	}
	if e == a {
		return nil
	}
	e.detach()
	i := a.index()
	p.Children = append(p.Children, nil)
	copy(p.Children[i+1:], p.Children[i:])
	p.Children[i] = e
	e.Parent = p
	return nil
}

// AppendChild implements LiveTree.
func (m *MemTree) AppendChild(parent, ref Ref) error {
	if err := m.call("append", ref); err != nil {
		return err
	}
	p, err := element(parent)
	if err != nil {
		return err
	}
	e, err := element(ref)
	if err != nil {
		return err
	}
	e.detach()
	p.Children = append(p.Children, e)
	e.Parent = p
	return nil
}

// RemoveChild implements LiveTree.
func (m *MemTree) RemoveChild(ref Ref) error {
	if err := m.call("remove", ref); err != nil {
		return err
	}
	e, err := element(ref)
	if err != nil {
		return err
	}
	if e.Parent == nil {
		return fmt.Errorf("%s is not attached", e)
	}
	e.detach()
	return nil
}

// SetAttribute implements LiveTree.
func (m *MemTree) SetAttribute(ref Ref, key, value string) error {
	if err := m.call("setAttribute", ref); err != nil {
		return err
	}
	e, err := element(ref)
	if err != nil {
		return err
	}
	e.Attrs[key] = value
	return nil
}

// RemoveAttribute implements LiveTree.
func (m *MemTree) RemoveAttribute(ref Ref, key string) error {
	if err := m.call("removeAttribute", ref); err != nil {
		return err
	}
	e, err := element(ref)
	if err != nil {
		return err
	}
	delete(e.Attrs, key)
	return nil
}

// SetText implements LiveTree.
func (m *MemTree) SetText(ref Ref, text string) error {
	if err := m.call("setText", ref); err != nil {
		return err
	}
	e, err := element(ref)
	if err != nil {
		return err
	}
	e.Text = text
	return nil
}

// BindEvent implements LiveTree.
func (m *MemTree) BindEvent(ref Ref, event string, h vdom.Handler) error {
	if err := m.call("bindEvent", ref); err != nil {
		return err
	}
	e, err := element(ref)
	if err != nil {
		return err
	}
	if h == nil {
		delete(e.Events, event)
		return nil
	}
	if e.Events == nil {
		e.Events = make(map[string]vdom.Handler)
	}
	e.Events[event] = h
	return nil
}

// Fire calls the handler bound to event on ref. It reports whether one was
// bound.
func (m *MemTree) Fire(ref Ref, event string, payload any) bool {
	e, err := element(ref)
	if err != nil {
		return false
	}
	h, ok := e.Events[event]
	if !ok {
		return false
	}
	h(vdom.Event{Name: event, Payload: payload})
	return true
}

// Children returns the top-level elements.
func (m *MemTree) Children() []*Element {
	return m.root.Children
}

// Snapshot converts the live content to detached virtual nodes.
func (m *MemTree) Snapshot() []*vdom.Node {
	out := make([]*vdom.Node, 0, len(m.root.Children))
	for _, c := range m.root.Children {
		out = append(out, snapshot(c))
	}
	return out
}

func snapshot(e *Element) *vdom.Node {
	n := vdom.NewNode(e.Tag, e.Attrs)
	n.Text = e.Text
	for _, c := range e.Children {
		n.AppendChild(snapshot(c))
	}
	return n
}

// HTML serializes the live content.
func (m *MemTree) HTML() string {
	return render.String(m.Snapshot())
}
