package vdom

import (
	"sort"
	"strings"
)

// Reserved control tags. They are consumed by the binder and never appear in
// a resolved tree.
const (
	TagForeach = "@foreach"
	TagIf      = "@if"
)

// Handler is a bound event handler.
type Handler func(Event)

// Event is delivered to a Handler when the live tree fires an event.
type Event struct {
	Name    string // lowercased event name, e.g. "click"
	Target  *Node
	Payload any
}

// Node is the virtual tree node.
type Node struct {
	Tag      string            // Element tag name, or a control tag
	Attrs    map[string]string // Attribute values
	Key      string            // Reconciliation key
	Text     string            // Text payload
	Children []*Node           // Child nodes
	Parent   *Node             // Weak back-reference, never owns
	Events   map[string]Handler

	// Derived from Attrs by Refresh.
	ID    string
	Class []string
}

// NewNode creates a node with a copy of attrs and derived fields filled in.
func NewNode(tag string, attrs map[string]string) *Node {
	n := &Node{
		Tag:   tag,
		Attrs: make(map[string]string, len(attrs)),
	}
	for k, v := range attrs {
		n.Attrs[k] = v
	}
	n.Refresh()
	return n
}

// IsControl returns true for @foreach and @if nodes.
func (n *Node) IsControl() bool {
	return n != nil && IsControlTag(n.Tag)
}

// IsControlTag reports whether tag is a reserved control tag.
func IsControlTag(tag string) bool {
	return tag == TagForeach || tag == TagIf
}

// Refresh recomputes ID, Class and Key from the attribute map.
// Control nodes never carry a key: their "key" attribute names the loop index.
func (n *Node) Refresh() {
	n.ID = n.Attrs["id"]
	n.Class = strings.Fields(n.Attrs["class"])
	if n.IsControl() {
		n.Key = ""
	} else {
		n.Key = n.Attrs["key"]
	}
}

// HasClass returns true if the class token is present.
func (n *Node) HasClass(name string) bool {
	for _, c := range n.Class {
		if c == name {
			return true
		}
	}
	return false
}

// AttrNames returns the attribute names in sorted order.
func (n *Node) AttrNames() []string {
	names := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// EventNames returns the bound event names in sorted order.
func (n *Node) EventNames() []string {
	names := make([]string, 0, len(n.Events))
	for k := range n.Events {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Bind registers h under the lowercased event name.
func (n *Node) Bind(event string, h Handler) {
	if n.Events == nil {
		n.Events = make(map[string]Handler)
	}
	n.Events[strings.ToLower(event)] = h
}

// AppendChild links child as the last child of n.
func (n *Node) AppendChild(child *Node) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// Index returns n's position among its siblings, or -1 for a root.
func (n *Node) Index() int {
	if n.Parent == nil {
		return -1
	}
	for i, c := range n.Parent.Children {
		if c == n {
			return i
		}
	}
	return -1
}

// ReplaceWith splices nodes into n's parent at n's position and detaches n.
// Passing no nodes removes n. It returns the index where the replacement
// starts, or -1 if n has no parent.
func (n *Node) ReplaceWith(nodes ...*Node) int {
	i := n.Index()
	if i < 0 {
		return -1
	}
	p := n.Parent
	children := make([]*Node, 0, len(p.Children)-1+len(nodes))
	children = append(children, p.Children[:i]...)
	for _, c := range nodes {
		c.Parent = p
		children = append(children, c)
	}
	children = append(children, p.Children[i+1:]...)
	p.Children = children
	n.Parent = nil
	return i
}

// Remove detaches n from its parent.
func (n *Node) Remove() {
	n.ReplaceWith()
}

// Clone returns a deep copy of the subtree rooted at n. The copy has no parent.
// Handlers are shared, not copied.
func (n *Node) Clone() *Node {
	c := &Node{
		Tag:   n.Tag,
		Attrs: make(map[string]string, len(n.Attrs)),
		Key:   n.Key,
		Text:  n.Text,
		ID:    n.ID,
	}
	for k, v := range n.Attrs {
		c.Attrs[k] = v
	}
	if len(n.Class) > 0 {
		c.Class = append([]string(nil), n.Class...)
	}
	if len(n.Events) > 0 {
		c.Events = make(map[string]Handler, len(n.Events))
		for k, h := range n.Events {
			c.Events[k] = h
		}
	}
	if len(n.Children) > 0 {
		c.Children = make([]*Node, 0, len(n.Children))
		for _, child := range n.Children {
			cc := child.Clone()
			cc.Parent = c
			c.Children = append(c.Children, cc)
		}
	}
	return c
}

// Walk visits the subtree rooted at n in document order. Returning false from
// fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Descendants returns all nodes below n in document order.
func (n *Node) Descendants() Nodes {
	var out Nodes
	for _, c := range n.Children {
		c.Walk(func(d *Node) bool {
			out = append(out, d)
			return true
		})
	}
	return out
}

// Flatten returns every node of the given roots in document order.
func Flatten(roots []*Node) Nodes {
	var out Nodes
	for _, r := range roots {
		r.Walk(func(n *Node) bool {
			out = append(out, n)
			return true
		})
	}
	return out
}

// Tree is a built or resolved node tree.
type Tree struct {
	// Nodes is the flattened document-order node list.
	Nodes Nodes
}

// NewTree creates a tree from its roots.
func NewTree(roots []*Node) *Tree {
	return &Tree{Nodes: Flatten(roots)}
}

// Roots returns the nodes that have no parent, in document order.
func (t *Tree) Roots() []*Node {
	if t == nil {
		return nil
	}
	var roots []*Node
	for _, n := range t.Nodes {
		if n.Parent == nil {
			roots = append(roots, n)
		}
	}
	return roots
}

// Clone deep-copies the tree.
func (t *Tree) Clone() *Tree {
	roots := t.Roots()
	clones := make([]*Node, len(roots))
	for i, r := range roots {
		clones[i] = r.Clone()
	}
	return NewTree(clones)
}
