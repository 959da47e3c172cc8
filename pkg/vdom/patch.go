package vdom

import (
	"fmt"
	"strings"
)

// PatchOp is the type of patch operation.
type PatchOp uint8

const (
	PatchRemove       PatchOp = 0x01 // Detach a node
	PatchInsertBefore PatchOp = 0x02 // Materialize a new node before an anchor
	PatchAppend       PatchOp = 0x03 // Materialize a new node at the end of a parent
	PatchMove         PatchOp = 0x04 // Relocate an existing node before an anchor
	PatchChangeText   PatchOp = 0x05 // Update the text payload
	PatchChangeAttrs  PatchOp = 0x06 // Set or remove attributes
	PatchBindEvents   PatchOp = 0x07 // Rebind event handlers
)

// String returns the string representation of the PatchOp.
func (op PatchOp) String() string {
	switch op {
	case PatchRemove:
		return "Remove"
	case PatchInsertBefore:
		return "InsertBefore"
	case PatchAppend:
		return "Append"
	case PatchMove:
		return "Move"
	case PatchChangeText:
		return "ChangeText"
	case PatchChangeAttrs:
		return "ChangeAttrs"
	case PatchBindEvents:
		return "BindEvents"
	default:
		return "Unknown"
	}
}

// AttrChange is one entry of a ChangeAttrs patch.
type AttrChange struct {
	Key     string
	Value   string
	Removed bool
}

// Patch is one atomic mutation to replay against a live tree.
//
// Field use per op:
//
//	Remove        Target = node to detach
//	InsertBefore  Target = new node, Anchor = sibling it goes before, Parent
//	Append        Target = new node, Parent
//	Move          Target = existing node, Anchor = sibling it goes before, Parent
//	ChangeText    Target = existing node, Text
//	ChangeAttrs   Target = existing node, Attrs
//	BindEvents    Target = existing node, Events (nil handler unbinds)
//
// Parent is nil for the top-level sibling list.
type Patch struct {
	Op     PatchOp
	Target *Node
	Anchor *Node
	Parent *Node
	Text   string
	Attrs  []AttrChange
	Events map[string]Handler
}

// String returns a compact description for logs and the CLI.
func (p Patch) String() string {
	var b strings.Builder
	b.WriteString(p.Op.String())
	b.WriteByte(' ')
	b.WriteString(describe(p.Target))
	switch p.Op {
	case PatchInsertBefore, PatchMove:
		b.WriteString(" before ")
		b.WriteString(describe(p.Anchor))
	case PatchAppend:
		b.WriteString(" to ")
		if p.Parent == nil {
			b.WriteString("<root>")
		} else {
			b.WriteString(describe(p.Parent))
		}
	case PatchChangeText:
		fmt.Fprintf(&b, " %q", p.Text)
	case PatchChangeAttrs:
		for _, a := range p.Attrs {
			if a.Removed {
				fmt.Fprintf(&b, " -%s", a.Key)
			} else {
				fmt.Fprintf(&b, " %s=%q", a.Key, a.Value)
			}
		}
	case PatchBindEvents:
		for _, name := range sortedHandlerNames(p.Events) {
			if p.Events[name] == nil {
				fmt.Fprintf(&b, " -on%s", name)
			} else {
				fmt.Fprintf(&b, " on%s", name)
			}
		}
	}
	return b.String()
}

// String returns a short description such as <li key="a">text.
func (n *Node) String() string {
	return describe(n)
}

// describe renders a node as <tag key=.. id=..>text.
func describe(n *Node) string {
	if n == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(n.Tag)
	if n.Key != "" {
		fmt.Fprintf(&b, " key=%q", n.Key)
	}
	if n.ID != "" {
		fmt.Fprintf(&b, " id=%q", n.ID)
	}
	b.WriteByte('>')
	if n.Text != "" {
		text := n.Text
		if len(text) > 24 {
			text = text[:21] + "..."
		}
		b.WriteString(text)
	}
	return b.String()
}
