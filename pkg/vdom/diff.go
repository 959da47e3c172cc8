package vdom

import (
	"reflect"
	"sort"
	"strings"
)

// Identify returns the identity used to match n across two renders: its tag
// and key when keyed, otherwise "tag:" followed by the sorted attribute names.
// A keyed node whose tag changes is a different node.
func Identify(n *Node) string {
	if n.Key != "" {
		return n.Tag + "@key:" + n.Key
	}
	var b strings.Builder
	b.WriteString(n.Tag)
	b.WriteByte(':')
	for i, name := range n.AttrNames() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(name)
	}
	return b.String()
}

// Diff compares two resolved sibling lists and returns the patches needed to
// turn prev into next.
func Diff(prev, next []*Node) []Patch {
	var d Differ
	return d.Diff(prev, next)
}

// Differ computes patches between resolved sibling lists. The zero value is
// ready to use. A Differ is not safe for concurrent use.
type Differ struct {
	// OnMatch, if set, is called for every previous node paired with a next
	// node (same position or moved), parents before children.
	OnMatch func(prev, next *Node)

	patches []Patch
}

// Diff compares prev and next at the top level and recursively below every
// matched pair.
func (d *Differ) Diff(prev, next []*Node) []Patch {
	d.patches = nil
	d.siblings(nil, prev, next)
	return d.patches
}

// DiffChildren compares the children of a matched pair.
func (d *Differ) DiffChildren(prev, next *Node) []Patch {
	d.patches = nil
	d.siblings(prev, prev.Children, next.Children)
	return d.patches
}

type entry struct {
	node *Node
	id   string
}

// siblings reconciles one sibling level. parent is the previous-tree node
// that owns prev, or nil for the top level.
//
// Duplicate identities are tolerated: the first candidate wins.
func (d *Differ) siblings(parent *Node, prev, next []*Node) {
	nextIDs := make([]string, len(next))
	wanted := make(map[string]struct{}, len(next))
	for i, n := range next {
		nextIDs[i] = Identify(n)
		wanted[nextIDs[i]] = struct{}{}
	}

	// Removal pass: previous nodes with no counterpart anywhere in next.
	working := make([]entry, 0, len(prev))
	for _, n := range prev {
		id := Identify(n)
		if _, ok := wanted[id]; !ok {
			d.emit(Patch{Op: PatchRemove, Target: n, Parent: parent})
			continue
		}
		working = append(working, entry{node: n, id: id})
	}

	// Reconciliation pass. After step i, working[:i+1] lines up with next[:i+1].
	for i, n := range next {
		id := nextIDs[i]

		if i < len(working) && working[i].id == id {
			d.same(working[i].node, n)
			continue
		}

		if j := indexOf(working, id, i+1); j >= 0 {
			found := working[j]
			d.emit(Patch{Op: PatchMove, Target: found.node, Anchor: working[i].node, Parent: parent})
			copy(working[i+1:j+1], working[i:j])
			working[i] = found
			d.same(found.node, n)
			continue
		}

		if i < len(working) {
			d.emit(Patch{Op: PatchInsertBefore, Target: n, Anchor: working[i].node, Parent: parent})
			working = append(working, entry{})
			copy(working[i+1:], working[i:])
			working[i] = entry{node: n, id: id}
			continue
		}

		d.emit(Patch{Op: PatchAppend, Target: n, Parent: parent})
		working = append(working, entry{node: n, id: id})
	}

	// Trailing cleanup: leftovers from duplicate identities.
	for _, e := range working[len(next):] {
		d.emit(Patch{Op: PatchRemove, Target: e.node, Parent: parent})
	}
}

// same diffs a matched pair in place and recurses into its children.
func (d *Differ) same(prev, next *Node) {
	if d.OnMatch != nil {
		d.OnMatch(prev, next)
	}
	if prev.Text != next.Text {
		d.emit(Patch{Op: PatchChangeText, Target: prev, Text: next.Text})
	}
	if changes := diffAttrs(prev.Attrs, next.Attrs); len(changes) > 0 {
		d.emit(Patch{Op: PatchChangeAttrs, Target: prev, Attrs: changes})
	}
	if events := diffEvents(prev.Events, next.Events); events != nil {
		d.emit(Patch{Op: PatchBindEvents, Target: prev, Events: events})
	}
	d.siblings(prev, prev.Children, next.Children)
}

func (d *Differ) emit(p Patch) {
	d.patches = append(d.patches, p)
}

func indexOf(list []entry, id string, from int) int {
	for i := from; i < len(list); i++ {
		if list[i].id == id {
			return i
		}
	}
	return -1
}

// diffAttrs returns set entries for keys of next whose value differs from
// prev, followed by removals for keys only prev has. "key" is not a real
// attribute and is skipped.
func diffAttrs(prev, next map[string]string) []AttrChange {
	var changes []AttrChange
	for _, k := range sortedKeys(next) {
		if k == "key" {
			continue
		}
		if old, ok := prev[k]; !ok || old != next[k] {
			changes = append(changes, AttrChange{Key: k, Value: next[k]})
		}
	}
	for _, k := range sortedKeys(prev) {
		if k == "key" {
			continue
		}
		if _, ok := next[k]; !ok {
			changes = append(changes, AttrChange{Key: k, Removed: true})
		}
	}
	return changes
}

// diffEvents returns the handlers to rebind, with nil marking an unbind, or
// nil when both sides bind the same functions to the same names.
func diffEvents(prev, next map[string]Handler) map[string]Handler {
	var out map[string]Handler
	set := func(k string, h Handler) {
		if out == nil {
			out = make(map[string]Handler)
		}
		out[k] = h
	}
	for k, h := range next {
		if old, ok := prev[k]; !ok || !sameHandler(old, h) {
			set(k, h)
		}
	}
	for k := range prev {
		if _, ok := next[k]; !ok {
			set(k, nil)
		}
	}
	return out
}

func sameHandler(a, b Handler) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedHandlerNames(m map[string]Handler) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
