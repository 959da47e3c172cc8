package live

import (
	"sort"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// Match pairs a mounted node with its counterpart in the next tree.
type Match struct {
	Prev, Next *vdom.Node
}

// Record returns a vdom.Differ OnMatch callback that appends to dst.
func Record(dst *[]Match) func(prev, next *vdom.Node) {
	return func(prev, next *vdom.Node) {
		*dst = append(*dst, Match{Prev: prev, Next: next})
	}
}

// Applier replays patches against a LiveTree. A node has an entry in the
// side table exactly when it is materialized in the live tree.
//
// An Applier is not safe for concurrent use.
type Applier struct {
	tree  LiveTree
	refs  map[*vdom.Node]Ref
	stale error
}

// NewApplier creates an Applier for tree.
func NewApplier(tree LiveTree) *Applier {
	return &Applier{
		tree: tree,
		refs: make(map[*vdom.Node]Ref),
	}
}

// Tree returns the live tree.
func (a *Applier) Tree() LiveTree {
	return a.tree
}

// Ref returns the live handle of n.
func (a *Applier) Ref(n *vdom.Node) (Ref, bool) {
	r, ok := a.refs[n]
	return r, ok
}

// Len returns the number of materialized nodes.
func (a *Applier) Len() int {
	return len(a.refs)
}

// Stale returns the error that left the live tree partially updated, or nil.
func (a *Applier) Stale() error {
	return a.stale
}

// Mount materializes roots as the whole content of the live tree, dropping
// any previous content and clearing a stale state.
func (a *Applier) Mount(roots []*vdom.Node) error {
	if r, ok := a.tree.(Resetter); ok {
		if err := r.Reset(); err != nil {
			return a.fail(errors.New("E401").WithDetail("reset").Wrap(err))
		}
	} else {
		for n, ref := range a.refs {
			if n.Parent == nil {
				if err := a.tree.RemoveChild(ref); err != nil {
					return a.fail(errors.New("E401").WithDetail("unmount").Wrap(err))
				}
			}
		}
	}
	a.refs = make(map[*vdom.Node]Ref)
	a.stale = nil

	root := a.tree.Root()
	for _, n := range roots {
		ref, err := a.materialize(n)
		if err != nil {
			return a.fail(err)
		}
		if err := a.tree.AppendChild(root, ref); err != nil {
			return a.fail(liveError("append", n, err))
		}
	}
	return nil
}

// Apply replays patches in order. On failure the live tree is left
// partially updated and every later Apply fails with E402 until Mount.
func (a *Applier) Apply(patches []vdom.Patch) error {
	if a.stale != nil {
		return errors.New("E402").Wrap(a.stale)
	}
	for i := range patches {
		if err := a.apply(&patches[i]); err != nil {
			return a.fail(err)
		}
	}
	return nil
}

// Adopt moves live handles from matched previous nodes to their next
// counterparts, making the next tree the mounted one.
func (a *Applier) Adopt(matches []Match) {
	for _, m := range matches {
		ref, ok := a.refs[m.Prev]
		if !ok {
			continue
		}
		delete(a.refs, m.Prev)
		a.refs[m.Next] = ref
	}
}

func (a *Applier) fail(err error) error {
	if a.stale == nil {
		a.stale = err
	}
	return err
}

func (a *Applier) apply(p *vdom.Patch) error {
	switch p.Op {
	case vdom.PatchRemove:
		ref, err := a.lookup(p.Target)
		if err != nil {
			return err
		}
		if err := a.tree.RemoveChild(ref); err != nil {
			return liveError("remove", p.Target, err)
		}
		a.forget(p.Target)

	case vdom.PatchInsertBefore, vdom.PatchAppend, vdom.PatchMove:
		parent, err := a.parentRef(p.Parent)
		if err != nil {
			return err
		}
		var ref Ref
		if p.Op == vdom.PatchMove {
			ref, err = a.lookup(p.Target)
		} else {
			ref, err = a.materialize(p.Target)
		}
		if err != nil {
			return err
		}
		if p.Op == vdom.PatchAppend {
			if err := a.tree.AppendChild(parent, ref); err != nil {
				return liveError("append", p.Target, err)
			}
			return nil
		}
		anchor, err := a.lookup(p.Anchor)
		if err != nil {
			return err
		}
		if err := a.tree.InsertBefore(parent, ref, anchor); err != nil {
			return liveError("insert", p.Target, err)
		}

	case vdom.PatchChangeText:
		ref, err := a.lookup(p.Target)
		if err != nil {
			return err
		}
		if err := a.tree.SetText(ref, p.Text); err != nil {
			return liveError("text", p.Target, err)
		}

	case vdom.PatchChangeAttrs:
		ref, err := a.lookup(p.Target)
		if err != nil {
			return err
		}
		for _, c := range p.Attrs {
			if c.Removed {
				err = a.tree.RemoveAttribute(ref, c.Key)
			} else {
				err = a.tree.SetAttribute(ref, c.Key, c.Value)
			}
			if err != nil {
				return liveError("attribute "+c.Key, p.Target, err)
			}
		}

	case vdom.PatchBindEvents:
		ref, err := a.lookup(p.Target)
		if err != nil {
			return err
		}
		names := make([]string, 0, len(p.Events))
		for name := range p.Events {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := a.tree.BindEvent(ref, name, p.Events[name]); err != nil {
				return liveError("event "+name, p.Target, err)
			}
		}

	default:
		return errors.New("E401").WithDetailf("unknown patch op %s", p.Op)
	}
	return nil
}

// materialize creates the live subtree for n and records every handle.
func (a *Applier) materialize(n *vdom.Node) (Ref, error) {
	ref, err := a.tree.CreateElement(n)
	if err != nil {
		return nil, liveError("create", n, err)
	}
	if n.Text != "" {
		if err := a.tree.SetText(ref, n.Text); err != nil {
			return nil, liveError("text", n, err)
		}
	}
	for _, name := range n.EventNames() {
		if err := a.tree.BindEvent(ref, name, n.Events[name]); err != nil {
			return nil, liveError("event "+name, n, err)
		}
	}
	for _, c := range n.Children {
		cref, err := a.materialize(c)
		if err != nil {
			return nil, err
		}
		if err := a.tree.AppendChild(ref, cref); err != nil {
			return nil, liveError("append", c, err)
		}
	}
	a.refs[n] = ref
	return ref, nil
}

// forget drops the handles of n and its descendants.
func (a *Applier) forget(n *vdom.Node) {
	n.Walk(func(d *vdom.Node) bool {
		delete(a.refs, d)
		return true
	})
}

func (a *Applier) lookup(n *vdom.Node) (Ref, error) {
	if ref, ok := a.refs[n]; ok {
		return ref, nil
	}
	return nil, errors.New("E403").WithDetailf("%s has no live element", n)
}

func (a *Applier) parentRef(parent *vdom.Node) (Ref, error) {
	if parent == nil {
		return a.tree.Root(), nil
	}
	return a.lookup(parent)
}

func liveError(op string, n *vdom.Node, err error) error {
	return errors.New("E401").WithDetailf("%s %s", op, n).Wrap(err)
}
