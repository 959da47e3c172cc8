package stream

import (
	"fmt"

	"github.com/vango-dev/vtree/pkg/live"
	"github.com/vango-dev/vtree/pkg/protocol"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// Handle is the live.Ref type of a Tree.
type Handle uint64

// Tree records live-tree primitives as protocol ops. It is not safe for
// concurrent use.
type Tree struct {
	next     uint64
	ops      []protocol.Op
	handlers map[uint64]map[string]vdom.Handler
}

var (
	_ live.LiveTree = (*Tree)(nil)
	_ live.Resetter = (*Tree)(nil)
)

// NewTree creates an empty Tree.
func NewTree() *Tree {
	return &Tree{handlers: make(map[uint64]map[string]vdom.Handler)}
}

func handle(ref live.Ref) (uint64, error) {
	h, ok := ref.(Handle)
	if !ok {
		return 0, fmt.Errorf("not a stream handle: %v", ref)
	}
	return uint64(h), nil
}

func (t *Tree) record(op protocol.Op) {
	t.ops = append(t.ops, op)
}

// Root implements live.LiveTree.
func (t *Tree) Root() live.Ref { return Handle(protocol.RootID) }

// Reset implements live.Resetter. Ops still pending are dropped; the reset
// supersedes them.
func (t *Tree) Reset() error {
	t.handlers = make(map[uint64]map[string]vdom.Handler)
	t.ops = nil
	t.record(protocol.Op{Kind: protocol.OpReset})
	return nil
}

// CreateElement implements live.LiveTree.
func (t *Tree) CreateElement(n *vdom.Node) (live.Ref, error) {
	t.next++
	attrs := make(map[string]string, len(n.Attrs))
	for k, v := range n.Attrs {
		if k != "key" {
			attrs[k] = v
		}
	}
	t.record(protocol.Op{Kind: protocol.OpCreate, ID: t.next, Tag: n.Tag, Attrs: attrs})
	return Handle(t.next), nil
}

// InsertBefore implements live.LiveTree.
func (t *Tree) InsertBefore(parent, ref, anchor live.Ref) error {
	p, err := handle(parent)
	if err != nil {
		return err
	}
	id, err := handle(ref)
	if err != nil {
		return err
	}
	a, err := handle(anchor)
	if err != nil {
		return err
	}
	t.record(protocol.Op{Kind: protocol.OpInsertBefore, Parent: p, ID: id, Anchor: a})
	return nil
}

// AppendChild implements live.LiveTree.
func (t *Tree) AppendChild(parent, ref live.Ref) error {
	p, err := handle(parent)
	if err != nil {
		return err
	}
	id, err := handle(ref)
	if err != nil {
		return err
	}
	t.record(protocol.Op{Kind: protocol.OpAppend, Parent: p, ID: id})
	return nil
}

// RemoveChild implements live.LiveTree.
func (t *Tree) RemoveChild(ref live.Ref) error {
	id, err := handle(ref)
	if err != nil {
		return err
	}
	delete(t.handlers, id)
	t.record(protocol.Op{Kind: protocol.OpRemove, ID: id})
	return nil
}

// SetAttribute implements live.LiveTree.
func (t *Tree) SetAttribute(ref live.Ref, key, value string) error {
	id, err := handle(ref)
	if err != nil {
		return err
	}
	t.record(protocol.Op{Kind: protocol.OpSetAttr, ID: id, Key: key, Value: value})
	return nil
}

// RemoveAttribute implements live.LiveTree.
func (t *Tree) RemoveAttribute(ref live.Ref, key string) error {
	id, err := handle(ref)
	if err != nil {
		return err
	}
	t.record(protocol.Op{Kind: protocol.OpRemoveAttr, ID: id, Key: key})
	return nil
}

// SetText implements live.LiveTree.
func (t *Tree) SetText(ref live.Ref, text string) error {
	id, err := handle(ref)
	if err != nil {
		return err
	}
	t.record(protocol.Op{Kind: protocol.OpSetText, ID: id, Value: text})
	return nil
}

// BindEvent implements live.LiveTree. The handler stays on the server and
// runs when Dispatch receives a matching client event.
func (t *Tree) BindEvent(ref live.Ref, event string, h vdom.Handler) error {
	id, err := handle(ref)
	if err != nil {
		return err
	}
	if h == nil {
		delete(t.handlers[id], event)
	} else {
		if t.handlers[id] == nil {
			t.handlers[id] = make(map[string]vdom.Handler)
		}
		t.handlers[id][event] = h
	}
	t.record(protocol.Op{Kind: protocol.OpBindEvent, ID: id, Key: event, Bound: h != nil})
	return nil
}

// Pending returns the number of recorded ops not yet taken.
func (t *Tree) Pending() int {
	return len(t.ops)
}

// Take returns the recorded ops and clears the buffer.
func (t *Tree) Take() []protocol.Op {
	ops := t.ops
	t.ops = nil
	return ops
}

// Dispatch runs the handler bound to ev's element and event name. It
// reports whether one was bound.
func (t *Tree) Dispatch(ev *protocol.Event) bool {
	h, ok := t.handlers[ev.ID][ev.Name]
	if !ok {
		return false
	}
	h(vdom.Event{Name: ev.Name, Payload: ev.Payload})
	return true
}
