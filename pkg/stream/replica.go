package stream

import (
	"fmt"

	"github.com/vango-dev/vtree/pkg/live"
	"github.com/vango-dev/vtree/pkg/protocol"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// Replica replays ops onto another LiveTree.
type Replica struct {
	tree live.LiveTree
	refs map[uint64]live.Ref

	// OnEvent, if set, receives the events fired on bound elements as
	// protocol events ready to send back.
	OnEvent func(*protocol.Event)
}

// NewReplica creates a Replica writing to tree.
func NewReplica(tree live.LiveTree) *Replica {
	r := &Replica{tree: tree}
	r.reset()
	return r
}

func (r *Replica) reset() {
	r.refs = map[uint64]live.Ref{protocol.RootID: r.tree.Root()}
}

func (r *Replica) ref(id uint64) (live.Ref, error) {
	ref, ok := r.refs[id]
	if !ok {
		return nil, fmt.Errorf("unknown handle #%d", id)
	}
	return ref, nil
}

// Apply replays ops in order.
func (r *Replica) Apply(ops []protocol.Op) error {
	for _, op := range ops {
		if err := r.apply(op); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

func (r *Replica) apply(op protocol.Op) error {
	if op.Kind == protocol.OpCreate {
		ref, err := r.tree.CreateElement(vdom.NewNode(op.Tag, op.Attrs))
		if err != nil {
			return err
		}
		r.refs[op.ID] = ref
		return nil
	}
	if op.Kind == protocol.OpReset {
		if rs, ok := r.tree.(live.Resetter); ok {
			if err := rs.Reset(); err != nil {
				return err
			}
		}
		r.reset()
		return nil
	}

	ref, err := r.ref(op.ID)
	if err != nil {
		return err
	}
	switch op.Kind {
	case protocol.OpInsertBefore:
		parent, err := r.ref(op.Parent)
		if err != nil {
			return err
		}
		anchor, err := r.ref(op.Anchor)
		if err != nil {
			return err
		}
		return r.tree.InsertBefore(parent, ref, anchor)
	case protocol.OpAppend:
		parent, err := r.ref(op.Parent)
		if err != nil {
			return err
		}
		return r.tree.AppendChild(parent, ref)
	case protocol.OpRemove:
		delete(r.refs, op.ID)
		return r.tree.RemoveChild(ref)
	case protocol.OpSetAttr:
		return r.tree.SetAttribute(ref, op.Key, op.Value)
	case protocol.OpRemoveAttr:
		return r.tree.RemoveAttribute(ref, op.Key)
	case protocol.OpSetText:
		return r.tree.SetText(ref, op.Value)
	case protocol.OpBindEvent:
		if !op.Bound {
			return r.tree.BindEvent(ref, op.Key, nil)
		}
		id, name := op.ID, op.Key
		return r.tree.BindEvent(ref, name, func(e vdom.Event) {
			if r.OnEvent != nil {
				payload, _ := e.Payload.(string)
				r.OnEvent(&protocol.Event{ID: id, Name: name, Payload: payload})
			}
		})
	}
	return fmt.Errorf("unsupported op %s", op.Kind)
}
