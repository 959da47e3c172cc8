package protocol

import (
	"fmt"
	"sort"
	"strings"
)

// OpKind identifies a live-tree primitive.
type OpKind uint8

const (
	OpCreate       OpKind = 0x01 // Create a detached element
	OpInsertBefore OpKind = 0x02 // Insert or relocate before an anchor
	OpAppend       OpKind = 0x03 // Append to a parent
	OpRemove       OpKind = 0x04 // Detach an element
	OpSetAttr      OpKind = 0x05 // Set an attribute
	OpRemoveAttr   OpKind = 0x06 // Remove an attribute
	OpSetText      OpKind = 0x07 // Set the text payload
	OpBindEvent    OpKind = 0x08 // Bind or unbind an event listener
	OpReset        OpKind = 0x09 // Drop all content under the root
)

// String returns the string representation of the op kind.
func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "Create"
	case OpInsertBefore:
		return "InsertBefore"
	case OpAppend:
		return "Append"
	case OpRemove:
		return "Remove"
	case OpSetAttr:
		return "SetAttr"
	case OpRemoveAttr:
		return "RemoveAttr"
	case OpSetText:
		return "SetText"
	case OpBindEvent:
		return "BindEvent"
	case OpReset:
		return "Reset"
	default:
		return fmt.Sprintf("Unknown(0x%02x)", uint8(k))
	}
}

// RootID is the handle of the root container.
const RootID uint64 = 0

// Op is one encoded live-tree primitive. Fields are used per Kind as listed
// in the package documentation; Key holds the attribute or event name and
// Value the attribute value or text.
type Op struct {
	Kind   OpKind
	ID     uint64
	Parent uint64
	Anchor uint64
	Tag    string
	Attrs  map[string]string
	Key    string
	Value  string
	Bound  bool
}

// String returns a compact description for logs.
func (op Op) String() string {
	switch op.Kind {
	case OpCreate:
		var b strings.Builder
		fmt.Fprintf(&b, "Create #%d <%s", op.ID, op.Tag)
		for _, k := range sortedAttrKeys(op.Attrs) {
			fmt.Fprintf(&b, " %s=%q", k, op.Attrs[k])
		}
		b.WriteByte('>')
		return b.String()
	case OpInsertBefore:
		return fmt.Sprintf("InsertBefore #%d in #%d before #%d", op.ID, op.Parent, op.Anchor)
	case OpAppend:
		return fmt.Sprintf("Append #%d to #%d", op.ID, op.Parent)
	case OpRemove:
		return fmt.Sprintf("Remove #%d", op.ID)
	case OpSetAttr:
		return fmt.Sprintf("SetAttr #%d %s=%q", op.ID, op.Key, op.Value)
	case OpRemoveAttr:
		return fmt.Sprintf("RemoveAttr #%d %s", op.ID, op.Key)
	case OpSetText:
		return fmt.Sprintf("SetText #%d %q", op.ID, op.Value)
	case OpBindEvent:
		return fmt.Sprintf("BindEvent #%d %s %v", op.ID, op.Key, op.Bound)
	case OpReset:
		return "Reset"
	}
	return op.Kind.String()
}

func sortedAttrKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EncodeOps encodes ops as an ops payload.
func EncodeOps(ops []Op) []byte {
	e := NewEncoder()
	EncodeOpsTo(e, ops)
	return e.Bytes()
}

// EncodeOpsTo encodes ops using the provided encoder.
func EncodeOpsTo(e *Encoder, ops []Op) {
	e.WriteUvarint(uint64(len(ops)))
	for i := range ops {
		encodeOp(e, &ops[i])
	}
}

func encodeOp(e *Encoder, op *Op) {
	e.WriteByte(byte(op.Kind))
	switch op.Kind {
	case OpCreate:
		e.WriteUvarint(op.ID)
		e.WriteString(op.Tag)
		e.WriteUvarint(uint64(len(op.Attrs)))
		for _, k := range sortedAttrKeys(op.Attrs) {
			e.WriteString(k)
			e.WriteString(op.Attrs[k])
		}
	case OpInsertBefore:
		e.WriteUvarint(op.Parent)
		e.WriteUvarint(op.ID)
		e.WriteUvarint(op.Anchor)
	case OpAppend:
		e.WriteUvarint(op.Parent)
		e.WriteUvarint(op.ID)
	case OpRemove:
		e.WriteUvarint(op.ID)
	case OpSetAttr:
		e.WriteUvarint(op.ID)
		e.WriteString(op.Key)
		e.WriteString(op.Value)
	case OpRemoveAttr:
		e.WriteUvarint(op.ID)
		e.WriteString(op.Key)
	case OpSetText:
		e.WriteUvarint(op.ID)
		e.WriteString(op.Value)
	case OpBindEvent:
		e.WriteUvarint(op.ID)
		e.WriteString(op.Key)
		e.WriteBool(op.Bound)
	}
}

// DecodeOps decodes an ops payload.
func DecodeOps(data []byte) ([]Op, error) {
	d := NewDecoder(data)
	ops, err := DecodeOpsFrom(d)
	if err != nil {
		return nil, err
	}
	if !d.EOF() {
		return nil, ErrTrailingBytes
	}
	return ops, nil
}

// DecodeOpsFrom decodes an ops payload from a decoder.
func DecodeOpsFrom(d *Decoder) ([]Op, error) {
	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	ops := make([]Op, 0, count)
	for i := 0; i < count; i++ {
		op, err := decodeOp(d)
		if err != nil {
			return nil, fmt.Errorf("op %d: %w", i, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func decodeOp(d *Decoder) (Op, error) {
	kind, err := d.ReadByte()
	if err != nil {
		return Op{}, err
	}
	op := Op{Kind: OpKind(kind)}
	r := reader{d: d}
	switch op.Kind {
	case OpCreate:
		op.ID = r.uvarint()
		op.Tag = r.str()
		n := r.count()
		if r.err == nil {
			op.Attrs = make(map[string]string, n)
			for j := 0; j < n && r.err == nil; j++ {
				k := r.str()
				op.Attrs[k] = r.str()
			}
		}
	case OpInsertBefore:
		op.Parent = r.uvarint()
		op.ID = r.uvarint()
		op.Anchor = r.uvarint()
	case OpAppend:
		op.Parent = r.uvarint()
		op.ID = r.uvarint()
	case OpRemove:
		op.ID = r.uvarint()
	case OpSetAttr:
		op.ID = r.uvarint()
		op.Key = r.str()
		op.Value = r.str()
	case OpRemoveAttr:
		op.ID = r.uvarint()
		op.Key = r.str()
	case OpSetText:
		op.ID = r.uvarint()
		op.Value = r.str()
	case OpBindEvent:
		op.ID = r.uvarint()
		op.Key = r.str()
		op.Bound = r.boolean()
	case OpReset:
	default:
		return Op{}, fmt.Errorf("protocol: unknown op kind 0x%02x", kind)
	}
	return op, r.err
}

// reader keeps the first decoding error so operand lists read linearly.
type reader struct {
	d   *Decoder
	err error
}

func (r *reader) uvarint() uint64 {
	if r.err != nil {
		return 0
	}
	var v uint64
	v, r.err = r.d.ReadUvarint()
	return v
}

func (r *reader) str() string {
	if r.err != nil {
		return ""
	}
	var s string
	s, r.err = r.d.ReadString()
	return s
}

func (r *reader) count() int {
	if r.err != nil {
		return 0
	}
	var n int
	n, r.err = r.d.ReadCollectionCount()
	return n
}

func (r *reader) boolean() bool {
	if r.err != nil {
		return false
	}
	var b bool
	b, r.err = r.d.ReadBool()
	return b
}
