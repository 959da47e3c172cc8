// Package protocol implements the binary encoding of live-tree operations.
//
// A server-side view applies patches to a stream tree, which records one
// Op per live-tree primitive. The ops of a render cycle travel to the
// client as one FrameOps frame; client events travel back as FrameEvent
// frames.
//
// # Wire Format
//
// Every frame starts with a header:
//
//	[Type: 1 byte][Seq: uvarint][Length: uvarint][Payload]
//
// An ops payload is an op count followed by the ops:
//
//	[Count: uvarint] ([Kind: 1 byte][operands...])*
//
// Element handles are uvarints; handle 0 is the root container. Strings
// are a uvarint length followed by UTF-8 bytes.
//
//	Create          id tag attrCount (key value)*
//	InsertBefore    parent id anchor
//	Append          parent id
//	Remove          id
//	SetAttr         id key value
//	RemoveAttr      id key
//	SetText         id text
//	BindEvent       id event bound(0|1)
//	Reset
//
// # Encoding
//
//   - Varint: protobuf-style unsigned varints for counts, ids and lengths
//   - Length-prefixed: strings
//   - Booleans: one byte, 0x00 or 0x01
//
// Decoding enforces allocation and collection limits so that a hostile
// length prefix cannot exhaust memory.
package protocol
