package protocol

import (
	"errors"
	"fmt"
	"io"
)

// MaxPayloadSize bounds the payload of a single frame (16MB).
const MaxPayloadSize = 16 * 1024 * 1024

// FrameType identifies the type of frame.
type FrameType uint8

const (
	FrameOps   FrameType = 0x01 // Server → Client live-tree ops
	FrameEvent FrameType = 0x02 // Client → Server event
	FrameError FrameType = 0x03 // Error message
)

// String returns the string representation of the frame type.
func (ft FrameType) String() string {
	switch ft {
	case FrameOps:
		return "Ops"
	case FrameEvent:
		return "Event"
	case FrameError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Frame errors.
var (
	ErrFrameTooLarge    = errors.New("protocol: frame payload too large")
	ErrInvalidFrameType = errors.New("protocol: invalid frame type")
	ErrTrailingBytes    = errors.New("protocol: trailing bytes after frame")
)

// Frame is one protocol message.
type Frame struct {
	Type    FrameType
	Seq     uint64
	Payload []byte
}

// Encode encodes the frame including its header.
func (f *Frame) Encode() []byte {
	e := NewEncoder()
	f.EncodeTo(e)
	return e.Bytes()
}

// EncodeTo encodes the frame using the provided encoder.
func (f *Frame) EncodeTo(e *Encoder) {
	e.WriteByte(byte(f.Type))
	e.WriteUvarint(f.Seq)
	e.WriteUvarint(uint64(len(f.Payload)))
	e.WriteBytes(f.Payload)
}

// DecodeFrame decodes exactly one frame from data.
func DecodeFrame(data []byte) (*Frame, error) {
	d := NewDecoder(data)
	t, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	ft := FrameType(t)
	if ft.String() == "Unknown" {
		return nil, fmt.Errorf("%w: 0x%02x", ErrInvalidFrameType, t)
	}
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	length, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if length > MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}
	payload, err := d.ReadBytes(int(length))
	if err != nil {
		return nil, err
	}
	if !d.EOF() {
		return nil, ErrTrailingBytes
	}
	return &Frame{
		Type:    ft,
		Seq:     seq,
		Payload: append([]byte(nil), payload...),
	}, nil
}

// WriteFrame writes a complete frame to w.
func WriteFrame(w io.Writer, f *Frame) error {
	if len(f.Payload) > MaxPayloadSize {
		return ErrFrameTooLarge
	}
	_, err := w.Write(f.Encode())
	return err
}
