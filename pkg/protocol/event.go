package protocol

// Event is a client event addressed to a live element.
type Event struct {
	ID      uint64 // element handle
	Name    string // lowercased event name
	Payload string // opaque, usually JSON
}

// EncodeEvent encodes an event payload.
func EncodeEvent(ev *Event) []byte {
	e := NewEncoder()
	e.WriteUvarint(ev.ID)
	e.WriteString(ev.Name)
	e.WriteString(ev.Payload)
	return e.Bytes()
}

// DecodeEvent decodes an event payload.
func DecodeEvent(data []byte) (*Event, error) {
	d := NewDecoder(data)
	r := reader{d: d}
	ev := &Event{
		ID:      r.uvarint(),
		Name:    r.str(),
		Payload: r.str(),
	}
	if r.err != nil {
		return nil, r.err
	}
	if !d.EOF() {
		return nil, ErrTrailingBytes
	}
	return ev, nil
}
