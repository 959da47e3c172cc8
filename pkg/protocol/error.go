package protocol

// ErrorMessage is the payload of a FrameError.
type ErrorMessage struct {
	Code    string // error code, such as E401
	Message string
	Fatal   bool // the connection will be closed
}

// EncodeErrorMessage encodes an ErrorMessage to bytes.
func EncodeErrorMessage(em *ErrorMessage) []byte {
	e := NewEncoder()
	e.WriteString(em.Code)
	e.WriteString(em.Message)
	e.WriteBool(em.Fatal)
	return e.Bytes()
}

// DecodeErrorMessage decodes an ErrorMessage from bytes.
func DecodeErrorMessage(data []byte) (*ErrorMessage, error) {
	r := reader{d: NewDecoder(data)}
	em := &ErrorMessage{
		Code:    r.str(),
		Message: r.str(),
		Fatal:   r.boolean(),
	}
	if r.err != nil {
		return nil, r.err
	}
	return em, nil
}

// Error implements the error interface.
func (em *ErrorMessage) Error() string {
	if em.Fatal {
		return "fatal: " + em.Code + ": " + em.Message
	}
	return em.Code + ": " + em.Message
}
