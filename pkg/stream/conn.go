package stream

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/vtree/pkg/protocol"
)

// ConnConfig configures a Conn.
type ConnConfig struct {
	// WriteTimeout bounds each frame write. Defaults to 10s.
	WriteTimeout time.Duration

	// ReadTimeout bounds the wait for the next client frame. Zero means no
	// deadline.
	ReadTimeout time.Duration

	// MaxMessageSize limits incoming frames. Defaults to 64KB.
	MaxMessageSize int64

	Logger *slog.Logger
}

// Conn sends op frames over a websocket and reads client events.
// Sends are serialized; a single goroutine should run ReadEvents.
type Conn struct {
	ws     *websocket.Conn
	config ConnConfig
	logger *slog.Logger

	mu  sync.Mutex
	seq uint64
}

// NewConn wraps an established websocket.
func NewConn(ws *websocket.Conn, config ConnConfig) *Conn {
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 10 * time.Second
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = 64 * 1024
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ws.SetReadLimit(config.MaxMessageSize)
	return &Conn{ws: ws, config: config, logger: logger.With("component", "stream")}
}

// Seq returns the sequence number of the last frame sent.
func (c *Conn) Seq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Flush sends the ops recorded by t as one frame. Nothing is sent when no
// ops are pending.
func (c *Conn) Flush(t *Tree) error {
	if t.Pending() == 0 {
		return nil
	}
	ops := t.Take()
	return c.send(protocol.FrameOps, protocol.EncodeOps(ops))
}

// SendError sends an error frame.
func (c *Conn) SendError(code, message string, fatal bool) error {
	return c.send(protocol.FrameError, protocol.EncodeErrorMessage(&protocol.ErrorMessage{
		Code:    code,
		Message: message,
		Fatal:   fatal,
	}))
}

func (c *Conn) send(ft protocol.FrameType, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	frame := &protocol.Frame{Type: ft, Seq: c.seq, Payload: payload}
	c.ws.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := c.ws.WriteMessage(websocket.BinaryMessage, frame.Encode()); err != nil {
		return err
	}
	c.logger.Debug("frame sent", "type", ft, "seq", frame.Seq, "bytes", len(payload))
	return nil
}

// ReadEvents reads frames until the connection closes or ctx is done and
// passes each decoded client event to fn. Malformed frames are logged and
// skipped. A normal close returns nil.
func (c *Conn) ReadEvents(ctx context.Context, fn func(*protocol.Event)) error {
	stop := context.AfterFunc(ctx, func() {
		c.ws.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		if c.config.ReadTimeout > 0 {
			c.ws.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		}
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			c.logger.Warn("frame decode error", "error", err)
			continue
		}
		if frame.Type != protocol.FrameEvent {
			c.logger.Warn("unexpected frame type", "type", frame.Type)
			continue
		}
		ev, err := protocol.DecodeEvent(frame.Payload)
		if err != nil {
			c.logger.Warn("event decode error", "error", err)
			continue
		}
		fn(ev)
	}
}

// Close sends a close message and closes the websocket.
func (c *Conn) Close() error {
	c.mu.Lock()
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.mu.Unlock()
	return c.ws.Close()
}
