package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/vtree/pkg/bind"
	"github.com/vango-dev/vtree/pkg/protocol"
	"github.com/vango-dev/vtree/pkg/stream"
	"github.com/vango-dev/vtree/pkg/vdom"
	"github.com/vango-dev/vtree/pkg/view"
)

// session is one websocket client and its view.
type session struct {
	conn   *stream.Conn
	tree   *stream.Tree
	logger *slog.Logger

	// mu serializes render cycles; the view is not goroutine-safe.
	mu     sync.Mutex
	view   *view.View
	events int
	ctx    context.Context
}

func (s *Server) newSession(ws *websocket.Conn, id string) *session {
	logger := s.logger.With("session", id)
	sess := &session{
		conn: stream.NewConn(ws, stream.ConnConfig{
			WriteTimeout:   s.config.WriteTimeout,
			MaxMessageSize: s.config.MaxMessageSize,
			Logger:         logger,
		}),
		tree:   stream.NewTree(),
		logger: logger,
	}

	// Every handler named by the template records the event in the data
	// context: event, target and payload of the last event plus a running
	// count.
	handlers := make(map[string]vdom.Handler, len(s.handlers))
	for _, name := range s.handlers {
		name := name
		handlers[name] = func(e vdom.Event) { sess.onEvent(name, e) }
	}
	sess.view = s.newView(view.WithLiveTree(sess.tree), view.WithHandlers(handlers))
	return sess
}

func (sess *session) mount(ctx context.Context, data bind.Data) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.ctx = ctx
	if err := sess.view.Render(ctx, data); err != nil {
		return err
	}
	return sess.conn.Flush(sess.tree)
}

func (sess *session) update(ctx context.Context, data bind.Data) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.apply(ctx, data); err != nil {
		return err
	}
	return sess.conn.Flush(sess.tree)
}

// apply patches the view with data, with mu held. When the cycle leaves the
// live tree stale the view is remounted from the merged data, so the client
// receives a full reset instead of every later cycle failing.
func (sess *session) apply(ctx context.Context, data bind.Data) error {
	_, err := sess.view.Update(ctx, data)
	if err == nil || sess.view.Stale() == nil {
		return err
	}
	sess.logger.Warn("update failed, remounting", "error", err)
	return sess.view.Render(ctx, bind.Merge(sess.view.Data(), data))
}

// onEvent runs inside dispatch, with mu held.
func (sess *session) onEvent(handler string, e vdom.Event) {
	sess.events++
	err := sess.apply(sess.ctx, bind.Data{
		"event": bind.Data{
			"handler": handler,
			"name":    e.Name,
			"payload": e.Payload,
		},
		"events": sess.events,
	})
	if err != nil {
		sess.logger.Warn("event update failed", "handler", handler, "error", err)
	}
}

func (sess *session) dispatch(ev *protocol.Event) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.tree.Dispatch(ev) {
		sess.logger.Debug("event without handler", "id", ev.ID, "event", ev.Name)
		return
	}
	if err := sess.conn.Flush(sess.tree); err != nil {
		sess.logger.Warn("flush failed", "error", err)
	}
}

func (sess *session) run(ctx context.Context) error {
	return sess.conn.ReadEvents(ctx, sess.dispatch)
}

func (sess *session) close() {
	_ = sess.conn.Close()
}
