package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/vtree/pkg/bind"
	"github.com/vango-dev/vtree/pkg/live"
	"github.com/vango-dev/vtree/pkg/protocol"
	"github.com/vango-dev/vtree/pkg/stream"
	"github.com/vango-dev/vtree/pkg/vdom"
	"github.com/vango-dev/vtree/pkg/view"
)

const page = `<div><button id="b" onclick="{{:press}}">{{label}}</button><span id="n">{{events}}</span><@if condition="events > 0"><p>{{event.name}}</p></@if></div>`

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s, err := New(Config{
		Template: page,
		Data:     bind.Data{"label": "Go", "events": 0},
		Registry: prometheus.NewRegistry(),
	})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

// client mirrors the server's live tree the way a browser would.
type client struct {
	t       *testing.T
	ws      *websocket.Conn
	mem     *live.MemTree
	replica *stream.Replica
}

func dial(t *testing.T, ts *httptest.Server) *client {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/live", nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ws.Close() })
	c := &client{t: t, ws: ws, mem: live.NewMemTree()}
	c.replica = stream.NewReplica(c.mem)
	c.replica.OnEvent = func(ev *protocol.Event) {
		frame := &protocol.Frame{Type: protocol.FrameEvent, Seq: 1, Payload: protocol.EncodeEvent(ev)}
		if err := ws.WriteMessage(websocket.BinaryMessage, frame.Encode()); err != nil {
			t.Error(err)
		}
	}
	return c
}

// next reads and applies one ops frame.
func (c *client) next() string {
	c.t.Helper()
	c.ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := c.ws.ReadMessage()
	if err != nil {
		c.t.Fatal(err)
	}
	frame, err := protocol.DecodeFrame(msg)
	if err != nil {
		c.t.Fatal(err)
	}
	if frame.Type != protocol.FrameOps {
		c.t.Fatalf("frame type = %v", frame.Type)
	}
	ops, err := protocol.DecodeOps(frame.Payload)
	if err != nil {
		c.t.Fatal(err)
	}
	if err := c.replica.Apply(ops); err != nil {
		c.t.Fatal(err)
	}
	return c.mem.HTML()
}

func TestPage(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	want := `<div><button id="b">Go</button><span id="n">0</span></div>`
	if string(body) != want {
		t.Errorf("page = %s, want %s", body, want)
	}
}

func TestLiveSession(t *testing.T) {
	s, ts := newTestServer(t)
	c := dial(t, ts)

	if got, want := c.next(), `<div><button id="b">Go</button><span id="n">0</span></div>`; got != want {
		t.Fatalf("mounted = %s, want %s", got, want)
	}

	button := c.mem.Children()[0].Children[0]
	if !c.mem.Fire(button, "click", "") {
		t.Fatal("client button has no click binding")
	}
	if got, want := c.next(), `<div><button id="b">Go</button><span id="n">1</span><p>click</p></div>`; got != want {
		t.Fatalf("after click = %s, want %s", got, want)
	}

	resp, err := http.Post(ts.URL+"/data", "application/json", strings.NewReader(`{"label":"Again"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("POST /data status = %d", resp.StatusCode)
	}
	if got := c.next(); !strings.Contains(got, `<button id="b">Again</button>`) {
		t.Fatalf("after data = %s", got)
	}
	if s.Data()["label"] != "Again" {
		t.Errorf("shared data label = %v", s.Data()["label"])
	}
	if s.Sessions() != 1 {
		t.Errorf("sessions = %d, want 1", s.Sessions())
	}
}

// flakyTree refuses the next failures SetText calls.
type flakyTree struct {
	*stream.Tree
	failures atomic.Int32
}

func (f *flakyTree) SetText(ref live.Ref, text string) error {
	if f.failures.Add(-1) >= 0 {
		return errors.New("set text refused")
	}
	return f.Tree.SetText(ref, text)
}

func onlySession(t *testing.T, s *Server) *session {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		for sess := range s.sessions {
			s.mu.Unlock()
			return sess
		}
		s.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("no session registered")
	return nil
}

func postData(t *testing.T, ts *httptest.Server, body string) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/data", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("POST /data status = %d", resp.StatusCode)
	}
}

func TestSessionRemountsAfterFailedUpdate(t *testing.T) {
	s, ts := newTestServer(t)
	c := dial(t, ts)
	c.next()
	sess := onlySession(t, s)

	// Rebuild the session view over a tree that can refuse operations.
	flaky := &flakyTree{Tree: sess.tree}
	s.mu.Lock()
	data := s.data
	s.mu.Unlock()
	sess.mu.Lock()
	sess.view = s.newView(view.WithLiveTree(flaky), view.WithHandler("press", func(vdom.Event) {}))
	err := sess.view.Render(context.Background(), data)
	if err == nil {
		err = sess.conn.Flush(sess.tree)
	}
	sess.mu.Unlock()
	if err != nil {
		t.Fatal(err)
	}
	c.next()

	flaky.failures.Store(1)
	postData(t, ts, `{"label":"Again"}`)
	if got, want := c.next(), `<div><button id="b">Again</button><span id="n">0</span></div>`; got != want {
		t.Fatalf("after failed update = %s, want %s", got, want)
	}

	sess.mu.Lock()
	stale := sess.view.Stale()
	sess.mu.Unlock()
	if stale != nil {
		t.Fatalf("view still stale: %v", stale)
	}

	postData(t, ts, `{"label":"Third"}`)
	if got := c.next(); !strings.Contains(got, `<button id="b">Third</button>`) {
		t.Fatalf("after recovery = %s", got)
	}
}

func TestDataRejectsInvalidBody(t *testing.T) {
	_, ts := newTestServer(t)
	for _, body := range []string{"", "[1,2]", "{"} {
		resp, err := http.Post(ts.URL+"/data", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestMetricsAndHealth(t *testing.T) {
	_, ts := newTestServer(t)
	c := dial(t, ts)
	c.next()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `vtree_cycles_total{phase="bind",status="ok"}`) {
		t.Errorf("metrics missing bind cycles:\n%s", body)
	}

	resp, err = http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}
}

func TestNewRejectsBadTemplate(t *testing.T) {
	if _, err := New(Config{Template: "<div>"}); err == nil {
		t.Error("expected a build error")
	}
}

func TestSameOriginCheck(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://example.com", true},
		{"http://EXAMPLE.com", true},
		{"http://evil.com", false},
		{"://bad", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "http://example.com/live", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := SameOriginCheck(r); got != tt.want {
			t.Errorf("origin %q = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestRunShutsDown(t *testing.T) {
	s, err := New(Config{Template: "<p></p>", Address: "127.0.0.1:0"})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
