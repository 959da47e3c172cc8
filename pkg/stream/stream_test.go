package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/vtree/pkg/live"
	"github.com/vango-dev/vtree/pkg/protocol"
	"github.com/vango-dev/vtree/pkg/render"
	"github.com/vango-dev/vtree/pkg/vdom"
)

func items(keys ...string) []*vdom.Node {
	lis := make([]*vdom.Node, len(keys))
	for i, k := range keys {
		lis[i] = vdom.El("li", vdom.Key(k), vdom.A("data-k", k), k)
	}
	return []*vdom.Node{vdom.El("ul", vdom.ID("list"), lis)}
}

// wire encodes and decodes ops the way a client would receive them.
func wire(t *testing.T, ops []protocol.Op) []protocol.Op {
	t.Helper()
	frame, err := protocol.DecodeFrame((&protocol.Frame{Type: protocol.FrameOps, Payload: protocol.EncodeOps(ops)}).Encode())
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := protocol.DecodeOps(frame.Payload)
	if err != nil {
		t.Fatal(err)
	}
	return decoded
}

func TestReplicaMirrorsServer(t *testing.T) {
	server := NewTree()
	a := live.NewApplier(server)
	client := live.NewMemTree()
	replica := NewReplica(client)

	prev := items("a", "b", "c")
	if err := a.Mount(prev); err != nil {
		t.Fatal(err)
	}
	if err := replica.Apply(wire(t, server.Take())); err != nil {
		t.Fatal(err)
	}
	if got, want := client.HTML(), render.String(prev); got != want {
		t.Fatalf("after mount\n got  %s\n want %s", got, want)
	}

	for _, keys := range [][]string{{"c", "a", "b"}, {"b", "d"}, {}, {"e", "a"}} {
		next := items(keys...)
		var matches []live.Match
		d := vdom.Differ{OnMatch: live.Record(&matches)}
		if err := a.Apply(d.Diff(prev, next)); err != nil {
			t.Fatal(err)
		}
		a.Adopt(matches)
		if err := replica.Apply(wire(t, server.Take())); err != nil {
			t.Fatal(err)
		}
		if got, want := client.HTML(), render.String(next); got != want {
			t.Fatalf("keys %v\n got  %s\n want %s", keys, got, want)
		}
		prev = next
	}
}

func TestTreeRecordsOps(t *testing.T) {
	tr := NewTree()
	ref, _ := tr.CreateElement(vdom.El("p", vdom.Key("k"), vdom.A("class", "x")))
	_ = tr.AppendChild(tr.Root(), ref)
	_ = tr.SetText(ref, "hi")

	ops := tr.Take()
	if len(ops) != 3 {
		t.Fatalf("ops = %v", ops)
	}
	if _, ok := ops[0].Attrs["key"]; ok {
		t.Error("key must not be sent as an attribute")
	}
	if ops[1].Kind != protocol.OpAppend || ops[1].Parent != protocol.RootID {
		t.Errorf("append op = %s", ops[1])
	}
	if tr.Pending() != 0 {
		t.Error("Take should clear the buffer")
	}
	if err := tr.SetText("bogus", "x"); err == nil {
		t.Error("foreign refs should be rejected")
	}

	ref, _ = tr.CreateElement(vdom.El("p"))
	_ = tr.AppendChild(tr.Root(), ref)
	if err := tr.Reset(); err != nil {
		t.Fatal(err)
	}
	ops = tr.Take()
	if len(ops) != 1 || ops[0].Kind != protocol.OpReset {
		t.Errorf("ops after Reset = %v, want only the reset", ops)
	}
}

func TestDispatch(t *testing.T) {
	tr := NewTree()
	var got []vdom.Event
	ref, _ := tr.CreateElement(vdom.El("button"))
	_ = tr.BindEvent(ref, "click", func(e vdom.Event) { got = append(got, e) })

	id := uint64(ref.(Handle))
	if !tr.Dispatch(&protocol.Event{ID: id, Name: "click", Payload: "p"}) {
		t.Fatal("Dispatch found no handler")
	}
	if tr.Dispatch(&protocol.Event{ID: id, Name: "input"}) {
		t.Error("unbound event dispatched")
	}
	_ = tr.BindEvent(ref, "click", nil)
	if tr.Dispatch(&protocol.Event{ID: id, Name: "click"}) {
		t.Error("unbound handler still dispatched")
	}
	if len(got) != 1 || got[0].Payload != "p" {
		t.Errorf("events = %v", got)
	}
}

func TestConnRoundTrip(t *testing.T) {
	clicked := make(chan string, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Error(err)
			return
		}
		conn := NewConn(ws, ConnConfig{})
		defer conn.Close()

		tree := NewTree()
		a := live.NewApplier(tree)
		roots := []*vdom.Node{vdom.El("button", vdom.On{Event: "click", Handler: func(e vdom.Event) {
			clicked <- e.Payload.(string)
		}}, "Go")}
		if err := a.Mount(roots); err != nil {
			t.Error(err)
			return
		}
		if err := conn.Flush(tree); err != nil {
			t.Error(err)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		_ = conn.ReadEvents(ctx, func(ev *protocol.Event) {
			tree.Dispatch(ev)
		})
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Close()

	_, msg, err := ws.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	frame, err := protocol.DecodeFrame(msg)
	if err != nil {
		t.Fatal(err)
	}
	if frame.Type != protocol.FrameOps || frame.Seq != 1 {
		t.Fatalf("frame = %v seq %d", frame.Type, frame.Seq)
	}
	ops, err := protocol.DecodeOps(frame.Payload)
	if err != nil {
		t.Fatal(err)
	}

	client := live.NewMemTree()
	replica := NewReplica(client)
	replica.OnEvent = func(ev *protocol.Event) {
		out := &protocol.Frame{Type: protocol.FrameEvent, Seq: 1, Payload: protocol.EncodeEvent(ev)}
		if err := ws.WriteMessage(websocket.BinaryMessage, out.Encode()); err != nil {
			t.Error(err)
		}
	}
	if err := replica.Apply(ops); err != nil {
		t.Fatal(err)
	}
	if got := client.HTML(); got != "<button>Go</button>" {
		t.Fatalf("client HTML = %s", got)
	}

	button := client.Children()[0]
	if !client.Fire(button, "click", "payload") {
		t.Fatal("client button has no click binding")
	}
	select {
	case p := <-clicked:
		if p != "payload" {
			t.Errorf("payload = %q", p)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server handler was not called")
	}
}
