package live

import (
	"errors"
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"

	vterrors "github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/render"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// cycle diffs prev against next, applies the patches and adopts the matches.
func cycle(t *testing.T, a *Applier, prev, next []*vdom.Node) []vdom.Patch {
	t.Helper()
	var matches []Match
	d := vdom.Differ{OnMatch: Record(&matches)}
	patches := d.Diff(prev, next)
	if err := a.Apply(patches); err != nil {
		t.Fatalf("Apply: %v\npatches: %v", err, patches)
	}
	a.Adopt(matches)
	return patches
}

// checkMounted verifies the live tree mirrors roots and that exactly the
// nodes of roots have handles.
func checkMounted(t *testing.T, a *Applier, m *MemTree, roots []*vdom.Node) {
	t.Helper()
	if got, want := m.HTML(), render.String(roots); got != want {
		t.Fatalf("live tree mismatch\n got  %s\n want %s", got, want)
	}
	all := vdom.Flatten(roots)
	if a.Len() != len(all) {
		t.Errorf("side table has %d entries, tree has %d nodes", a.Len(), len(all))
	}
	for _, n := range all {
		if _, ok := a.Ref(n); !ok {
			t.Errorf("%s has no handle", n)
		}
	}
}

func list(keys ...string) []*vdom.Node {
	items := make([]*vdom.Node, len(keys))
	for i, k := range keys {
		items[i] = vdom.El("li", vdom.Key(k), k)
	}
	return []*vdom.Node{vdom.El("ul", items)}
}

func TestMount(t *testing.T) {
	m := NewMemTree()
	a := NewApplier(m)
	roots := []*vdom.Node{
		vdom.El("div", vdom.ID("app"), vdom.El("p", "hi"), vdom.El("input", vdom.A("disabled", ""))),
		vdom.El("footer", "bye"),
	}
	if err := a.Mount(roots); err != nil {
		t.Fatal(err)
	}
	checkMounted(t, a, m, roots)

	// Mounting again replaces the content.
	again := list("a")
	if err := a.Mount(again); err != nil {
		t.Fatal(err)
	}
	checkMounted(t, a, m, again)
}

func TestKeyedReorderMovesLiveElements(t *testing.T) {
	m := NewMemTree()
	a := NewApplier(m)
	prev := list("a", "b", "c")
	if err := a.Mount(prev); err != nil {
		t.Fatal(err)
	}
	before := map[string]*Element{}
	for _, li := range m.Children()[0].Children {
		before[li.Text] = li
	}
	creates := m.Calls["create"]

	next := list("c", "a", "b")
	patches := cycle(t, a, prev, next)
	checkMounted(t, a, m, next)

	for _, p := range patches {
		if p.Op != vdom.PatchMove {
			t.Errorf("unexpected patch %s", p)
		}
	}
	if m.Calls["create"] != creates {
		t.Errorf("reorder created %d elements", m.Calls["create"]-creates)
	}
	for _, li := range m.Children()[0].Children {
		if before[li.Text] != li {
			t.Errorf("element for %q was replaced", li.Text)
		}
	}
}

func TestKeyedTagChange(t *testing.T) {
	m := NewMemTree()
	a := NewApplier(m)
	prev := []*vdom.Node{vdom.El("li", vdom.Key("a"), "x")}
	if err := a.Mount(prev); err != nil {
		t.Fatal(err)
	}
	next := []*vdom.Node{vdom.El("p", vdom.Key("a"), "x")}
	if patches := cycle(t, a, prev, next); len(patches) == 0 {
		t.Fatal("tag change produced no patches")
	}
	checkMounted(t, a, m, next)
	if got := m.HTML(); got != "<p>x</p>" {
		t.Errorf("HTML() = %q, want <p>x</p>", got)
	}
}

func TestApplyAllOps(t *testing.T) {
	m := NewMemTree()
	a := NewApplier(m)
	clicks := 0
	click := func(vdom.Event) { clicks++ }

	prev := []*vdom.Node{vdom.El("div", vdom.Key("root"), vdom.Class("a"), vdom.A("title", "t"),
		vdom.El("p", "old"),
		vdom.El("span", vdom.Key("x"), "x"),
		vdom.El("span", vdom.Key("y"), "y"),
	)}
	next := []*vdom.Node{vdom.El("div", vdom.Key("root"), vdom.Class("b"), vdom.On{Event: "click", Handler: click},
		vdom.El("span", vdom.Key("y"), "y!"),
		vdom.El("p", "new"),
		vdom.El("em", "appended"),
	)}
	if err := a.Mount(prev); err != nil {
		t.Fatal(err)
	}
	patches := cycle(t, a, prev, next)
	checkMounted(t, a, m, next)

	ops := map[vdom.PatchOp]bool{}
	for _, p := range patches {
		ops[p.Op] = true
	}
	for _, op := range []vdom.PatchOp{vdom.PatchRemove, vdom.PatchMove, vdom.PatchAppend,
		vdom.PatchChangeText, vdom.PatchChangeAttrs, vdom.PatchBindEvents} {
		if !ops[op] {
			t.Errorf("expected a %s patch in %v", op, patches)
		}
	}

	div, _ := a.Ref(next[0])
	if !m.Fire(div, "click", nil) || clicks != 1 {
		t.Errorf("click handler not bound, clicks = %d", clicks)
	}
}

func TestUnbindEvent(t *testing.T) {
	m := NewMemTree()
	a := NewApplier(m)
	h := func(vdom.Event) {}
	prev := []*vdom.Node{vdom.El("button", vdom.On{Event: "click", Handler: h})}
	next := []*vdom.Node{vdom.El("button")}
	if err := a.Mount(prev); err != nil {
		t.Fatal(err)
	}
	cycle(t, a, prev, next)
	ref, _ := a.Ref(next[0])
	if m.Fire(ref, "click", nil) {
		t.Error("handler should be unbound")
	}
}

func TestApplyFailureMarksStale(t *testing.T) {
	m := NewMemTree()
	a := NewApplier(m)
	prev := list("a")
	if err := a.Mount(prev); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	m.Fail = func(op string, _ Ref) error {
		if op == "setText" {
			return boom
		}
		return nil
	}
	next := []*vdom.Node{vdom.El("ul", vdom.El("li", vdom.Key("a"), "changed"))}
	err := a.Apply(vdom.Diff(prev, next))
	if !vterrors.HasCode(err, "E401") || !errors.Is(err, boom) {
		t.Fatalf("err = %v, want E401 wrapping boom", err)
	}
	if a.Stale() == nil {
		t.Fatal("applier should be stale")
	}

	m.Fail = nil
	if err := a.Apply(nil); !vterrors.HasCode(err, "E402") {
		t.Errorf("Apply on stale applier = %v, want E402", err)
	}

	if err := a.Mount(next); err != nil {
		t.Fatal(err)
	}
	if a.Stale() != nil {
		t.Error("Mount should clear the stale state")
	}
	checkMounted(t, a, m, next)
}

func TestApplyUnknownNode(t *testing.T) {
	a := NewApplier(NewMemTree())
	stranger := vdom.El("p")
	err := a.Apply([]vdom.Patch{{Op: vdom.PatchChangeText, Target: stranger, Text: "x"}})
	if !vterrors.HasCode(err, "E403") {
		t.Errorf("err = %v, want E403", err)
	}
	if vterrors.CategoryOf(err) != vterrors.CategoryPatch {
		t.Errorf("category = %q", vterrors.CategoryOf(err))
	}
}

// randomTree builds a sibling list from keys with random markup around them.
func randomTree(f *gofakeit.Faker, keys []string, keyed bool, depth int) []*vdom.Node {
	out := make([]*vdom.Node, 0, len(keys))
	for _, k := range keys {
		args := []any{f.Word()}
		if keyed {
			args = append(args, vdom.Key(k))
		}
		if f.Bool() {
			args = append(args, vdom.A("title", f.Word()))
		}
		if f.Bool() {
			args = append(args, vdom.Class(f.RandomString([]string{"a", "b", "a b"})))
		}
		if depth > 0 && f.Bool() {
			var sub []string
			n := f.Number(0, 4)
			for i := 0; i < n; i++ {
				sub = append(sub, fmt.Sprintf("%s.%d", k, f.Number(0, 5)))
			}
			args = append(args, randomTree(f, dedupe(sub), keyed, depth-1))
		}
		tag := f.RandomString([]string{"li", "p", "span"})
		out = append(out, vdom.El(tag, args...))
	}
	return out
}

func dedupe(keys []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

func randomKeys(f *gofakeit.Faker, universe []string) []string {
	keys := append([]string(nil), universe...)
	f.ShuffleStrings(keys)
	return keys[:f.Number(0, len(keys))]
}

func TestRoundTripRandomized(t *testing.T) {
	universe := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for _, keyed := range []bool{true, false} {
		for seed := uint64(1); seed <= 40; seed++ {
			t.Run(fmt.Sprintf("keyed=%v/seed=%d", keyed, seed), func(t *testing.T) {
				f := gofakeit.New(seed)
				m := NewMemTree()
				a := NewApplier(m)

				prev := []*vdom.Node{vdom.El("ul", randomTree(f, randomKeys(f, universe), keyed, 2))}
				if err := a.Mount(prev); err != nil {
					t.Fatal(err)
				}
				// Several cycles, so later ones run against adopted handles.
				for i := 0; i < 3; i++ {
					next := []*vdom.Node{vdom.El("ul", randomTree(f, randomKeys(f, universe), keyed, 2))}
					cycle(t, a, prev, next)
					checkMounted(t, a, m, next)
					prev = next
				}
			})
		}
	}
}

func TestIdempotentCycle(t *testing.T) {
	m := NewMemTree()
	a := NewApplier(m)
	prev := list("a", "b")
	if err := a.Mount(prev); err != nil {
		t.Fatal(err)
	}
	calls := totalCalls(m)
	snapshot := m.HTML()
	if patches := cycle(t, a, prev, list("a", "b")); len(patches) != 0 {
		t.Errorf("patches = %v, want none", patches)
	}
	if totalCalls(m) != calls || m.HTML() != snapshot {
		t.Error("identical render touched the live tree")
	}
}

func totalCalls(m *MemTree) int {
	n := 0
	for _, c := range m.Calls {
		n += c
	}
	return n
}

func TestSnapshot(t *testing.T) {
	m := NewMemTree()
	a := NewApplier(m)
	roots := []*vdom.Node{vdom.El("p", vdom.ID("x"), "t", vdom.El("b", "c"))}
	if err := a.Mount(roots); err != nil {
		t.Fatal(err)
	}
	snap := m.Snapshot()
	if diff := cmp.Diff(render.String(roots), render.String(snap)); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
	if snap[0].ID != "x" || snap[0].Children[0].Parent != snap[0] {
		t.Error("snapshot nodes should have derived fields and parent links")
	}
}
