// Package live replays vdom patches against a live tree.
//
// A LiveTree is the rendering surface: a browser DOM behind a websocket, an
// in-memory tree in tests, or anything else that can create, attach and
// mutate elements. The Applier keeps the only mapping from virtual nodes
// to live handles, so the node model itself holds no live state.
//
// A render cycle looks like:
//
//	var matches []live.Match
//	d := vdom.Differ{OnMatch: live.Record(&matches)}
//	patches := d.Diff(prevRoots, nextRoots)
//	if err := applier.Apply(patches); err != nil {
//		// the live tree is partially updated; Mount again to recover
//	}
//	applier.Adopt(matches)
//
// After Adopt, nextRoots are the mounted tree and prevRoots can be dropped.
package live
