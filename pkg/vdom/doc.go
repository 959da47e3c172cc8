// Package vdom provides the virtual node tree and its reconciliation engine.
//
// A Node is a lightweight element: a tag, a string attribute map, an optional
// text payload, ordered children and a weak back-reference to its parent.
// Text is modelled as a payload on the element that contains it rather than
// as separate child nodes.
//
// # Trees
//
// Tree holds the flattened document-order node list produced by the markup
// builder or the binder. Roots are the nodes without a parent. The query API
// (GetElementByID, GetElementsByClassName, QuerySelector, ...) is a read-only
// view over that list and never fails: it returns nil or an empty result.
//
// # Diffing
//
// Diff compares two resolved sibling lists and returns an ordered []Patch.
// Nodes are matched by identity: the key attribute when present, otherwise
// a structural signature built from the tag and the sorted attribute names.
// Text is not part of the signature, so a text change diffs as an in-place
// ChangeText rather than a remove and insert.
//
//	patches := vdom.Diff(prev.Roots(), next.Roots())
//	for _, p := range patches {
//	    fmt.Println(p)
//	}
//
// Live handles are not stored on nodes. The live package keeps them in a
// side table, so Diff can be exercised without any live tree.
package vdom
