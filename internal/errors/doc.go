// Package errors provides structured, actionable errors for vtree.
//
// Every failure surfaced by the render pipeline carries a code that maps to
// a registered template:
//   - build: malformed markup found while building the node tree
//   - binding: event bindings that reference unknown handlers
//   - render: condition evaluation failures and re-entrant render cycles
//   - patch: live tree primitives that rejected an operation
//   - config: unreadable or invalid vtree.json
//
// Errors can point at a position in the template source. When the source is
// attached, Format prints the surrounding lines with a caret under the column.
//
// # Usage
//
//	err := errors.New("E101").
//	    WithDetail("<ul> opened on line 3 was never closed").
//	    WithSource("list.html", src, 3, 5)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E101: Unclosed element at end of template
//	//
//	//   list.html:3:5
//	//
//	//      2 │ <div>
//	//   →  3 │     <ul>
//	//        │     ^
//	//      4 │ </div>
//	//
//	//   <ul> opened on line 3 was never closed
package errors
