// Package render serializes resolved node trees to HTML.
//
// Output is deterministic: attributes are written in sorted order, a node's
// text payload comes before its children, empty attribute values are
// written as bare names, and void elements get no closing tag. Text and
// attribute values are escaped.
//
//	html, err := render.NewRenderer(render.Options{}).RenderToString(roots)
//
// With Options.Minify the output is passed through the tdewolff HTML
// minifier, keeping end tags so the structure is unchanged.
package render
