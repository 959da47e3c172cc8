// Package bind resolves a built template tree against a data context.
//
// Binding runs three steps on a private clone of the template:
//
//   - Interpolation replaces {{name}} and {{a.b.c}} in text and attribute
//     values. Tokens that do not resolve are left verbatim.
//   - Event extraction moves on<event>="{{:handler}}" attributes into the
//     node's event bindings, looking the handler up in Binder.Handlers.
//   - Control expansion replaces each @foreach node with one clone of its
//     children per collection entry, and each @if node with its children
//     when the condition holds, or with nothing.
//
// The result contains no control nodes and is ready for vdom.Diff.
package bind
