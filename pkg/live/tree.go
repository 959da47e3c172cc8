package live

import "github.com/vango-dev/vtree/pkg/vdom"

// Ref is an opaque live-tree handle.
type Ref any

// LiveTree is the rendering surface patches are applied to.
//
// InsertBefore with a ref that is already attached relocates it.
// BindEvent with a nil handler removes the binding.
type LiveTree interface {
	// Root returns the container of the top-level sibling list.
	Root() Ref

	// CreateElement creates a detached element with n's tag and attributes.
	CreateElement(n *vdom.Node) (Ref, error)

	InsertBefore(parent, ref, anchor Ref) error
	AppendChild(parent, ref Ref) error
	RemoveChild(ref Ref) error
	SetAttribute(ref Ref, key, value string) error
	RemoveAttribute(ref Ref, key string) error
	SetText(ref Ref, text string) error
	BindEvent(ref Ref, event string, h vdom.Handler) error
}

// Resetter is implemented by live trees that can drop everything under
// Root. Mount calls it before a full render.
type Resetter interface {
	Reset() error
}
