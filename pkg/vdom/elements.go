package vdom

// voidElements are elements that cannot have children.
var voidElements = map[string]bool{
	"area":    true,
	"base":    true,
	"br":      true,
	"col":     true,
	"command": true,
	"embed":   true,
	"hr":      true,
	"img":     true,
	"input":   true,
	"keygen":  true,
	"link":    true,
	"meta":    true,
	"param":   true,
	"source":  true,
	"track":   true,
	"wbr":     true,
}

// IsVoidElement returns true if the tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// Attr is a single attribute passed to El.
type Attr struct {
	Key   string
	Value string
}

// A creates an attribute.
func A(key, value string) Attr { return Attr{Key: key, Value: value} }

// Key sets the reconciliation key.
func Key(key string) Attr { return A("key", key) }

// ID sets the id attribute.
func ID(id string) Attr { return A("id", id) }

// Class sets the class attribute.
func Class(class string) Attr { return A("class", class) }

// On binds a handler to an event.
type On struct {
	Event   string
	Handler Handler
}

// El builds a node programmatically. Arguments can be: nil, Attr, []Attr,
// map[string]string, On, string (text payload), *Node or []*Node.
//
//	El("ul", Class("items"),
//	    El("li", Key("a"), "first"),
//	    El("li", Key("b"), "second"),
//	)
func El(tag string, args ...any) *Node {
	n := &Node{Tag: tag, Attrs: make(map[string]string)}
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			continue
		case Attr:
			if v.Key != "" {
				n.Attrs[v.Key] = v.Value
			}
		case []Attr:
			for _, a := range v {
				if a.Key != "" {
					n.Attrs[a.Key] = a.Value
				}
			}
		case map[string]string:
			for k, val := range v {
				n.Attrs[k] = val
			}
		case On:
			n.Bind(v.Event, v.Handler)
		case string:
			n.Text += v
		case *Node:
			if v != nil {
				n.AppendChild(v)
			}
		case []*Node:
			for _, c := range v {
				if c != nil {
					n.AppendChild(c)
				}
			}
		}
	}
	n.Refresh()
	return n
}
