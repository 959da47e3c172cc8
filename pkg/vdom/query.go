package vdom

import "strings"

// Nodes is a document-order node list. The query methods never fail; they
// return nil or an empty result when nothing matches.
type Nodes []*Node

// GetElementByID returns the first node whose id matches. An empty id never
// matches.
func (ns Nodes) GetElementByID(id string) *Node {
	if id == "" {
		return nil
	}
	for _, n := range ns {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// GetElementsByClassName returns the nodes carrying the class token.
func (ns Nodes) GetElementsByClassName(name string) Nodes {
	return ns.filter(func(n *Node) bool { return n.HasClass(name) })
}

// GetElementsByTagName returns the nodes with the given tag.
func (ns Nodes) GetElementsByTagName(tag string) Nodes {
	return ns.filter(func(n *Node) bool { return n.Tag == tag })
}

// GetElementsByAttribute returns the nodes whose attribute equals value.
// An empty attribute value never matches.
func (ns Nodes) GetElementsByAttribute(name, value string) Nodes {
	return ns.filter(func(n *Node) bool {
		v, ok := n.Attrs[name]
		return ok && v != "" && v == value
	})
}

// QuerySelectorAll resolves a minimal selector: "#id", ".class",
// "[attr=value]" or a bare tag name. Any other prefix is matched as a tag.
func (ns Nodes) QuerySelectorAll(selector string) Nodes {
	if selector == "" {
		return nil
	}
	switch selector[0] {
	case '#':
		id := selector[1:]
		if id == "" {
			return nil
		}
		return ns.filter(func(n *Node) bool { return n.ID == id })
	case '.':
		return ns.GetElementsByClassName(selector[1:])
	case '[':
		formula := strings.TrimSuffix(selector[1:], "]")
		name, value, _ := strings.Cut(formula, "=")
		return ns.GetElementsByAttribute(name, value)
	default:
		return ns.GetElementsByTagName(selector)
	}
}

// QuerySelector returns the first match of QuerySelectorAll, or nil.
func (ns Nodes) QuerySelector(selector string) *Node {
	if all := ns.QuerySelectorAll(selector); len(all) > 0 {
		return all[0]
	}
	return nil
}

func (ns Nodes) filter(keep func(*Node) bool) Nodes {
	var out Nodes
	for _, n := range ns {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}

// GetElementByID searches the whole tree.
func (t *Tree) GetElementByID(id string) *Node { return t.Nodes.GetElementByID(id) }

// GetElementsByClassName searches the whole tree.
func (t *Tree) GetElementsByClassName(name string) Nodes {
	return t.Nodes.GetElementsByClassName(name)
}

// GetElementsByTagName searches the whole tree.
func (t *Tree) GetElementsByTagName(tag string) Nodes { return t.Nodes.GetElementsByTagName(tag) }

// GetElementsByAttribute searches the whole tree.
func (t *Tree) GetElementsByAttribute(name, value string) Nodes {
	return t.Nodes.GetElementsByAttribute(name, value)
}

// QuerySelector searches the whole tree.
func (t *Tree) QuerySelector(selector string) *Node { return t.Nodes.QuerySelector(selector) }

// QuerySelectorAll searches the whole tree.
func (t *Tree) QuerySelectorAll(selector string) Nodes { return t.Nodes.QuerySelectorAll(selector) }

// QuerySelector searches the descendants of n.
func (n *Node) QuerySelector(selector string) *Node { return n.Descendants().QuerySelector(selector) }

// QuerySelectorAll searches the descendants of n.
func (n *Node) QuerySelectorAll(selector string) Nodes {
	return n.Descendants().QuerySelectorAll(selector)
}
