package vdom

import "fmt"

// CheckInvariants verifies the structural invariants of a resolved tree:
// no cycles, every child points back at its parent exactly once, keys are
// unique among siblings and no control tag survives.
func CheckInvariants(roots []*Node) error {
	seen := make(map[*Node]bool)
	for _, r := range roots {
		if r.Parent != nil {
			return fmt.Errorf("vdom: root <%s> has a parent", r.Tag)
		}
	}
	if err := checkSiblings(roots); err != nil {
		return err
	}

	stack := append([]*Node(nil), roots...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if seen[n] {
			return fmt.Errorf("vdom: node <%s> reachable twice", n.Tag)
		}
		seen[n] = true

		if n.IsControl() {
			return fmt.Errorf("vdom: control tag %s in resolved tree", n.Tag)
		}
		for _, c := range n.Children {
			if c.Parent != n {
				return fmt.Errorf("vdom: child <%s> of <%s> has wrong parent", c.Tag, n.Tag)
			}
		}
		if err := checkSiblings(n.Children); err != nil {
			return err
		}
		stack = append(stack, n.Children...)
	}
	return nil
}

func checkSiblings(siblings []*Node) error {
	keys := make(map[string]bool)
	for _, c := range siblings {
		if c.Key == "" {
			continue
		}
		if keys[c.Key] {
			return fmt.Errorf("vdom: duplicate key %q among siblings", c.Key)
		}
		keys[c.Key] = true
	}
	return nil
}
