package expr

import "sort"

// Walk calls visit once per distinct node reachable from root, children
// before parents. Returning false from visit stops the walk.
func Walk(root Node, visit func(Node) bool) {
	seen := map[ID]bool{}
	var walk func(n Node) bool
	walk = func(n Node) bool {
		if seen[n.ID()] {
			return true
		}
		seen[n.ID()] = true
		for _, c := range n.Children() {
			if !walk(c) {
				return false
			}
		}
		return visit(n)
	}
	walk(root)
}

// Count is the number of distinct nodes reachable from root.
func Count(root Node) int {
	n := 0
	Walk(root, func(Node) bool { n++; return true })
	return n
}

// Refs lists the free placeholders a graph depends on.
type Refs struct {
	Time   bool
	Inputs []string // sorted, unique
	States []*StateVector
	// StateSize is one past the largest state row referenced.
	StateSize int
}

// References collects the placeholders reachable from root.
func References(root Node) Refs {
	var r Refs
	inputs := map[string]bool{}
	Walk(root, func(n Node) bool {
		switch v := n.(type) {
		case *Time:
			r.Time = true
		case *Input:
			if !inputs[v.input] {
				inputs[v.input] = true
				r.Inputs = append(r.Inputs, v.input)
			}
		case *StateVector:
			r.States = append(r.States, v)
			for _, s := range v.slices {
				if s.Stop > r.StateSize {
					r.StateSize = s.Stop
				}
			}
		}
		return true
	})
	sort.Strings(r.Inputs)
	return r
}
