package dendro

import "fmt"

// ComputeDescendants derives every node's complete descendant list from the
// direct-child links.
//
// Each node's list is seeded with its direct children, then every node is
// projected into the descendant set of every name in its ancestor chain.
// Since the chain already runs all the way from the root to the immediate
// parent, one pass over all (node, ancestor) pairs fully populates every
// set; the order of iteration does not matter.
//
// After the pass, ComputeDescendants verifies that no list contains
// duplicates. A violation means construction was defective (a node
// registered twice, or cyclic ancestry) and returns [ErrClosureInvariant];
// the tree must not be used in that case.
func (t *Tree) ComputeDescendants() error {
	lookup := make(map[string]map[string]struct{}, len(t.nodes))
	for name, n := range t.nodes {
		n.descendants = append([]string{}, n.children...)
		set := make(map[string]struct{}, len(n.children))
		for _, c := range n.children {
			set[c] = struct{}{}
		}
		lookup[name] = set
	}

	for name, n := range t.nodes {
		for _, a := range n.ancestors {
			set, ok := lookup[a]
			if !ok {
				return fmt.Errorf("node %s: ancestor %s: %w", name, a, ErrMissingAncestor)
			}
			if _, present := set[name]; !present {
				t.nodes[a].descendants = append(t.nodes[a].descendants, name)
				set[name] = struct{}{}
			}
		}
	}

	for name, n := range t.nodes {
		if len(lookup[name]) != len(n.descendants) {
			return fmt.Errorf("node %s: %d entries, %d distinct: %w",
				name, len(n.descendants), len(lookup[name]), ErrClosureInvariant)
		}
	}
	return nil
}
