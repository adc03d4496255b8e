package dendro

import "slices"

// Node is a single entry in the dendrogram table. It records the node's
// identity, its complete ancestor chain (root first), its depth, and the
// names of the nodes below it.
//
// A Node's identity and ancestor chain are fixed at construction; only the
// builder appends children and only the closure pass fills the descendant
// list. Accessors return copies, so callers cannot corrupt internal state
// through a returned slice.
type Node struct {
	name        string
	ancestors   []string
	ancestorSet map[string]struct{}
	level       int
	children    []string
	descendants []string
}

// NewNode creates a node with the given name, ancestor chain and level.
// The ancestors slice is copied; pass nil for the root. Level 0 is the
// common ancestor of the whole tree.
func NewNode(name string, ancestors []string, level int) *Node {
	set := make(map[string]struct{}, len(ancestors))
	for _, a := range ancestors {
		set[a] = struct{}{}
	}
	return &Node{
		name:        name,
		ancestors:   slices.Clone(ancestors),
		ancestorSet: set,
		level:       level,
	}
}

// Name returns the node's cell_set_accession.
func (n *Node) Name() string { return n.name }

// Level returns the node's depth in the tree. The root is at level 0.
func (n *Node) Level() int { return n.level }

// Ancestors returns a copy of the node's ancestor chain, ordered from the
// root down to the immediate parent. The root returns an empty chain.
func (n *Node) Ancestors() []string { return slices.Clone(n.ancestors) }

// Parent returns the name of the immediate parent, or "" for the root.
func (n *Node) Parent() string {
	if len(n.ancestors) == 0 {
		return ""
	}
	return n.ancestors[len(n.ancestors)-1]
}

// IsRoot reports whether the node has no ancestors.
func (n *Node) IsRoot() bool { return len(n.ancestors) == 0 }

// IsLeaf reports whether the node has no direct children.
func (n *Node) IsLeaf() bool { return len(n.children) == 0 }

// DescendedFrom reports whether name appears anywhere in this node's
// ancestor chain. The test is a set lookup, not a scan, and is false for
// the node itself and for any non-ancestor.
func (n *Node) DescendedFrom(name string) bool {
	_, ok := n.ancestorSet[name]
	return ok
}

// AddChild appends name to the node's direct children. Call order is the
// discovery order during tree construction and is preserved.
func (n *Node) AddChild(name string) {
	n.children = append(n.children, name)
}

// Children returns a copy of the names of the node's immediate children,
// in discovery order.
func (n *Node) Children() []string { return slices.Clone(n.children) }

// Descendants returns a copy of the names of every node transitively
// reachable below this node. It is empty until [Tree.ComputeDescendants]
// has run.
func (n *Node) Descendants() []string { return slices.Clone(n.descendants) }

// HasDescendants reports whether the closure pass has populated this node.
// A leaf legitimately has an empty descendant list, so leaves report true
// once the pass has run on a tree containing them; use this on internal
// nodes only when distinguishing "not computed" from "none".
func (n *Node) HasDescendants() bool { return n.descendants != nil }
