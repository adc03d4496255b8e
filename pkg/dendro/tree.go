package dendro

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	// ErrMalformedRecord is returned by [Build] when an input record carries
	// neither node_attributes nor leaf_attributes, or no usable accession.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrDuplicateName is returned by [Build] and [Tree.Add] when two records
	// resolve to the same cell_set_accession. Names are the table's primary
	// key and must be unique.
	ErrDuplicateName = errors.New("duplicate node name")

	// ErrMissingAncestor is returned when a node's ancestor chain references
	// a name not present in the table. During a top-down build the parent is
	// always registered first, so this indicates malformed chain data.
	ErrMissingAncestor = errors.New("missing ancestor")

	// ErrClosureInvariant is returned by [Tree.ComputeDescendants] when a
	// descendant set ends up with duplicate entries. This signals a defect in
	// construction (duplicate registration, cyclic ancestry) rather than
	// ordinary malformed input.
	ErrClosureInvariant = errors.New("closure invariant violated")

	// ErrNoRoot is returned by [Tree.Validate] when the table has no node
	// with an empty ancestor chain.
	ErrNoRoot = errors.New("tree has no root")

	// ErrLevelMismatch is returned by [Tree.Validate] when a node's level
	// differs from the length of its ancestor chain.
	ErrLevelMismatch = errors.New("level does not match ancestor chain")

	// ErrBrokenLink is returned by [Tree.Validate] when parent/child links
	// disagree with the recorded ancestor chains.
	ErrBrokenLink = errors.New("broken parent/child link")
)

// Tree is the flat table of dendrogram nodes, keyed by cell_set_accession.
//
// A Tree is assembled by [Build] (or by [New] plus [Tree.Add] when restoring
// a serialized tree) and is read-only after construction and the optional
// closure pass. It is safe for concurrent reads but not for concurrent
// mutation.
type Tree struct {
	nodes map[string]*Node
	root  string
}

// New creates an empty tree. Most callers want [Build] instead; New exists
// for restoring trees from serialized form.
func New() *Tree {
	return &Tree{nodes: make(map[string]*Node)}
}

// Add inserts a node into the table. It returns [ErrDuplicateName] if the
// name is already present. A node with an empty ancestor chain becomes the
// root. Add does not link the node to its parent; the builder and the
// restore path maintain child links themselves.
func (t *Tree) Add(n *Node) error {
	if _, exists := t.nodes[n.name]; exists {
		return fmt.Errorf("node %s: %w", n.name, ErrDuplicateName)
	}
	t.nodes[n.name] = n
	if n.IsRoot() {
		t.root = n.name
	}
	return nil
}

// Node returns the node with the given name and true, or nil and false.
func (t *Tree) Node(name string) (*Node, bool) {
	n, ok := t.nodes[name]
	return n, ok
}

// Len returns the number of nodes in the table.
func (t *Tree) Len() int { return len(t.nodes) }

// Root returns the root node, or nil for an empty tree.
func (t *Tree) Root() *Node { return t.nodes[t.root] }

// Names returns all node names in sorted order.
func (t *Tree) Names() []string {
	return slices.Sorted(maps.Keys(t.nodes))
}

// Nodes returns all nodes ordered by name. The pointers refer to the actual
// table entries.
func (t *Tree) Nodes() []*Node {
	nodes := make([]*Node, 0, len(t.nodes))
	for _, name := range t.Names() {
		nodes = append(nodes, t.nodes[name])
	}
	return nodes
}

// Leaves returns all nodes with no direct children, ordered by name.
func (t *Tree) Leaves() []*Node {
	var leaves []*Node
	for _, n := range t.Nodes() {
		if n.IsLeaf() {
			leaves = append(leaves, n)
		}
	}
	return leaves
}

// MaxLevel returns the deepest level present, or -1 for an empty tree.
func (t *Tree) MaxLevel() int {
	max := -1
	for _, n := range t.nodes {
		if n.level > max {
			max = n.level
		}
	}
	return max
}

// NodesAtLevel returns all nodes at the given depth, ordered by name.
func (t *Tree) NodesAtLevel(level int) []*Node {
	var out []*Node
	for _, n := range t.Nodes() {
		if n.level == level {
			out = append(out, n)
		}
	}
	return out
}

// Validate checks structural integrity and returns nil if the table is
// consistent:
//
//  1. Exactly one root exists, at level 0.
//  2. Every node's level equals the length of its ancestor chain.
//  3. Every ancestor name exists in the table, and each node's immediate
//     parent lists it as a direct child.
//  4. Every direct child exists and records this node as its last ancestor.
//  5. If the closure pass has run, descendant lists are duplicate-free and
//     contain all direct children.
//
// Use this after restoring a tree from external data; trees built by [Build]
// satisfy the construction invariants already.
func (t *Tree) Validate() error {
	root := t.Root()
	if root == nil {
		return ErrNoRoot
	}
	if root.level != 0 {
		return fmt.Errorf("root %s at level %d: %w", root.name, root.level, ErrLevelMismatch)
	}
	for name, n := range t.nodes {
		if n.level != len(n.ancestors) {
			return fmt.Errorf("node %s: level %d with %d ancestors: %w", name, n.level, len(n.ancestors), ErrLevelMismatch)
		}
		if n.IsRoot() && name != t.root {
			return fmt.Errorf("second root %s: %w", name, ErrBrokenLink)
		}
		for _, a := range n.ancestors {
			if _, ok := t.nodes[a]; !ok {
				return fmt.Errorf("node %s: ancestor %s: %w", name, a, ErrMissingAncestor)
			}
		}
		if p := n.Parent(); p != "" {
			if !slices.Contains(t.nodes[p].children, name) {
				return fmt.Errorf("node %s not listed by parent %s: %w", name, p, ErrBrokenLink)
			}
		}
		for _, c := range n.children {
			child, ok := t.nodes[c]
			if !ok {
				return fmt.Errorf("node %s: child %s not in table: %w", name, c, ErrBrokenLink)
			}
			if child.Parent() != name {
				return fmt.Errorf("child %s does not name %s as parent: %w", c, name, ErrBrokenLink)
			}
		}
		if n.descendants != nil {
			if err := checkDescendants(n); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkDescendants(n *Node) error {
	seen := make(map[string]struct{}, len(n.descendants))
	for _, d := range n.descendants {
		if _, dup := seen[d]; dup {
			return fmt.Errorf("node %s: duplicate descendant %s: %w", n.name, d, ErrClosureInvariant)
		}
		seen[d] = struct{}{}
	}
	for _, c := range n.children {
		if _, ok := seen[c]; !ok {
			return fmt.Errorf("node %s: child %s missing from descendants: %w", n.name, c, ErrClosureInvariant)
		}
	}
	return nil
}
