package dendro

import (
	"fmt"
	"slices"
)

// Build walks the nested input document depth-first and returns the flat
// node table. The root record must be the common ancestor of the whole
// dendrogram; it is inserted at level 0 with no ancestors.
//
// Build fails fast on the first defect: a record with neither attribute
// field ([ErrMalformedRecord]), a repeated cell_set_accession
// ([ErrDuplicateName]), or an ancestor chain referencing an unregistered
// parent ([ErrMissingAncestor]). On error the partial table is discarded.
//
// Build does not compute descendant sets; run [Tree.ComputeDescendants]
// afterwards if the closure is needed.
func Build(doc Record) (*Tree, error) {
	t := New()
	if err := t.insert(doc, nil, 0); err != nil {
		return nil, err
	}
	return t, nil
}

// insert adds one record to the table and recurses into its children.
// ancestors is the chain inherited from the caller (nil for the root call)
// and is never mutated; each internal node passes an extended copy down.
func (t *Tree) insert(rec Record, ancestors []string, level int) error {
	name, err := rec.Accession()
	if err != nil {
		return fmt.Errorf("at level %d: %w", level, err)
	}

	n := NewNode(name, ancestors, level)
	if err := t.Add(n); err != nil {
		return err
	}

	// The parent is always registered before its children in a pre-order
	// walk, so a miss here means the chain itself is corrupt.
	if len(ancestors) > 0 {
		parentName := ancestors[len(ancestors)-1]
		parent, ok := t.nodes[parentName]
		if !ok {
			return fmt.Errorf("node %s: parent %s: %w", name, parentName, ErrMissingAncestor)
		}
		parent.AddChild(name)
	}

	if rec.Kind() != KindInternal {
		return nil
	}
	chain := append(slices.Clone(ancestors), name)
	for _, child := range rec.Children {
		if err := t.insert(child, chain, level+1); err != nil {
			return err
		}
	}
	return nil
}
