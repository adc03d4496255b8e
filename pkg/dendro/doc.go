// Package dendro rebuilds a hierarchical clustering ("dendrogram") document
// as a flat table of named nodes.
//
// # Overview
//
// The input is the nested node/children structure emitted by cell-type
// clustering tools (conventionally a dend.json file). [Build] walks that
// structure depth-first and produces a [Tree]: a table keyed by each node's
// cell_set_accession, where every node knows its full ancestor chain, its
// depth, and its immediate children in discovery order.
//
// A second, optional pass ([Tree.ComputeDescendants]) derives every node's
// complete transitive descendant set from the direct-child links. Because
// each node already carries its complete root-to-parent chain, the closure is
// a single projection of every node into the descendant sets of all its
// ancestors; no multi-hop propagation is needed.
//
// # Lifecycle
//
// The table is built once, optionally enriched with the closure pass, and is
// read-only afterwards. There is no partial-success mode: callers receive
// either a fully valid tree or an error.
//
//	doc, err := dendro.ReadDocumentFile("dend.json")
//	if err != nil {
//	    return err
//	}
//	tree, err := dendro.Build(doc)
//	if err != nil {
//	    return err
//	}
//	if err := tree.ComputeDescendants(); err != nil {
//	    return err
//	}
//
// # Errors
//
// Construction failures are reported through sentinel errors
// ([ErrMalformedRecord], [ErrDuplicateName], [ErrMissingAncestor]) that wrap
// the offending node name. [ErrClosureInvariant] is different in kind: it
// signals a defect in the closure pass itself rather than bad input.
package dendro
