// Package export serializes parsed dendrogram trees.
//
// The flat JSON format is the tool's interchange representation: one entry
// per node carrying name, level, ancestor chain, children in discovery
// order, the derived descendant set, and (optionally) the aggregated cell
// count. The format round-trips: parse, write, re-read and re-validate
// produce an identical table. The same types carry bson tags for the Mongo
// tree store.
package export

import (
	"fmt"
	"slices"

	"github.com/dendrotool/dendro/pkg/dendro"
)

// Document is the flat serialization of a dendrogram tree.
type Document struct {
	Nodes []NodeRecord `json:"nodes" bson:"nodes"`
}

// NodeRecord is one serialized node. Ancestors and Children are ordered;
// Descendants is a set and carries no order guarantee.
type NodeRecord struct {
	Name        string   `json:"name" bson:"name"`
	Level       int      `json:"level" bson:"level"`
	Ancestors   []string `json:"ancestors,omitempty" bson:"ancestors,omitempty"`
	Children    []string `json:"children,omitempty" bson:"children,omitempty"`
	Descendants []string `json:"descendants,omitempty" bson:"descendants,omitempty"`
	Count       int      `json:"count,omitempty" bson:"count,omitempty"`
}

// FromTree converts a tree to its serialization format. Nodes are sorted by
// name for deterministic output. counts may be nil, in which case no counts
// are written.
func FromTree(t *dendro.Tree, counts dendro.Counts) Document {
	doc := Document{Nodes: make([]NodeRecord, 0, t.Len())}
	for _, n := range t.Nodes() {
		rec := NodeRecord{
			Name:        n.Name(),
			Level:       n.Level(),
			Ancestors:   n.Ancestors(),
			Children:    n.Children(),
			Descendants: n.Descendants(),
		}
		if counts != nil {
			rec.Count = counts[n.Name()]
		}
		doc.Nodes = append(doc.Nodes, rec)
	}
	return doc
}

// Tree rebuilds the node table from its serialized form and validates it.
//
// Child links are restored from the recorded children lists (preserving
// discovery order). Descendant sets are recomputed from those links whenever
// the document carried any, so a hand-edited document cannot smuggle in an
// inconsistent closure. Counts, if present, are returned as a side table.
func (d Document) Tree() (*dendro.Tree, dendro.Counts, error) {
	t := dendro.New()
	hasDescendants := false
	hasCounts := false

	for _, rec := range d.Nodes {
		if rec.Name == "" {
			return nil, nil, fmt.Errorf("record with empty name: %w", dendro.ErrMalformedRecord)
		}
		n := dendro.NewNode(rec.Name, rec.Ancestors, rec.Level)
		for _, c := range rec.Children {
			n.AddChild(c)
		}
		if err := t.Add(n); err != nil {
			return nil, nil, err
		}
		if rec.Descendants != nil {
			hasDescendants = true
		}
		if rec.Count != 0 {
			hasCounts = true
		}
	}

	if hasDescendants {
		if err := t.ComputeDescendants(); err != nil {
			return nil, nil, err
		}
	}
	if err := t.Validate(); err != nil {
		return nil, nil, err
	}

	var counts dendro.Counts
	if hasCounts {
		counts = make(dendro.Counts, len(d.Nodes))
		for _, rec := range d.Nodes {
			counts[rec.Name] = rec.Count
		}
	}
	return t, counts, nil
}

// sortRecords orders records by name. FromTree already emits sorted output;
// this exists for documents assembled elsewhere.
func sortRecords(recs []NodeRecord) {
	slices.SortFunc(recs, func(a, b NodeRecord) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		default:
			return 0
		}
	})
}
