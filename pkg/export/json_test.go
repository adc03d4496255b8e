package export

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/dendrotool/dendro/pkg/dendro"
)

func sampleTree(t *testing.T) *dendro.Tree {
	t.Helper()
	doc := dendro.Record{
		NodeAttributes: []dendro.Attributes{{CellSetAccession: "R"}},
		Children: []dendro.Record{
			{
				NodeAttributes: []dendro.Attributes{{CellSetAccession: "A"}},
				Children: []dendro.Record{
					{LeafAttributes: []dendro.Attributes{{CellSetAccession: "A1"}}},
					{LeafAttributes: []dendro.Attributes{{CellSetAccession: "A2"}}},
				},
			},
			{LeafAttributes: []dendro.Attributes{{CellSetAccession: "B1"}}},
		},
	}
	tree, err := dendro.Build(doc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := tree.ComputeDescendants(); err != nil {
		t.Fatalf("ComputeDescendants: %v", err)
	}
	return tree
}

func TestRoundTrip(t *testing.T) {
	tree := sampleTree(t)
	counts := dendro.Counts{"A1": 10, "A2": 20, "B1": 5, "A": 30, "R": 35}

	data, err := MarshalTree(tree, counts)
	if err != nil {
		t.Fatalf("MarshalTree: %v", err)
	}

	got, gotCounts, err := ReadTree(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadTree: %v", err)
	}

	if got.Len() != tree.Len() {
		t.Fatalf("Len = %d, want %d", got.Len(), tree.Len())
	}
	for _, name := range tree.Names() {
		orig, _ := tree.Node(name)
		re, ok := got.Node(name)
		if !ok {
			t.Fatalf("node %s lost in round trip", name)
		}
		if re.Level() != orig.Level() {
			t.Errorf("%s: level %d, want %d", name, re.Level(), orig.Level())
		}
		if !slices.Equal(re.Ancestors(), orig.Ancestors()) {
			t.Errorf("%s: ancestors %v, want %v", name, re.Ancestors(), orig.Ancestors())
		}
		if !slices.Equal(re.Children(), orig.Children()) {
			t.Errorf("%s: children %v, want %v", name, re.Children(), orig.Children())
		}
		od, rd := orig.Descendants(), re.Descendants()
		slices.Sort(od)
		slices.Sort(rd)
		if !slices.Equal(rd, od) {
			t.Errorf("%s: descendants %v, want %v", name, rd, od)
		}
	}

	for name, ct := range counts {
		if gotCounts[name] != ct {
			t.Errorf("counts[%s] = %d, want %d", name, gotCounts[name], ct)
		}
	}

	if err := got.Validate(); err != nil {
		t.Errorf("Validate after round trip: %v", err)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	tree := sampleTree(t)
	a, err := MarshalTree(tree, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := MarshalTree(tree, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("MarshalTree output must be deterministic")
	}

	var doc Document
	if err := json.Unmarshal(a, &doc); err != nil {
		t.Fatal(err)
	}
	names := make([]string, len(doc.Nodes))
	for i, rec := range doc.Nodes {
		names[i] = rec.Name
	}
	if !slices.IsSorted(names) {
		t.Errorf("nodes not sorted by name: %v", names)
	}
}

func TestReadTreeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"InvalidJSON", `{invalid`},
		{"EmptyName", `{"nodes":[{"name":"","level":0}]}`},
		{"DuplicateName", `{"nodes":[{"name":"X","level":0},{"name":"X","level":0}]}`},
		{"LevelMismatch", `{"nodes":[{"name":"R","level":1}]}`},
		{"NoRoot", `{"nodes":[]}`},
		{"BrokenLink", `{"nodes":[{"name":"R","level":0,"children":["ghost"]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ReadTree(strings.NewReader(tt.input)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestWriteTreeFile(t *testing.T) {
	tree := sampleTree(t)
	path := filepath.Join(t.TempDir(), "tree.json")

	if err := WriteTreeFile(tree, nil, path); err != nil {
		t.Fatalf("WriteTreeFile: %v", err)
	}
	got, _, err := ReadTreeFile(path)
	if err != nil {
		t.Fatalf("ReadTreeFile: %v", err)
	}
	if got.Len() != tree.Len() {
		t.Errorf("Len = %d, want %d", got.Len(), tree.Len())
	}
}

func TestReadTreeFileNotFound(t *testing.T) {
	if _, _, err := ReadTreeFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
