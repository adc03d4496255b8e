package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dendrotool/dendro/pkg/export"
)

const testDendrogram = `{
  "node_attributes": [{"cell_set_accession": "R"}],
  "children": [
    {
      "node_attributes": [{"cell_set_accession": "A"}],
      "children": [
        {"leaf_attributes": [{"cell_set_accession": "A1"}]},
        {"leaf_attributes": [{"cell_set_accession": "A2"}]}
      ]
    },
    {
      "node_attributes": [{"cell_set_accession": "B"}],
      "children": [
        {"leaf_attributes": [{"cell_set_accession": "B1"}]}
      ]
    }
  ]
}`

func writeTestDendrogram(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dend.json")
	if err := os.WriteFile(path, []byte(testDendrogram), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunParse(t *testing.T) {
	in := writeTestDendrogram(t)
	out := filepath.Join(t.TempDir(), "tree.json")

	opts := parseOpts{output: out}
	if err := runParse(context.Background(), in, &opts); err != nil {
		t.Fatalf("runParse: %v", err)
	}

	tree, counts, err := export.ReadTreeFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if counts != nil {
		t.Error("counts present without --census")
	}
	if tree.Len() != 6 {
		t.Errorf("tree has %d nodes, want 6", tree.Len())
	}
	root := tree.Root()
	if root.Name() != "R" {
		t.Errorf("root = %s, want R", root.Name())
	}
	if got := len(root.Descendants()); got != 5 {
		t.Errorf("root descendants = %d, want 5", got)
	}
}

func TestRunParseNoClosure(t *testing.T) {
	in := writeTestDendrogram(t)
	out := filepath.Join(t.TempDir(), "tree.json")

	opts := parseOpts{output: out, noClosure: true}
	if err := runParse(context.Background(), in, &opts); err != nil {
		t.Fatalf("runParse: %v", err)
	}

	tree, _, err := export.ReadTreeFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	// No descendants were serialized, so the read side does not recompute
	// them either.
	if tree.Root().HasDescendants() {
		t.Error("descendants present despite --no-closure")
	}
}

func TestRunParseWithCensus(t *testing.T) {
	in := writeTestDendrogram(t)
	censusDir := t.TempDir()
	for name, line := range map[string]string{
		"A1": "A1 100 0\n",
		"A2": "A2 150 1\n",
		"B1": "B1 50 2\n",
	} {
		if err := os.WriteFile(filepath.Join(censusDir, name+".txt"), []byte(line), 0644); err != nil {
			t.Fatal(err)
		}
	}
	out := filepath.Join(t.TempDir(), "tree.json")

	opts := parseOpts{output: out, censusDir: censusDir}
	if err := runParse(context.Background(), in, &opts); err != nil {
		t.Fatalf("runParse: %v", err)
	}

	_, counts, err := export.ReadTreeFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if counts == nil {
		t.Fatal("no counts despite census")
	}
	if counts["R"] != 300 {
		t.Errorf("root count = %d, want 300", counts["R"])
	}
	if counts["A"] != 250 {
		t.Errorf("A count = %d, want 250", counts["A"])
	}
}

func TestRunParseSave(t *testing.T) {
	in := writeTestDendrogram(t)
	storeDir := t.TempDir()
	out := filepath.Join(t.TempDir(), "tree.json")

	opts := parseOpts{output: out, save: true, storeDir: storeDir, name: "fixture"}
	if err := runParse(context.Background(), in, &opts); err != nil {
		t.Fatalf("runParse: %v", err)
	}

	entries, err := os.ReadDir(storeDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("store has %d files, want 1", len(entries))
	}
}

func TestRunParseMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"children": []}`), 0644); err != nil {
		t.Fatal(err)
	}
	opts := parseOpts{output: filepath.Join(t.TempDir(), "out.json")}
	if err := runParse(context.Background(), path, &opts); err == nil {
		t.Fatal("expected error for record without attributes")
	}
}
