package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dendrotool/dendro/pkg/dendro"
)

func leafRec(name string) dendro.Record {
	return dendro.Record{LeafAttributes: []dendro.Attributes{{CellSetAccession: name}}}
}

func nodeRec(name string, children ...dendro.Record) dendro.Record {
	return dendro.Record{
		NodeAttributes: []dendro.Attributes{{CellSetAccession: name}},
		Children:       children,
	}
}

// reportTree builds the fixture used across the report tests:
// R -> {A -> {A1, A2}, B -> {B1}} with closure computed.
func reportTree(t *testing.T) *dendro.Tree {
	t.Helper()
	tree, err := dendro.Build(nodeRec("R",
		nodeRec("A", leafRec("A1"), leafRec("A2")),
		nodeRec("B", leafRec("B1")),
	))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := tree.ComputeDescendants(); err != nil {
		t.Fatalf("ComputeDescendants: %v", err)
	}
	return tree
}

func reportCensus() dendro.Census {
	return dendro.Census{
		"A1": {Count: 100, Index: 0},
		"A2": {Count: 100, Index: 1},
		"B1": {Count: 10, Index: 2},
	}
}

func reportCounts(t *testing.T, tree *dendro.Tree) dendro.Counts {
	t.Helper()
	counts, err := reportCensus().Counts(tree)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	return counts
}

func TestClassify(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		d    float64
		want Class
	}{
		{0, Parity},
		{0.19, Parity},
		{0.2, TwoToOne}, // boundary is exclusive
		{0.59, TwoToOne},
		{0.6, Worse},
		{3.0, Worse},
	}
	for _, tt := range tests {
		if got := cfg.Classify(tt.d); got != tt.want {
			t.Errorf("Classify(%g) = %v, want %v", tt.d, got, tt.want)
		}
	}
}

func TestSiblingPairs(t *testing.T) {
	tree := reportTree(t)
	counts := reportCounts(t, tree)

	pairs, err := SiblingPairs(tree, counts, DefaultConfig())
	if err != nil {
		t.Fatalf("SiblingPairs: %v", err)
	}

	// A1/A2 have identical counts (parity); A (200) vs B (10) differ by
	// 1.3 decades (worse).
	if got := len(pairs[Parity]); got != 1 {
		t.Fatalf("parity pairs = %d, want 1", got)
	}
	p := pairs[Parity][0]
	if p.Name1 != "A1" || p.Name2 != "A2" {
		t.Errorf("parity pair = %s/%s, want A1/A2", p.Name1, p.Name2)
	}
	if p.Count1 != 100 || p.Count2 != 100 {
		t.Errorf("parity counts = %d/%d, want 100/100", p.Count1, p.Count2)
	}

	if got := len(pairs[Worse]); got != 1 {
		t.Fatalf("worse pairs = %d, want 1", got)
	}
	w := pairs[Worse][0]
	if w.Name1 != "A" || w.Name2 != "B" {
		t.Errorf("worse pair = %s/%s, want A/B", w.Name1, w.Name2)
	}
	if w.Children1 != 2 || w.Children2 != 1 {
		t.Errorf("worse children = %d/%d, want 2/1", w.Children1, w.Children2)
	}

	if got := len(pairs[TwoToOne]); got != 0 {
		t.Errorf("two-to-one pairs = %d, want 0", got)
	}
}

func TestSiblingPairsZeroCount(t *testing.T) {
	tree := reportTree(t)
	counts := dendro.Counts{"A1": 0, "A2": 1, "B1": 1, "A": 1, "B": 1, "R": 2}
	if _, err := SiblingPairs(tree, counts, DefaultConfig()); err == nil {
		t.Error("expected error for non-positive count")
	}
}

func TestWritePairs(t *testing.T) {
	tree := reportTree(t)
	counts := reportCounts(t, tree)
	pairs, err := SiblingPairs(tree, counts, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	if err := WritePairs(dir, pairs); err != nil {
		t.Fatalf("WritePairs: %v", err)
	}

	for _, stem := range []string{"parity", "two_to_one", "worse"} {
		path := filepath.Join(dir, "examples", stem+".txt")
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		if lines[0] != "# name_1 name_2 ct_1 ct_2 children_1 children_2" {
			t.Errorf("%s: bad header %q", stem, lines[0])
		}
	}

	data, _ := os.ReadFile(filepath.Join(dir, "examples", "parity.txt"))
	if !strings.Contains(string(data), "level002/A1 level002/A2 100 100 0 0") {
		t.Errorf("parity.txt missing expected row:\n%s", data)
	}
}

func TestWriteLevels(t *testing.T) {
	tree := reportTree(t)
	census := reportCensus()
	counts := reportCounts(t, tree)

	dir := t.TempDir()
	if err := WriteLevels(tree, census, counts, dir); err != nil {
		t.Fatalf("WriteLevels: %v", err)
	}

	// MaxLevel is 2, so only level000 is written for internal membership.
	rootFile := filepath.Join(dir, "level000", "R.txt")
	data, err := os.ReadFile(rootFile)
	if err != nil {
		t.Fatalf("read %s: %v", rootFile, err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if lines[0] != "# n_cells 210" {
		t.Errorf("header = %q, want '# n_cells 210'", lines[0])
	}
	if got := strings.Fields(lines[1]); len(got) != 3 {
		t.Errorf("leaf line = %v, want 3 leaves", got)
	}
	if got := strings.Fields(lines[2]); len(got) != 3 {
		t.Errorf("index line = %v, want 3 indexes", got)
	}
	if !strings.Contains(string(data), "A -- 200") || !strings.Contains(string(data), "B -- 10") {
		t.Errorf("child lines missing:\n%s", data)
	}

	if _, err := os.Stat(filepath.Join(dir, "level001")); !os.IsNotExist(err) {
		t.Error("level001 must not be written for a depth-2 tree")
	}

	// Every leaf gets a level999 file.
	for _, leaf := range []string{"A1", "A2", "B1"} {
		path := filepath.Join(dir, "level999", leaf+".txt")
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if !strings.Contains(string(data), leaf) {
			t.Errorf("%s: leaf name missing", path)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.toml")
	content := `
out_dir = "out"
parity_threshold = 0.1
two_to_one_threshold = 0.5
pairs = false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.OutDir != "out" {
		t.Errorf("OutDir = %q, want out", cfg.OutDir)
	}
	if cfg.ParityThreshold != 0.1 || cfg.TwoToOneThreshold != 0.5 {
		t.Errorf("thresholds = %g/%g, want 0.1/0.5", cfg.ParityThreshold, cfg.TwoToOneThreshold)
	}
	if cfg.Pairs {
		t.Error("pairs should be disabled")
	}
	if !cfg.Levels {
		t.Error("levels should keep its default")
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"BadTOML", "out_dir = [broken"},
		{"NegativeParity", "parity_threshold = -1.0"},
		{"ThresholdOrder", "parity_threshold = 0.7\ntwo_to_one_threshold = 0.6"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "report.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}
