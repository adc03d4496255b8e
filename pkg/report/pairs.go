package report

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/dendrotool/dendro/pkg/dendro"
)

// Class buckets a sibling pair by how far apart the two cluster sizes are.
type Class int

const (
	// Parity means the two clusters are within the parity threshold of each
	// other (|log10 ratio| < 0.2 by default).
	Parity Class = iota
	// TwoToOne means the sizes differ by roughly a factor of two to four
	// (|log10 ratio| < 0.6 by default).
	TwoToOne
	// Worse means the sizes differ by more than the two-to-one threshold.
	Worse
)

// String returns the report file stem for the class.
func (c Class) String() string {
	switch c {
	case Parity:
		return "parity"
	case TwoToOne:
		return "two_to_one"
	default:
		return "worse"
	}
}

// Pair is one unordered sibling pair: two direct children of the same
// internal node, compared by cell count.
type Pair struct {
	Name1, Name2         string
	Level1, Level2       int
	Count1, Count2       int
	Children1, Children2 int
}

// Pairs holds every sibling pair of a tree, bucketed by class.
type Pairs map[Class][]Pair

// Classify buckets the absolute log10 ratio d against the configured
// thresholds.
func (c Config) Classify(d float64) Class {
	switch {
	case d < c.ParityThreshold:
		return Parity
	case d < c.TwoToOneThreshold:
		return TwoToOne
	default:
		return Worse
	}
}

// SiblingPairs enumerates all unordered pairs of direct children across
// every internal node and classifies each by the difference of the log10
// cell counts. The counts table must cover every node (see
// [dendro.Census.Counts]).
func SiblingPairs(t *dendro.Tree, counts dendro.Counts, cfg Config) (Pairs, error) {
	pairs := make(Pairs)
	for _, n := range t.Nodes() {
		children := n.Children()
		for i, name1 := range children {
			c1, ok := t.Node(name1)
			if !ok {
				return nil, fmt.Errorf("node %s: child %s: %w", n.Name(), name1, dendro.ErrBrokenLink)
			}
			for _, name2 := range children[i+1:] {
				c2, ok := t.Node(name2)
				if !ok {
					return nil, fmt.Errorf("node %s: child %s: %w", n.Name(), name2, dendro.ErrBrokenLink)
				}
				ct1, ct2 := counts[name1], counts[name2]
				if ct1 <= 0 || ct2 <= 0 {
					return nil, fmt.Errorf("pair %s/%s: non-positive count", name1, name2)
				}
				d := math.Abs(math.Log10(float64(ct1)) - math.Log10(float64(ct2)))
				class := cfg.Classify(d)
				pairs[class] = append(pairs[class], Pair{
					Name1: name1, Name2: name2,
					Level1: c1.Level(), Level2: c2.Level(),
					Count1: ct1, Count2: ct2,
					Children1: len(c1.Children()), Children2: len(c2.Children()),
				})
			}
		}
	}
	return pairs, nil
}

// WritePairs writes one listing per class under dir/examples/
// (parity.txt, two_to_one.txt, worse.txt). Every file is written even when
// its bucket is empty, so consumers can rely on the layout.
func WritePairs(dir string, pairs Pairs) error {
	outDir := filepath.Join(dir, "examples")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", outDir, err)
	}
	for _, class := range []Class{Parity, TwoToOne, Worse} {
		path := filepath.Join(outDir, class.String()+".txt")
		if err := writePairFile(path, pairs[class]); err != nil {
			return err
		}
	}
	return nil
}

func writePairFile(path string, pairs []Pair) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "# name_1 name_2 ct_1 ct_2 children_1 children_2")
	for _, p := range pairs {
		fmt.Fprintf(w, "level%03d/%s level%03d/%s %d %d %d %d\n",
			p.Level1, p.Name1, p.Level2, p.Name2,
			p.Count1, p.Count2, p.Children1, p.Children2)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
