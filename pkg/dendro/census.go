package dendro

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// CensusEntry is the external per-leaf census record: how many cells the
// leaf cluster holds and its column index in the expression matrix.
type CensusEntry struct {
	Count int
	Index int
}

// Census maps leaf names to their census entries. It is loaded from the
// per-leaf files written by the clustering pipeline, one file per leaf.
type Census map[string]CensusEntry

// Counts maps node names to cell counts. Leaf counts come straight from the
// census; an internal node's count is the sum over its subtree. Counts are
// derived data and deliberately live outside [Node]: they depend on external
// census files, not on the dendrogram document itself.
type Counts map[string]int

// ReadCensus loads the census entry for every leaf of the tree from dir.
// Each leaf has a file dir/<name>.txt whose first line holds at least three
// whitespace-separated fields: the leaf name, its cell count, and its
// matrix index. Comment lines starting with '#' are skipped.
func ReadCensus(dir string, t *Tree) (Census, error) {
	census := make(Census)
	for _, leaf := range t.Leaves() {
		path := filepath.Join(dir, leaf.Name()+".txt")
		entry, err := readCensusFile(path)
		if err != nil {
			return nil, fmt.Errorf("leaf %s: %w", leaf.Name(), err)
		}
		census[leaf.Name()] = entry
	}
	return census, nil
}

func readCensusFile(path string) (CensusEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return CensusEntry{}, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return CensusEntry{}, fmt.Errorf("%s: want 3 fields, got %d", path, len(fields))
		}
		count, err := strconv.Atoi(fields[1])
		if err != nil {
			return CensusEntry{}, fmt.Errorf("%s: count: %w", path, err)
		}
		index, err := strconv.Atoi(fields[2])
		if err != nil {
			return CensusEntry{}, fmt.Errorf("%s: index: %w", path, err)
		}
		return CensusEntry{Count: count, Index: index}, nil
	}
	if err := scanner.Err(); err != nil {
		return CensusEntry{}, err
	}
	return CensusEntry{}, fmt.Errorf("%s: no census line", path)
}

// Counts aggregates the census up the tree: every leaf gets its own count,
// every internal node the sum of its children's counts. It returns an error
// if a leaf of the tree is missing from the census.
func (c Census) Counts(t *Tree) (Counts, error) {
	counts := make(Counts, t.Len())
	root := t.Root()
	if root == nil {
		return counts, nil
	}
	if _, err := c.sum(t, root, counts); err != nil {
		return nil, err
	}
	return counts, nil
}

func (c Census) sum(t *Tree, n *Node, counts Counts) (int, error) {
	if n.IsLeaf() {
		entry, ok := c[n.Name()]
		if !ok {
			return 0, fmt.Errorf("leaf %s: no census entry", n.Name())
		}
		counts[n.Name()] = entry.Count
		return entry.Count, nil
	}
	total := 0
	for _, childName := range n.Children() {
		child, ok := t.Node(childName)
		if !ok {
			return 0, fmt.Errorf("node %s: child %s: %w", n.Name(), childName, ErrBrokenLink)
		}
		ct, err := c.sum(t, child, counts)
		if err != nil {
			return 0, err
		}
		total += ct
	}
	counts[n.Name()] = total
	return total, nil
}
