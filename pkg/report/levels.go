package report

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dendrotool/dendro/pkg/dendro"
)

// leafLevelDir is the directory name that collects all leaves regardless of
// their depth, following the original pipeline layout.
const leafLevelDir = "level999"

// WriteLevels writes the per-level cluster membership files under dir.
//
// For every level from 0 up to (but excluding) the second-deepest level,
// each node at that level gets dir/level<NNN>/<name>.txt containing:
//
//	# n_cells <count>
//	<leaf names descended from the node, space separated>
//	<their census matrix indexes, space separated>
//	<child> -- <child count>   (one line per direct child)
//
// All leaves are additionally written to dir/level999/, one file per leaf
// with its count and name.
func WriteLevels(t *dendro.Tree, census dendro.Census, counts dendro.Counts, dir string) error {
	leaves := t.Leaves()

	for level := 0; level < t.MaxLevel()-1; level++ {
		levelDir := filepath.Join(dir, fmt.Sprintf("level%03d", level))
		if err := os.MkdirAll(levelDir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", levelDir, err)
		}
		for _, n := range t.NodesAtLevel(level) {
			if err := writeLevelFile(levelDir, t, n, leaves, census, counts); err != nil {
				return err
			}
		}
	}

	return writeLeafFiles(filepath.Join(dir, leafLevelDir), leaves, counts)
}

func writeLevelFile(dir string, t *dendro.Tree, n *dendro.Node, leaves []*dendro.Node, census dendro.Census, counts dendro.Counts) error {
	path := filepath.Join(dir, n.Name()+".txt")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	var names []string
	var indexes []int
	for _, leaf := range leaves {
		if leaf.Name() != n.Name() && !leaf.DescendedFrom(n.Name()) {
			continue
		}
		entry, ok := census[leaf.Name()]
		if !ok {
			return fmt.Errorf("leaf %s: no census entry", leaf.Name())
		}
		names = append(names, leaf.Name())
		indexes = append(indexes, entry.Index)
	}

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# n_cells %d\n", counts[n.Name()])
	for _, name := range names {
		fmt.Fprintf(w, "%s ", name)
	}
	fmt.Fprintln(w)
	for _, idx := range indexes {
		fmt.Fprintf(w, "%d ", idx)
	}
	fmt.Fprintln(w)
	for _, c := range n.Children() {
		fmt.Fprintf(w, "%s -- %d\n", c, counts[c])
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeLeafFiles(dir string, leaves []*dendro.Node, counts dendro.Counts) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	for _, leaf := range leaves {
		path := filepath.Join(dir, leaf.Name()+".txt")
		content := fmt.Sprintf("# n_cells %d\n%s\n", counts[leaf.Name()], leaf.Name())
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}
