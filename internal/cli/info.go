package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dendrotool/dendro/pkg/dendro"
	"github.com/dendrotool/dendro/pkg/export"
)

// newInfoCmd creates the info command: a styled one-screen summary of a
// parsed tree file.
func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <tree.json>",
		Short: "Print a summary of a parsed tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			tree, counts, err := export.ReadTreeFile(args[0])
			if err != nil {
				return err
			}
			printTreeInfo(tree, counts)
			return nil
		},
	}
}

// printTreeInfo prints the summary block for a tree.
func printTreeInfo(t *dendro.Tree, counts dendro.Counts) {
	root := t.Root()
	leaves := t.Leaves()
	wideLevel, wideSize := widestLevel(t)

	fmt.Println(StyleTitle.Render("Dendrogram"))
	printKeyValue("root", root.Name())
	printKeyValue("nodes", StyleNumber.Render(fmt.Sprintf("%d", t.Len())))
	printKeyValue("leaves", StyleNumber.Render(fmt.Sprintf("%d", len(leaves))))
	printKeyValue("internal", StyleNumber.Render(fmt.Sprintf("%d", t.Len()-len(leaves))))
	printKeyValue("depth", StyleNumber.Render(fmt.Sprintf("%d", t.MaxLevel())))
	printKeyValue("widest level", fmt.Sprintf("%s (%s nodes)",
		StyleNumber.Render(fmt.Sprintf("%d", wideLevel)),
		StyleNumber.Render(fmt.Sprintf("%d", wideSize))))
	if counts != nil {
		printKeyValue("total cells", StyleNumber.Render(fmt.Sprintf("%d", counts[root.Name()])))
	}
}

// widestLevel returns the level holding the most nodes and its size.
func widestLevel(t *dendro.Tree) (level, size int) {
	for l := 0; l <= t.MaxLevel(); l++ {
		if n := len(t.NodesAtLevel(l)); n > size {
			level, size = l, n
		}
	}
	return level, size
}
