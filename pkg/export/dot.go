package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/dendrotool/dendro/pkg/dendro"
)

// DotOptions configures DOT emission.
type DotOptions struct {
	// Detailed includes level and cell count in node labels.
	// When false, only the accession is shown.
	Detailed bool
	// Counts supplies cell counts for detailed labels. May be nil.
	Counts dendro.Counts
}

// ToDOT converts a tree to Graphviz DOT format. Leaves are rendered with a
// grey fill to distinguish clusters that hold cells directly from the
// internal grouping nodes. The resulting string can be rendered in-process
// with [RenderSVG].
func ToDOT(t *dendro.Tree, opts DotOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph dendrogram {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=20, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range t.Nodes() {
		label := dotLabel(n, opts)
		attrs := []string{fmt.Sprintf("label=%q", label)}
		if n.IsLeaf() {
			attrs = append(attrs, "fillcolor=lightgrey")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Name(), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, n := range t.Nodes() {
		for _, c := range n.Children() {
			fmt.Fprintf(&buf, "  %q -> %q;\n", n.Name(), c)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func dotLabel(n *dendro.Node, opts DotOptions) string {
	if !opts.Detailed {
		return n.Name()
	}
	parts := []string{n.Name(), fmt.Sprintf("level: %d", n.Level())}
	if opts.Counts != nil {
		parts = append(parts, fmt.Sprintf("cells: %d", opts.Counts[n.Name()]))
	}
	return strings.Join(parts, "\n")
}

// RenderSVG renders a DOT graph to SVG using Graphviz in-process.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
