package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dendrotool/dendro/pkg/dendro"
	"github.com/dendrotool/dendro/pkg/export"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// newBrowseCmd creates the browse command: an interactive terminal
// navigator for a parsed tree.
func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse <tree.json>",
		Short: "Navigate a parsed tree interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			tree, counts, err := export.ReadTreeFile(args[0])
			if err != nil {
				return err
			}
			model := newBrowseModel(tree, counts)
			_, err = tea.NewProgram(model).Run()
			return err
		},
	}
}

// =============================================================================
// browseModel - Interactive tree navigation
// =============================================================================

// browseModel is the bubbletea model for walking a tree level by level.
// The current node's direct children form the list; enter descends into the
// selected child, left returns to the parent.
type browseModel struct {
	tree    *dendro.Tree
	counts  dendro.Counts
	current *dendro.Node
	cursor  int
	height  int
	offset  int
}

func newBrowseModel(t *dendro.Tree, counts dendro.Counts) browseModel {
	return browseModel{
		tree:    t,
		counts:  counts,
		current: t.Root(),
		height:  15,
	}
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	children := m.current.Children()

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(children)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter", "right", "l":
			if len(children) == 0 {
				return m, nil
			}
			child, ok := m.tree.Node(children[m.cursor])
			if !ok {
				return m, nil
			}
			m.current = child
			m.cursor, m.offset = 0, 0
		case "left", "h", "backspace":
			if m.current.IsRoot() {
				return m, nil
			}
			parent, ok := m.tree.Node(m.current.Parent())
			if !ok {
				return m, nil
			}
			m.current = parent
			m.cursor, m.offset = 0, 0
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 8
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m browseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Browse Dendrogram"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎/→ descend  ← parent  q quit"))
	b.WriteString("\n\n")

	b.WriteString(m.breadcrumb())
	b.WriteString("\n")
	b.WriteString(m.nodeLine(m.current))
	b.WriteString("\n\n")

	children := m.current.Children()
	if len(children) == 0 {
		b.WriteString(listDimStyle.Render("  (leaf cluster, no children)"))
		b.WriteString("\n")
		return b.String()
	}

	end := m.offset + m.height
	if end > len(children) {
		end = len(children)
	}
	for i := m.offset; i < end; i++ {
		child, ok := m.tree.Node(children[i])
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		line := cursor + children[i]
		if ok {
			line += listDimStyle.Render(m.childSuffix(child))
		}
		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(children))))
	return b.String()
}

// breadcrumb renders the ancestor chain of the current node.
func (m browseModel) breadcrumb() string {
	parts := append(m.current.Ancestors(), m.current.Name())
	return listDimStyle.Render(strings.Join(parts, " "+iconArrow+" "))
}

// nodeLine renders the headline for the current node.
func (m browseModel) nodeLine(n *dendro.Node) string {
	line := fmt.Sprintf("%s  level %d", StyleValue.Render(n.Name()), n.Level())
	if n.HasDescendants() {
		line += fmt.Sprintf("  %d descendants", len(n.Descendants()))
	}
	if m.counts != nil {
		line += fmt.Sprintf("  %d cells", m.counts[n.Name()])
	}
	return line
}

// childSuffix renders the per-child annotation in the list.
func (m browseModel) childSuffix(child *dendro.Node) string {
	if child.IsLeaf() {
		if m.counts != nil {
			return fmt.Sprintf("  leaf · %d cells", m.counts[child.Name()])
		}
		return "  leaf"
	}
	suffix := fmt.Sprintf("  %d children", len(child.Children()))
	if m.counts != nil {
		suffix += fmt.Sprintf(" · %d cells", m.counts[child.Name()])
	}
	return suffix
}
