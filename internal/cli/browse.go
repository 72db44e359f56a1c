package cli

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/deptree/pkg/expand"
	"github.com/matzehuels/deptree/pkg/graph"
	"github.com/matzehuels/deptree/pkg/render"
)

// browseLimit caps the lines loaded for one package in the browser.
const browseLimit = 50000

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// BrowseModel - Interactive expansion browser
// =============================================================================

// BrowseModel is the bubbletea model for browsing expansions. It starts on
// the list of packages; enter opens the expansion of the selected package
// and esc goes back.
type BrowseModel struct {
	Graph  *graph.Graph
	Names  []string
	Cursor int
	Offset int
	Height int

	// Open is the package whose expansion is shown, "" on the list.
	Open   string
	Lines  []expand.Node
	Err    error
	Scroll int

	maxNodes int
}

// NewBrowseModel creates a browser over g. maxNodes caps each expansion;
// zero uses browseLimit.
func NewBrowseModel(g *graph.Graph, maxNodes int) BrowseModel {
	if maxNodes <= 0 || maxNodes > browseLimit {
		maxNodes = browseLimit
	}
	return BrowseModel{
		Graph:    g,
		Names:    g.Names(),
		Height:   15,
		maxNodes: maxNodes,
	}
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Open != "" {
			return m.updateTree(msg)
		}
		return m.updateList(msg)
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m BrowseModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
			if m.Cursor < m.Offset {
				m.Offset = m.Cursor
			}
		}
	case "down", "j":
		if m.Cursor < len(m.Names)-1 {
			m.Cursor++
			if m.Cursor >= m.Offset+m.Height {
				m.Offset = m.Cursor - m.Height + 1
			}
		}
	case "enter":
		if len(m.Names) == 0 {
			return m, nil
		}
		m.Open = m.Names[m.Cursor]
		m.Lines, m.Err = expand.Collect(m.Graph, expand.WithRoots(m.Open), expand.WithMaxNodes(m.maxNodes))
		m.Scroll = 0
	}
	return m, nil
}

func (m BrowseModel) updateTree(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	maxScroll := max(len(m.Lines)-m.Height, 0)
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace", "left", "h":
		m.Open, m.Lines, m.Err, m.Scroll = "", nil, nil, 0
	case "up", "k":
		if m.Scroll > 0 {
			m.Scroll--
		}
	case "down", "j":
		if m.Scroll < maxScroll {
			m.Scroll++
		}
	case "pgup":
		m.Scroll = max(m.Scroll-m.Height, 0)
	case "pgdown", " ":
		m.Scroll = min(m.Scroll+m.Height, maxScroll)
	case "home", "g":
		m.Scroll = 0
	case "end", "G":
		m.Scroll = maxScroll
	}
	return m, nil
}

func (m BrowseModel) View() string {
	if m.Open != "" {
		return m.treeView()
	}
	return m.listView()
}

func (m BrowseModel) listView() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Packages"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ expand  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Names))
	for i := m.Offset; i < end; i++ {
		name := m.Names[i]
		n, _ := m.Graph.Degree(name)
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%s%-30s %s", cursor, name, listDimStyle.Render(fmt.Sprintf("%d deps", n)))
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Names))))
	return b.String()
}

func (m BrowseModel) treeView() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Open))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ scroll  esc back  q quit"))
	b.WriteString("\n\n")

	end := min(m.Scroll+m.Height, len(m.Lines))
	for _, n := range m.Lines[m.Scroll:end] {
		b.WriteString(strings.TrimSuffix(render.Line(n), "\n"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d-%d/%d]", min(m.Scroll+1, end), end, len(m.Lines))))
	if m.Err != nil {
		b.WriteString("\n")
		msg := errorMessage(m.Err)
		if errors.Is(m.Err, expand.ErrNodeLimit) {
			msg = fmt.Sprintf("showing the first %d lines", len(m.Lines))
		}
		b.WriteString(StyleWarning.Render("  " + iconWarning + " " + msg))
	}
	return b.String()
}

// browseCommand creates the browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "browse <file>",
		Short: "Browse package expansions interactively",
		Long: `Open an interactive list of the graph's packages. Selecting a package shows
its expansion, which can be scrolled. Very large expansions are cut after the
configured max_nodes (at most 50000 lines).`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: graphFileCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, true)
			if err != nil {
				return err
			}
			defer runner.Close()

			g, err := loadGraph(ctx, cmd, runner, args[0], format)
			if err != nil {
				return err
			}
			if g.Len() == 0 {
				printInfo("Graph has no packages")
				return nil
			}

			p := tea.NewProgram(NewBrowseModel(g, c.config.Expand.MaxNodes),
				tea.WithContext(ctx), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "input format: json, yaml, toml, bson (default: from extension)")

	return cmd
}
