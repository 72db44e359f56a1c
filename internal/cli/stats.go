package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/deptree/pkg/expand"
	"github.com/matzehuels/deptree/pkg/graph"
)

// packageStats is one row of the stats table.
type packageStats struct {
	Name     string
	Direct   int
	Expanded int
	Err      error
}

// collectStats counts, for every declared package, its direct dependencies
// and the lines its own expansion prints. Each package is expanded on its
// own; a failing package records its error and the count reached.
func collectStats(g *graph.Graph, maxNodes int) []packageStats {
	names := g.Names()
	out := make([]packageStats, 0, len(names))
	for _, name := range names {
		direct, _ := g.Degree(name)
		n, err := expand.Count(g, expand.WithRoots(name), expand.WithMaxNodes(maxNodes))
		out = append(out, packageStats{Name: name, Direct: direct, Expanded: n, Err: err})
	}
	return out
}

// statsCommand creates the stats command.
func (c *CLI) statsCommand() *cobra.Command {
	var format string
	var maxNodes int

	cmd := &cobra.Command{
		Use:   "stats <file>",
		Short: "Show per-package dependency counts",
		Long: `Show a table with, for every declared package, the number of direct
dependencies and the number of lines its expansion prints. Packages that are
referenced but never declared are listed below the table.`,
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
			if maxNodes == 0 {
				maxNodes = c.config.Expand.MaxNodes
			}
			writeStats(cmd.OutOrStdout(), g, collectStats(g, maxNodes))
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "input format: json, yaml, toml, bson (default: from extension)")
	cmd.Flags().IntVar(&maxNodes, "max-nodes", 0, "cap each package's count (0 = use config)")

	return cmd
}

func writeStats(w io.Writer, g *graph.Graph, rows []packageStats) {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		expanded := strconv.Itoa(r.Expanded)
		switch {
		case errors.Is(r.Err, expand.ErrNodeLimit):
			expanded = ">" + expanded
		case r.Err != nil:
			expanded += " (error)"
		}
		cells = append(cells, []string{r.Name, strconv.Itoa(r.Direct), expanded})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Package", "Direct", "Expanded").
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if row >= 0 && row < len(rows) && rows[row].Err != nil && !errors.Is(rows[row].Err, expand.ErrNodeLimit) {
				return StyleWarning
			}
			if col > 0 {
				return StyleNumber
			}
			return lipgloss.NewStyle()
		})

	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%d packages, %d edges\n", g.Len(), g.EdgeCount())
	if missing := g.Undeclared(); len(missing) > 0 {
		fmt.Fprintf(w, "%d undeclared:\n", len(missing))
		for _, name := range missing {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}
}
