package cli

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/deptree/pkg/pipeline"
)

// dotCommand creates the dot command for node-link exports.
func (c *CLI) dotCommand() *cobra.Command {
	var (
		format   string
		output   string
		roots    []string
		detailed bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "dot <file>",
		Short: "Export the graph as a node-link diagram",
		Long: `Export the graph as a Graphviz diagram where each package is drawn once and
each dependency is an edge. This is the compact counterpart of expand: cycles
and shared dependencies are drawn, not unrolled.

The export format follows the output extension: .dot (default), .svg, .png or
.pdf. PNG and PDF need rsvg-convert on PATH.`,
		Example: `  deptree dot deps.json > deps.dot
  deptree dot deps.json -o deps.svg --root app --detailed`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: graphFileCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			g, err := loadGraph(ctx, cmd, runner, args[0], format)
			if err != nil {
				return err
			}

			opts := pipeline.DOTOptions{
				Roots:    roots,
				Detailed: detailed,
				Format:   exportFormat(output),
			}
			data, cached, err := runner.DOT(ctx, g, opts)
			if err != nil {
				return err
			}

			if output == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := writeOutput(output, data); err != nil {
				return err
			}
			printSuccess("Exported %s", strings.ToUpper(opts.Format))
			printFile(output)
			if n := len(g.Undeclared()); n > 0 {
				printWarning("%d undeclared packages drawn dashed", n)
			}
			if cached {
				printDetail("served from cache")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "input format: json, yaml, toml, bson (default: from extension)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (.dot, .svg, .png, .pdf; default: DOT to stdout)")
	cmd.Flags().StringArrayVarP(&roots, "root", "r", nil, "only draw packages reachable from this one (repeatable)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "add dependency counts to labels")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// exportFormat derives the export format from an output path. Unknown or
// missing extensions export DOT source.
func exportFormat(output string) string {
	switch ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), "."); ext {
	case pipeline.FormatSVG, pipeline.FormatPNG, pipeline.FormatPDF:
		return ext
	}
	return pipeline.FormatDOT
}
