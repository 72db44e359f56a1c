package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/deptree/pkg/graph"
	"github.com/matzehuels/deptree/pkg/pipeline"
)

// expandFlags holds flags for the expand command.
type expandFlags struct {
	roots      []string
	format     string
	duplicates bool
	strict     bool
	output     string
	noCache    bool
	refresh    bool
}

// expandCommand creates the expand command.
func (c *CLI) expandCommand() *cobra.Command {
	var flags expandFlags

	cmd := &cobra.Command{
		Use:   "expand <file>",
		Short: "Print the full dependency expansion of a graph",
		Long: `Print, for every package in the graph, an indented tree of everything it
transitively depends on.

Each line is two spaces per level, a dash and the package name. Shared
dependencies are printed under every branch that reaches them; a package is
never printed twice on the same path, which cuts cycles.

Use "-" as the file to read from stdin.`,
		Example: `  # Expand every package
  deptree expand deps.json

  # Only the trees of two packages, from a YAML file
  deptree expand deps.yaml --root app --root cli

  # Guard against huge outputs and use 4 workers
  deptree expand deps.json --max-nodes 100000 --jobs 4 -o tree.txt`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: graphFileCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExpand(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringArrayVarP(&flags.roots, "root", "r", nil, "expand only this package (repeatable, keeps order)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "input format: json, yaml, toml, bson (default: from extension)")
	cmd.Flags().Int("max-nodes", 0, "stop after this many lines (0 = unlimited)")
	cmd.Flags().IntP("jobs", "j", defaultJobs, "expand this many root packages concurrently")
	cmd.Flags().BoolVar(&flags.duplicates, "keep-duplicates", false, "expand repeated entries of one dependency list every time")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "fail when a package lists itself as a dependency")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "ignore cached output and expand again")

	return cmd
}

func (c *CLI) runExpand(cmd *cobra.Command, path string, flags expandFlags) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	g, err := loadGraph(ctx, cmd, runner, path, flags.format)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		Roots:      flags.roots,
		MaxNodes:   c.config.Expand.MaxNodes,
		Jobs:       c.config.Expand.Jobs,
		Duplicates: flags.duplicates,
		Strict:     flags.strict,
		Refresh:    flags.refresh,
		Logger:     logger,
	}

	if flags.output == "" {
		res, err := runner.Expand(ctx, cmd.OutOrStdout(), g, opts)
		logger.Debug("expansion finished", "nodes", res.Nodes, "cached", res.CacheHit, "duration", res.Duration)
		return err
	}
	return c.expandToFile(cmd, runner, flags.output, g, opts)
}

// expandToFile writes the expansion to path. Output produced before an
// error stays in the file.
func (c *CLI) expandToFile(cmd *cobra.Command, runner *pipeline.Runner, path string, g *graph.Graph, opts pipeline.Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	spinner := newSpinnerWithContext(cmd.Context(), "Expanding...")
	spinner.Start()
	res, err := runner.Expand(cmd.Context(), f, g, opts)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close %s: %w", path, cerr)
	}
	if err != nil {
		spinner.StopWithError(fmt.Sprintf("Expansion stopped after %d lines", res.Nodes))
		printFile(path)
		return err
	}

	spinner.StopWithSuccess("Expanded graph")
	printFile(path)
	printStats(g.Len(), res.Nodes, res.CacheHit)
	return nil
}
