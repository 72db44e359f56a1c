package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/deptree/pkg/graph"
)

// showCommand creates the show command, which prints the parsed graph.
func (c *CLI) showCommand() *cobra.Command {
	var format, as string

	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Print the parsed graph as JSON or YAML",
		Long: `Print the graph as deptree reads it: keys and dependency lists in declaration
order. Useful to convert between input formats or to check how a TOML or BSON
file was understood.`,
		Example: `  deptree show deps.toml
  deptree show deps.json --as yaml > deps.yaml`,
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

			switch as {
			case "json":
				return graph.WriteJSON(g, cmd.OutOrStdout())
			case "yaml", "yml":
				return graph.WriteYAML(g, cmd.OutOrStdout())
			}
			return fmt.Errorf("invalid output format: %q (must be json or yaml)", as)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "input format: json, yaml, toml, bson (default: from extension)")
	cmd.Flags().StringVar(&as, "as", "json", "output format: json or yaml")
	_ = cmd.RegisterFlagCompletionFunc("as", cobra.FixedCompletions([]string{"json", "yaml"}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}
