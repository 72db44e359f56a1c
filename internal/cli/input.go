package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/deptree/pkg/graph"
	"github.com/matzehuels/deptree/pkg/pipeline"
)

// stdinPath names standard input as a graph file argument.
const stdinPath = "-"

// loadGraph reads the graph at path, or from the command's stdin when path
// is "-". An empty format is detected from the extension (JSON for stdin).
func loadGraph(ctx context.Context, cmd *cobra.Command, r *pipeline.Runner, path, format string) (*graph.Graph, error) {
	var f graph.Format
	if format != "" {
		var err error
		if f, err = graph.ParseFormat(format); err != nil {
			return nil, err
		}
	}
	if path == stdinPath {
		if f == "" {
			f = graph.FormatJSON
		}
		return r.Load(ctx, cmd.InOrStdin(), f)
	}
	return r.LoadFile(ctx, path, f)
}

// writeOutput writes data to path atomically, creating parent directories.
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// graphFileCompletion suggests graph files for the positional argument.
func graphFileCompletion(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{"json", "yaml", "yml", "toml", "bson"}, cobra.ShellCompDirectiveFilterFileExt
}
