package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/deptree/pkg/server"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve expansions over HTTP",
		Long: `Start an HTTP server that expands graphs posted to it.

  POST /v1/expand   expand the graph in the request body (text/plain)
  POST /v1/dot      node-link export (DOT or SVG)
  GET  /healthz     liveness check

The server shares the CLI cache configuration and stops on SIGINT/SIGTERM.`,
		Example: `  deptree serve --addr :9000
  curl --data-binary @deps.json 'localhost:9000/v1/expand?root=app'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			cfg := c.config.Serve
			srv := server.New(runner, c.Logger,
				server.WithMaxBody(cfg.MaxBody),
				server.WithMaxNodes(c.config.Expand.MaxNodes))
			printInfo("Listening on %s", StyleHighlight.Render(cfg.Addr))
			p := newProgress(c.Logger)
			if err := srv.ListenAndServe(ctx, cfg.Addr); err != nil {
				return err
			}
			p.done("Server stopped")
			return nil
		},
	}

	cmd.Flags().String("addr", defaultAddr, "listen address")
	cmd.Flags().Int64("max-body", server.DefaultMaxBody, "request body limit in bytes")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
