// Package cli implements the deptree command-line interface.
//
// The commands read a dependency graph file (JSON, YAML, TOML or BSON) and
// print, export or serve its expansion. The CLI is built using cobra and
// supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - expand: Print the indented expansion of every (or selected) package
//   - show: Pretty-print the parsed graph as JSON or YAML
//   - stats: Per-package direct and expanded counts
//   - dot: Node-link export (DOT, SVG, PNG, PDF)
//   - browse: Interactive expansion browser
//   - serve: HTTP API
//   - cache: Manage the expansion cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Logs and
// status lines go to stderr; stdout carries only command output. Loggers
// are passed through context.Context.
//
// # Configuration
//
// Settings come from flags, DEPTREE_* environment variables and a YAML
// config file, in that order of precedence.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Expanded 42 nodes (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default() if none
// is attached.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
