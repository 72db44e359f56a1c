// Package pipeline provides the load → expand → render pipeline shared by
// the CLI and the HTTP API.
//
// A [Runner] owns a cache and a logger. It loads graphs from files or
// readers, streams expansions to a writer while capturing them for the
// cache, and renders node-link exports. Observability hooks fire around
// each stage.
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	defer runner.Close()
//
//	g, err := runner.LoadFile(ctx, "deps.json", "")
//	if err != nil {
//	    return err
//	}
//	res, err := runner.Expand(ctx, os.Stdout, g, pipeline.Options{Jobs: 4})
//
// Only complete expansions are cached. An expansion that stops on an error
// streams its partial output and returns the error, and the next run walks
// the graph again.
package pipeline

import (
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/deptree/pkg/cache"
	errs "github.com/matzehuels/deptree/pkg/errors"
	"github.com/matzehuels/deptree/pkg/expand"
	"github.com/matzehuels/deptree/pkg/render/nodelink"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultTTL is how long cached outputs are kept.
	DefaultTTL = 24 * time.Hour

	// DefaultJobs expands roots sequentially.
	DefaultJobs = 1

	// DefaultMaxCacheBytes is the largest expansion output kept in the cache.
	DefaultMaxCacheBytes = 16 << 20
)

// Key types reported to cache hooks.
const (
	KeyTypeExpand = "expand"
	KeyTypeDOT    = "dot"
)

// Export formats for [Runner.DOT].
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// ValidFormats is the set of supported export formats.
var ValidFormats = []string{FormatDOT, FormatSVG, FormatPNG, FormatPDF}

// =============================================================================
// Options - Expansion Configuration
// =============================================================================

// Options configures one expansion.
type Options struct {
	Roots      []string `json:"roots,omitempty"`
	MaxNodes   int      `json:"max_nodes,omitempty"`
	Jobs       int      `json:"jobs,omitempty"`
	Duplicates bool     `json:"duplicates,omitempty"`
	Strict     bool     `json:"strict,omitempty"`

	// Refresh skips the cache lookup but still stores the result.
	Refresh bool `json:"refresh,omitempty"`

	// Logger overrides the runner's logger for this call.
	Logger *log.Logger `json:"-"`
}

// Validate checks option ranges and applies defaults.
func (o *Options) Validate() error {
	if o.MaxNodes < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "max nodes must not be negative, got %d", o.MaxNodes)
	}
	if o.Jobs < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "jobs must not be negative, got %d", o.Jobs)
	}
	if o.Jobs == 0 {
		o.Jobs = DefaultJobs
	}
	return nil
}

// ExpandOptions converts o to walk options.
func (o Options) ExpandOptions() []expand.Option {
	opts := []expand.Option{
		expand.WithMaxNodes(o.MaxNodes),
		expand.WithDuplicates(o.Duplicates),
		expand.WithStrictSelfDeps(o.Strict),
	}
	if len(o.Roots) > 0 {
		opts = append(opts, expand.WithRoots(o.Roots...))
	}
	return opts
}

// KeyOpts returns the cache key options for o. Jobs is left out: parallel
// and sequential expansions produce the same output.
func (o Options) KeyOpts() cache.ExpandKeyOpts {
	return cache.ExpandKeyOpts{
		Roots:      o.Roots,
		MaxNodes:   o.MaxNodes,
		Duplicates: o.Duplicates,
		Strict:     o.Strict,
	}
}

// DOTOptions configures a node-link export.
type DOTOptions struct {
	Roots    []string
	Detailed bool
	Format   string
	Refresh  bool
}

// Validate checks the export format, defaulting it to DOT source.
func (o *DOTOptions) Validate() error {
	if o.Format == "" {
		o.Format = FormatDOT
	}
	if !slices.Contains(ValidFormats, o.Format) {
		return errs.New(errs.ErrCodeInvalidFormat, "invalid export format: %q (must be one of: dot, svg, png, pdf)", o.Format)
	}
	return nil
}

func (o DOTOptions) nodelink() nodelink.Options {
	return nodelink.Options{Roots: o.Roots, Detailed: o.Detailed}
}

func (o DOTOptions) keyOpts() cache.DOTKeyOpts {
	return cache.DOTKeyOpts{Roots: o.Roots, Detailed: o.Detailed, Format: o.Format}
}

// Result describes a finished or failed expansion.
type Result struct {
	// GraphHash is the content hash of the expanded graph.
	GraphHash string

	// Nodes is the number of lines written, including partial output.
	Nodes int

	// Bytes is the number of bytes written.
	Bytes int

	// CacheHit reports whether the output came from the cache.
	CacheHit bool

	// Duration covers lookup, walk and write.
	Duration time.Duration
}

func (r Result) String() string {
	return fmt.Sprintf("%d nodes, %d bytes in %s (cached: %v)", r.Nodes, r.Bytes, r.Duration, r.CacheHit)
}
