package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/deptree/pkg/cache"
	"github.com/matzehuels/deptree/pkg/expand"
	"github.com/matzehuels/deptree/pkg/graph"
	"github.com/matzehuels/deptree/pkg/observability"
	"github.com/matzehuels/deptree/pkg/render"
	"github.com/matzehuels/deptree/pkg/render/nodelink"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner holds no per-call state, so one Runner can serve concurrent
// calls with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	TTL    time.Duration

	// MaxCacheBytes caps the size of an expansion kept for the cache.
	// Larger outputs are streamed but not cached. Zero means no cap.
	MaxCacheBytes int
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    DefaultTTL,

		MaxCacheBytes: DefaultMaxCacheBytes,
	}
}

// =============================================================================
// Load
// =============================================================================

// LoadFile reads a graph from path. An empty format is detected from the
// file extension.
func (r *Runner) LoadFile(ctx context.Context, path string, format graph.Format) (*graph.Graph, error) {
	if format == "" {
		format = graph.DetectFormat(path)
	}
	return r.load(ctx, format, func() (*graph.Graph, error) {
		return graph.ReadFile(path, format)
	})
}

// Load decodes a graph from rd.
func (r *Runner) Load(ctx context.Context, rd io.Reader, format graph.Format) (*graph.Graph, error) {
	return r.load(ctx, format, func() (*graph.Graph, error) {
		return graph.Decode(rd, format)
	})
}

func (r *Runner) load(ctx context.Context, format graph.Format, fn func() (*graph.Graph, error)) (*graph.Graph, error) {
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, string(format))
	start := time.Now()

	g, err := fn()
	hooks.OnLoadComplete(ctx, string(format), g.Len(), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	r.Logger.Debug("loaded graph",
		"format", format,
		"packages", g.Len(),
		"edges", g.EdgeCount(),
		"duration", time.Since(start))
	if missing := g.Undeclared(); len(missing) > 0 {
		r.Logger.Debug("graph references undeclared packages", "count", len(missing), "first", missing[0])
	}
	return g, nil
}

// GraphHash returns the content hash of g's canonical encoding.
func GraphHash(g *graph.Graph) (string, error) {
	data, err := graph.Marshal(g)
	if err != nil {
		return "", fmt.Errorf("serialize graph for cache key: %w", err)
	}
	return cache.Hash(data), nil
}

// =============================================================================
// Expand
// =============================================================================

// Expand writes the expansion of g to w.
//
// A cached expansion of the same graph and options is copied to w without
// walking. Otherwise the output is streamed to w as it is produced and,
// when the walk completes, stored in the cache. On error, the partial
// output stays written and the error is returned with a Result describing
// what was written.
func (r *Runner) Expand(ctx context.Context, w io.Writer, g *graph.Graph, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	logger := r.logger(opts)
	start := time.Now()

	hash, err := GraphHash(g)
	if err != nil {
		return Result{}, err
	}
	res := Result{GraphHash: hash}
	key := r.Keyer.ExpandKey(hash, opts.KeyOpts())

	if !opts.Refresh {
		if data, ok := r.lookup(ctx, key, KeyTypeExpand, logger); ok {
			n, err := w.Write(data)
			res.Bytes = n
			res.Nodes = bytes.Count(data[:n], []byte{'\n'})
			res.CacheHit = true
			res.Duration = time.Since(start)
			if err != nil {
				return res, fmt.Errorf("write: %w", err)
			}
			logger.Debug("served expansion from cache", "nodes", res.Nodes, "hash", hash[:12])
			return res, nil
		}
	}

	hooks := observability.Pipeline()
	roots := len(opts.Roots)
	if roots == 0 {
		roots = g.Len()
	}
	hooks.OnExpandStart(ctx, roots)

	cw := &countingWriter{w: w}
	var out io.Writer = cw
	var captured *cappedBuffer
	if r.caching() {
		captured = &cappedBuffer{max: r.MaxCacheBytes}
		out = io.MultiWriter(cw, captured)
	}
	rw := render.NewWriter(out)
	if opts.Jobs > 1 {
		err = expand.WalkParallel(ctx, g, opts.Jobs, rw.Visit, opts.ExpandOptions()...)
	} else {
		err = expand.Walk(g, rw.Visit, append(opts.ExpandOptions(), expand.WithContext(ctx))...)
	}
	if ferr := rw.Flush(); err == nil && ferr != nil {
		err = fmt.Errorf("write: %w", ferr)
	}

	res.Nodes = rw.Lines()
	res.Bytes = cw.n
	res.Duration = time.Since(start)
	hooks.OnExpandComplete(ctx, res.Nodes, res.Duration, err)
	if err != nil {
		logger.Debug("expansion stopped", "nodes", res.Nodes, "err", err)
		return res, err
	}

	switch {
	case captured == nil:
	case captured.overflow:
		logger.Debug("expansion too large to cache", "bytes", res.Bytes, "max", r.MaxCacheBytes)
	default:
		r.store(ctx, key, KeyTypeExpand, captured.buf.Bytes(), logger)
	}
	logger.Debug("expanded graph",
		"roots", roots,
		"nodes", res.Nodes,
		"jobs", opts.Jobs,
		"duration", res.Duration)
	return res, nil
}

// cappedBuffer keeps a copy of the output for the cache until it grows past
// max bytes, then drops it. Writes never fail, so an oversized expansion
// still streams to the caller.
type cappedBuffer struct {
	buf      bytes.Buffer
	max      int
	overflow bool
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	if c.overflow {
		return len(p), nil
	}
	if c.max > 0 && c.buf.Len()+len(p) > c.max {
		c.overflow = true
		c.buf = bytes.Buffer{}
		return len(p), nil
	}
	return c.buf.Write(p)
}

// caching reports whether results are stored anywhere.
func (r *Runner) caching() bool {
	_, null := r.Cache.(cache.NullCache)
	return !null
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}

// =============================================================================
// Node-link export
// =============================================================================

// DOT renders g as a node-link diagram in opts.Format. The boolean reports
// a cache hit.
func (r *Runner) DOT(ctx context.Context, g *graph.Graph, opts DOTOptions) ([]byte, bool, error) {
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}
	logger := r.Logger

	hash, err := GraphHash(g)
	if err != nil {
		return nil, false, err
	}
	key := r.Keyer.DOTKey(hash, opts.keyOpts())
	if !opts.Refresh {
		if data, ok := r.lookup(ctx, key, KeyTypeDOT, logger); ok {
			return data, true, nil
		}
	}

	start := time.Now()
	dot := nodelink.ToDOT(g, opts.nodelink())
	var data []byte
	switch opts.Format {
	case FormatDOT:
		data = []byte(dot)
	case FormatSVG:
		data, err = nodelink.RenderSVG(ctx, dot)
	case FormatPNG:
		data, err = nodelink.RenderPNG(ctx, dot, 2.0)
	case FormatPDF:
		data, err = nodelink.RenderPDF(ctx, dot)
	}
	if err != nil {
		return nil, false, fmt.Errorf("render %s: %w", opts.Format, err)
	}

	r.store(ctx, key, KeyTypeDOT, data, logger)
	logger.Debug("rendered node-link diagram", "format", opts.Format, "bytes", len(data), "duration", time.Since(start))
	return data, false, nil
}

// =============================================================================
// Cache helpers
// =============================================================================

func (r *Runner) lookup(ctx context.Context, key, keyType string, logger *log.Logger) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		logger.Warn("cache read failed", "err", err)
		return nil, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

func (r *Runner) store(ctx context.Context, key, keyType string, data []byte, logger *log.Logger) {
	if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
		logger.Warn("cache write failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}
