package expand

import (
	"context"
	"errors"
	"fmt"

	errs "github.com/matzehuels/deptree/pkg/errors"
	"github.com/matzehuels/deptree/pkg/graph"
)

// ErrNodeLimit is returned when an expansion would emit more nodes than
// allowed by [WithMaxNodes].
var ErrNodeLimit = errs.New(errs.ErrCodeLimitExceeded, "node limit reached")

// SelfDependencyError is returned in strict mode when a package lists
// itself as a direct dependency.
type SelfDependencyError struct {
	Package string
}

func (e *SelfDependencyError) Error() string {
	return fmt.Sprintf("self-dependency detected: %q depends on itself", e.Package)
}

// Code implements errors.Coder.
func (e *SelfDependencyError) Code() errs.Code { return errs.ErrCodeSelfDependency }

// Node is one emitted line of an expansion: a package name at a depth
// below its root. Roots have depth 0.
type Node struct {
	Depth int
	Name  string
}

// Visitor receives nodes in depth-first order. Returning an error stops
// the walk; the error is returned by [Walk] unchanged.
type Visitor func(Node) error

// Option configures an expansion.
type Option func(*config)

type config struct {
	ctx        context.Context
	roots      []string
	rootsSet   bool
	maxNodes   int
	duplicates bool
	strict     bool
}

func newConfig(opts []Option) config {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithRoots restricts the expansion to the given starting packages, in the
// given order. By default every declared package is a root, in declaration
// order.
func WithRoots(names ...string) Option {
	return func(c *config) {
		c.roots = append([]string(nil), names...)
		c.rootsSet = true
	}
}

// WithMaxNodes stops the walk with [ErrNodeLimit] before emitting node
// n+1. Zero or a negative value means no limit.
func WithMaxNodes(n int) Option {
	return func(c *config) { c.maxNodes = n }
}

// WithDuplicates controls literal repeats inside a single dependency list.
// By default the second occurrence of a name in the same list is skipped;
// with keep set, every occurrence is expanded.
func WithDuplicates(keep bool) Option {
	return func(c *config) { c.duplicates = keep }
}

// WithStrictSelfDeps makes a package that lists itself as a direct
// dependency an error ([SelfDependencyError]) instead of a silently
// suppressed branch.
func WithStrictSelfDeps(strict bool) Option {
	return func(c *config) { c.strict = strict }
}

// WithContext makes the walk stop with ctx.Err() once ctx is done. The
// context is checked before the first node and then every 1024 nodes, so a
// walk cancelled midway may still emit a small batch.
func WithContext(ctx context.Context) Option {
	return func(c *config) { c.ctx = ctx }
}

// rootList returns the starting names with literal repeats removed unless
// duplicates are kept.
func (c config) rootList(g *graph.Graph) []string {
	roots := c.roots
	if !c.rootsSet {
		roots = g.Names()
	}
	if c.duplicates {
		return roots
	}
	seen := make(map[string]bool, len(roots))
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// frame is one dependency list being iterated. The top frame iterates the
// roots; every other frame iterates the list of parent.
type frame struct {
	parent string
	top    bool
	idx    int
	n      int
	path   Path
	depth  int
	seen   map[string]struct{}
}

// Walk expands g depth first and calls visit for every emitted node.
//
// For each name in a list, in order: a name already on the current path is
// skipped; otherwise the node is emitted, its dependency list is looked up,
// and the list is expanded one level deeper with the name added to a
// branch-local copy of the path. Shared dependencies are expanded once per
// branch that reaches them; only cycles are cut.
//
// A name with no declaration fails with *graph.MissingDependencyError after
// the node itself was emitted. Nodes emitted before an error are not taken
// back. The walk uses an explicit stack, so long dependency chains do not
// grow the goroutine stack.
func Walk(g *graph.Graph, visit Visitor, opts ...Option) error {
	c := newConfig(opts)
	return c.walk(g, c.rootList(g), visit)
}

func (c config) walk(g *graph.Graph, roots []string, visit Visitor) error {
	stack := []frame{{top: true, n: len(roots)}}
	emitted := 0

	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		if f.idx >= f.n {
			stack = stack[:len(stack)-1]
			continue
		}

		var name string
		if f.top {
			name = roots[f.idx]
		} else {
			name = g.DepAt(f.parent, f.idx)
		}
		f.idx++

		if c.strict && !f.top && name == f.parent {
			return &SelfDependencyError{Package: name}
		}
		if f.path.Contains(name) {
			continue
		}
		if !c.duplicates && !f.top && f.n > 1 {
			if f.seen == nil {
				f.seen = make(map[string]struct{}, f.n)
			}
			if _, dup := f.seen[name]; dup {
				continue
			}
			f.seen[name] = struct{}{}
		}

		if c.maxNodes > 0 && emitted >= c.maxNodes {
			return fmt.Errorf("%w (max %d)", ErrNodeLimit, c.maxNodes)
		}
		if c.ctx != nil && emitted%ctxCheckInterval == 0 {
			if err := c.ctx.Err(); err != nil {
				return err
			}
		}
		if err := visit(Node{Depth: f.depth, Name: name}); err != nil {
			return err
		}
		emitted++

		n, ok := g.Degree(name)
		if !ok {
			return &graph.MissingDependencyError{Package: name, Parent: f.parent}
		}
		if n == 0 {
			continue
		}
		stack = append(stack, frame{
			parent: name,
			n:      n,
			path:   f.path.WithAdded(name),
			depth:  f.depth + 1,
		})
	}
	return nil
}

// Collect runs [Walk] and returns the emitted nodes. On error it returns
// the nodes emitted before the failure together with the error.
func Collect(g *graph.Graph, opts ...Option) ([]Node, error) {
	var nodes []Node
	err := Walk(g, func(n Node) error {
		nodes = append(nodes, n)
		return nil
	}, opts...)
	return nodes, err
}

// Count returns the number of nodes the expansion of g emits.
func Count(g *graph.Graph, opts ...Option) (int, error) {
	count := 0
	err := Walk(g, func(Node) error {
		count++
		return nil
	}, opts...)
	return count, err
}

// IsCoreError reports whether err is one of the structural errors raised
// while expanding or loading a graph.
func IsCoreError(err error) bool {
	var (
		missing   *graph.MissingDependencyError
		malformed *graph.MalformedGraphError
		invalid   *graph.InvalidKeyError
		self      *SelfDependencyError
	)
	return errors.As(err, &missing) || errors.As(err, &malformed) ||
		errors.As(err, &invalid) || errors.As(err, &self)
}
