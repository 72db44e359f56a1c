package expand

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/deptree/pkg/graph"
)

// ctxCheckInterval is how many nodes a worker emits between checks for
// cancellation.
const ctxCheckInterval = 1024

type rootResult struct {
	nodes []Node
	err   error
}

// WalkParallel expands every root in its own goroutine, at most jobs at a
// time (jobs <= 0 means no limit), and then replays the buffered nodes to
// visit in root order.
//
// Roots share nothing but the read-only graph, so no synchronization is
// needed between workers. The replay makes the visible result identical to
// [Walk]: if a root fails, the roots before it are replayed in full, then
// the failing root's partial output, then its error is returned. The cost
// is that each root's expansion is held in memory until it is replayed.
//
// Cancelling ctx stops pending and running workers and returns ctx.Err().
func WalkParallel(ctx context.Context, g *graph.Graph, jobs int, visit Visitor, opts ...Option) error {
	c := newConfig(opts)
	roots := c.rootList(g)
	results := make([]rootResult, len(roots))

	eg, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		eg.SetLimit(jobs)
	}
	for i, root := range roots {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var nodes []Node
			err := c.walk(g, []string{root}, func(n Node) error {
				if len(nodes)%ctxCheckInterval == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				nodes = append(nodes, n)
				return nil
			})
			if err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			// Core errors stay with their root; returning them would cancel
			// roots that come earlier in the output.
			results[i] = rootResult{nodes: nodes, err: err}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	emitted := 0
	for _, r := range results {
		for _, n := range r.nodes {
			if c.maxNodes > 0 && emitted >= c.maxNodes {
				return fmt.Errorf("%w (max %d)", ErrNodeLimit, c.maxNodes)
			}
			if err := visit(n); err != nil {
				return err
			}
			emitted++
		}
		if r.err != nil {
			return r.err
		}
	}
	return nil
}
