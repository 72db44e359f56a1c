package expand

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/matzehuels/deptree/pkg/graph"
)

// randomGraph builds a graph of n packages where each package depends on up
// to four others chosen at random, cycles included.
func randomGraph(seed int64, n int, missing bool) *graph.Graph {
	r := rand.New(rand.NewSource(seed))
	b := graph.NewBuilder()
	for i := 0; i < n; i++ {
		var deps []string
		for j := r.Intn(4); j > 0; j-- {
			deps = append(deps, fmt.Sprintf("p%d", r.Intn(n)))
		}
		if missing && i == n/2 {
			deps = append(deps, "ghost")
		}
		b.Add(fmt.Sprintf("p%d", i), deps...)
	}
	return b.Graph()
}

func collectParallel(t *testing.T, g *graph.Graph, jobs int, opts ...Option) ([]Node, error) {
	t.Helper()
	var nodes []Node
	err := WalkParallel(context.Background(), g, jobs, func(n Node) error {
		nodes = append(nodes, n)
		return nil
	}, opts...)
	return nodes, err
}

func TestWalkParallelMatchesWalk(t *testing.T) {
	tests := []struct {
		name    string
		graph   *graph.Graph
		jobs    int
		opts    []Option
		wantErr bool
	}{
		{name: "Empty", graph: g(), jobs: 4},
		{name: "Cycle", graph: g(e("a", "b"), e("b", "c"), e("c", "a")), jobs: 2},
		{name: "Random", graph: randomGraph(1, 12, false), jobs: 3},
		{name: "Unlimited", graph: randomGraph(2, 12, false), jobs: 0},
		{name: "Roots", graph: randomGraph(3, 12, false), jobs: 2, opts: []Option{WithRoots("p3", "p1", "p3")}},
		{name: "Duplicates", graph: randomGraph(4, 10, false), jobs: 2, opts: []Option{WithDuplicates(true)}},
		{name: "Missing", graph: randomGraph(5, 12, true), jobs: 4, wantErr: true},
		{name: "MaxNodes", graph: randomGraph(6, 12, false), jobs: 4, opts: []Option{WithMaxNodes(20)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, wantErr := Collect(tt.graph, tt.opts...)
			got, gotErr := collectParallel(t, tt.graph, tt.jobs, tt.opts...)

			if (wantErr != nil) != tt.wantErr {
				t.Fatalf("sequential error = %v, wantErr %v", wantErr, tt.wantErr)
			}
			if (gotErr != nil) != (wantErr != nil) {
				t.Fatalf("parallel error = %v, sequential error = %v", gotErr, wantErr)
			}
			if gotErr != nil && gotErr.Error() != wantErr.Error() {
				t.Errorf("parallel error = %q, sequential error = %q", gotErr, wantErr)
			}
			if tree(got) != tree(want) {
				t.Errorf("parallel output differs:\n%s\nsequential:\n%s", tree(got), tree(want))
			}
		})
	}
}

func TestWalkParallelMissingKeepsEarlierRoots(t *testing.T) {
	gr := g(e("a", "b"), e("b"), e("c", "ghost"), e("d"))
	nodes, err := collectParallel(t, gr, 4)

	var missing *graph.MissingDependencyError
	if !errors.As(err, &missing) || missing.Package != "ghost" {
		t.Fatalf("error = %v, want missing ghost", err)
	}
	want := "-a\n  -b\n-b\n-c\n  -ghost\n"
	if got := tree(nodes); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestWalkParallelCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := WalkParallel(ctx, randomGraph(7, 8, false), 2, func(Node) error {
		calls++
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("visitor called %d times after cancellation", calls)
	}
}

func TestWalkParallelVisitorError(t *testing.T) {
	stop := errors.New("stop")
	err := WalkParallel(context.Background(), g(e("a"), e("b")), 2, func(n Node) error {
		if n.Name == "b" {
			return stop
		}
		return nil
	})
	if err != stop {
		t.Errorf("error = %v, want visitor error", err)
	}
}

func TestRandomGraphInvariants(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		gr := randomGraph(seed, 8, false)
		nodes, err := Collect(gr)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}

		// Replay the output as a stack of open ancestors and check that no
		// node repeats one of its ancestors, every child is a declared
		// dependency of its parent, and depth grows by at most one per line.
		var stack []string
		for i, n := range nodes {
			if n.Depth > len(stack) {
				t.Fatalf("seed %d line %d: depth jumps to %d", seed, i, n.Depth)
			}
			stack = stack[:n.Depth]
			for _, anc := range stack {
				if anc == n.Name {
					t.Fatalf("seed %d line %d: %s repeats an ancestor", seed, i, n.Name)
				}
			}
			if n.Depth > 0 {
				deps, _ := gr.Deps(stack[n.Depth-1])
				found := false
				for _, d := range deps {
					found = found || d == n.Name
				}
				if !found {
					t.Fatalf("seed %d line %d: %s is not a dependency of %s", seed, i, n.Name, stack[n.Depth-1])
				}
			}
			stack = append(stack, n.Name)
		}

		roots := 0
		for _, n := range nodes {
			if n.Depth == 0 {
				roots++
			}
		}
		if roots != gr.Len() {
			t.Errorf("seed %d: %d roots, want %d", seed, roots, gr.Len())
		}
	}
}
