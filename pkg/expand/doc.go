// Package expand unrolls a dependency graph into a depth-first forest.
//
// Every declared package becomes a root. Below each node, its direct
// dependencies are expanded recursively, in list order. Two rules bound the
// output:
//
//   - A name already on the current root-to-node [Path] is skipped. This
//     cuts cycles, including a package that depends on itself.
//   - Nothing else is deduplicated. A dependency shared by several branches
//     (a diamond) is expanded in full under each of them.
//
// The output can therefore grow exponentially with the depth of densely
// connected graphs. That is the contract: callers that need a bound use
// [WithMaxNodes].
//
// # Usage
//
//	err := expand.Walk(g, func(n expand.Node) error {
//	    fmt.Printf("%s-%s\n", strings.Repeat("  ", n.Depth), n.Name)
//	    return nil
//	})
//
// The pkg/render package wraps exactly this loop.
//
// # Errors
//
// A referenced but undeclared package fails the walk with
// *graph.MissingDependencyError once the walk reaches it. Nodes emitted
// before the failure stay emitted. In strict mode ([WithStrictSelfDeps]) a
// package listing itself fails with [SelfDependencyError].
//
// # Concurrency
//
// [Walk] is sequential. [WalkParallel] expands roots concurrently and
// replays them in order, producing the same node sequence.
package expand
