// Package pkg holds the deptree libraries.
//
// # Overview
//
// deptree reads a mapping from package names to their direct dependencies
// and prints, for every package, the full tree of what it transitively
// depends on. The libraries are layered:
//
//  1. [graph] - The graph model, loaders (JSON, YAML, TOML, BSON) and writers
//  2. [expand] - Depth-first expansion with per-branch cycle cutting
//  3. [render] - Indented text output and node-link (DOT/SVG/PDF/PNG) export
//  4. [cache] - File, Redis and no-op caches for finished outputs
//  5. [pipeline] - Load → expand → render with caching and hooks
//  6. [server] - HTTP API over the pipeline
//
// # Data Flow
//
//	graph file (JSON / YAML / TOML / BSON)
//	         ↓
//	    [graph] package (decode + validate)
//	         ↓
//	    [expand] package (walk, one node per line)
//	         ↓
//	    [render] package (two spaces per level, "-" + name)
//	         ↓
//	    stdout / file / HTTP response
//
// # Quick Start
//
//	g, err := graph.ReadFile("deps.json", "")
//	if err != nil {
//	    return err
//	}
//	if err := render.Expand(os.Stdout, g); err != nil {
//	    return err // output up to the failure has been written
//	}
//
// [graph]: github.com/matzehuels/deptree/pkg/graph
// [expand]: github.com/matzehuels/deptree/pkg/expand
// [render]: github.com/matzehuels/deptree/pkg/render
// [cache]: github.com/matzehuels/deptree/pkg/cache
// [pipeline]: github.com/matzehuels/deptree/pkg/pipeline
// [server]: github.com/matzehuels/deptree/pkg/server
package pkg
