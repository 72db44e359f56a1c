package graph

import (
	"slices"
)

// Entry is one package declaration: a name and its ordered direct dependencies.
type Entry struct {
	Name string
	Deps []string
}

// Graph maps package names to their ordered dependency lists.
//
// Keys keep the order in which they were first declared. A Graph is
// immutable once built: every accessor returns copies, so callers cannot
// change what other readers observe. The zero value and a nil *Graph both
// behave as an empty graph.
type Graph struct {
	names []string
	deps  map[string][]string
	edges int
}

// New builds a Graph from entries in declaration order.
//
// A name declared twice keeps its first position but takes the dependency
// list of its last declaration, which mirrors how JSON objects with repeated
// keys are usually decoded.
func New(entries ...Entry) *Graph {
	b := NewBuilder()
	for _, e := range entries {
		b.Add(e.Name, e.Deps...)
	}
	return b.Graph()
}

// Builder accumulates entries for a Graph. Loaders use it to stream
// declarations as they are decoded.
type Builder struct {
	names []string
	deps  map[string][]string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{deps: make(map[string][]string)}
}

// Add declares name with the given dependencies. The slice is copied.
func (b *Builder) Add(name string, deps ...string) *Builder {
	if _, ok := b.deps[name]; !ok {
		b.names = append(b.names, name)
	}
	list := make([]string, len(deps))
	copy(list, deps)
	b.deps[name] = list
	return b
}

// Graph returns the built graph. The Builder may keep being used; later
// additions do not affect graphs already returned.
func (b *Builder) Graph() *Graph {
	g := &Graph{
		names: slices.Clone(b.names),
		deps:  make(map[string][]string, len(b.deps)),
	}
	for name, list := range b.deps {
		g.deps[name] = slices.Clone(list)
		g.edges += len(list)
	}
	return g
}

// Len returns the number of declared packages.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.names)
}

// EdgeCount returns the total number of dependency entries across all lists,
// counting literal duplicates.
func (g *Graph) EdgeCount() int {
	if g == nil {
		return 0
	}
	return g.edges
}

// Names returns the declared package names in declaration order.
func (g *Graph) Names() []string {
	if g == nil {
		return nil
	}
	return slices.Clone(g.names)
}

// Has reports whether name is declared.
func (g *Graph) Has(name string) bool {
	if g == nil {
		return false
	}
	_, ok := g.deps[name]
	return ok
}

// Deps returns a copy of name's dependency list. The boolean is false when
// name is not declared.
func (g *Graph) Deps(name string) ([]string, bool) {
	if g == nil {
		return nil, false
	}
	list, ok := g.deps[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(list), true
}

// Degree returns the length of name's dependency list without copying it.
func (g *Graph) Degree(name string) (int, bool) {
	if g == nil {
		return 0, false
	}
	list, ok := g.deps[name]
	return len(list), ok
}

// DepAt returns the i-th dependency of name. It panics if name is not
// declared or i is out of range; use [Graph.Degree] first.
func (g *Graph) DepAt(name string, i int) string {
	return g.deps[name][i]
}

// Entries returns every declaration in order.
func (g *Graph) Entries() []Entry {
	if g == nil {
		return nil
	}
	out := make([]Entry, len(g.names))
	for i, name := range g.names {
		out[i] = Entry{Name: name, Deps: slices.Clone(g.deps[name])}
	}
	return out
}

// Undeclared returns the names referenced in some dependency list but never
// declared, in order of first reference.
func (g *Graph) Undeclared() []string {
	if g == nil {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, name := range g.names {
		for _, dep := range g.deps[name] {
			if _, ok := g.deps[dep]; ok || seen[dep] {
				continue
			}
			seen[dep] = true
			out = append(out, dep)
		}
	}
	return out
}
