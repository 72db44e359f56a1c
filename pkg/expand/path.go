package expand

import "strings"

// Path is the chain of package names from a root down to the node being
// expanded. It is a persistent value: [Path.WithAdded] returns a new Path
// that shares its prefix with the receiver, and the receiver never
// changes. Sibling branches extend the same parent Path independently and
// never observe each other's additions.
//
// The zero value is an empty path.
type Path struct {
	tail *pathNode
	n    int
}

type pathNode struct {
	name string
	prev *pathNode
}

// WithAdded returns a path extended by name. p is left untouched.
func (p Path) WithAdded(name string) Path {
	return Path{tail: &pathNode{name: name, prev: p.tail}, n: p.n + 1}
}

// Contains reports whether name is on the path.
func (p Path) Contains(name string) bool {
	for n := p.tail; n != nil; n = n.prev {
		if n.name == name {
			return true
		}
	}
	return false
}

// Len returns the number of names on the path.
func (p Path) Len() int { return p.n }

// Names returns the path root first.
func (p Path) Names() []string {
	out := make([]string, p.n)
	i := p.n - 1
	for n := p.tail; n != nil; n = n.prev {
		out[i] = n.name
		i--
	}
	return out
}

// Last returns the most recently added name, or "" for an empty path.
func (p Path) Last() string {
	if p.tail == nil {
		return ""
	}
	return p.tail.name
}

func (p Path) String() string {
	return strings.Join(p.Names(), " > ")
}
