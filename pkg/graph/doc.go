// Package graph holds the dependency graph model and its loaders.
//
// A [Graph] maps package names to ordered lists of direct dependencies. It
// is built once, by a loader or a [Builder], and never changes afterwards:
// accessors hand out copies, so a Graph can be shared freely between
// goroutines.
//
// # Input Formats
//
// The reference representation is a JSON object of string keys to arrays
// of strings:
//
//	{
//	  "app": ["lib", "util"],
//	  "lib": ["util"],
//	  "util": []
//	}
//
// The same mapping is accepted as YAML, TOML (top-level array assignments)
// and BSON. All loaders preserve the order of keys as written, because that
// order decides the order in which packages are expanded.
//
//	g, err := graph.ReadFile("deps.json", "")        // format from extension
//	g, err := graph.Decode(os.Stdin, graph.FormatYAML)
//
// # Validation
//
// Shape checks happen at this boundary, so a Graph always holds string
// keys and lists of strings. Loaders report:
//
//   - [InvalidKeyError]: a key or list entry is not a string
//   - [MalformedGraphError]: a value is not a list
//
// A dependency that is referenced but never declared is not a loader
// error. It surfaces as [MissingDependencyError] when the expansion reaches
// it, after any output produced up to that point.
//
// # Encoding
//
// [WriteJSON], [WriteYAML] and [MarshalBSON] write a graph back out in
// declaration order. [Marshal] produces a compact canonical JSON encoding
// used for content hashing.
package graph
