// Package nodelink renders a dependency graph as a node-link diagram.
//
// Where the text expansion unrolls every path, a node-link diagram draws
// each package once with one arrow per declared dependency. Cycles show up
// as loops.
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [ToDOT] output can also be saved and processed with external Graphviz
// tools. [RenderSVG] uses [github.com/goccy/go-graphviz] in-process; PDF and
// PNG conversion additionally requires librsvg (rsvg-convert).
package nodelink
