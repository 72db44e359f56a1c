package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/deptree/pkg/graph"
	"github.com/matzehuels/deptree/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the direct dependency count to each label.
	Detailed bool
	// Roots limits the diagram to packages reachable from these names.
	// Empty means every package.
	Roots []string
}

// ToDOT converts g to Graphviz DOT source. Each package appears once and
// each dependency entry becomes an edge, so cycles and shared dependencies
// are drawn as they are declared rather than unrolled.
//
// Names referenced but never declared are drawn dashed and grey.
func ToDOT(g *graph.Graph, opts Options) string {
	names := reachable(g, opts.Roots)

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, name := range names {
		fmt.Fprintf(&buf, "  %q [%s];\n", name, strings.Join(fmtAttrs(g, name, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	seen := make(map[[2]string]bool)
	for _, name := range names {
		deps, _ := g.Deps(name)
		for _, dep := range deps {
			edge := [2]string{name, dep}
			if seen[edge] {
				continue
			}
			seen[edge] = true
			fmt.Fprintf(&buf, "  %q -> %q;\n", name, dep)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// reachable returns the names to draw in first-seen order: declared roots in
// declaration order followed by anything they reach.
func reachable(g *graph.Graph, roots []string) []string {
	if len(roots) == 0 {
		roots = g.Names()
	}
	var out []string
	seen := make(map[string]bool)
	queue := append([]string(nil), roots...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
		deps, _ := g.Deps(name)
		queue = append(queue, deps...)
	}
	return out
}

func fmtAttrs(g *graph.Graph, name string, detailed bool) []string {
	label := name
	n, declared := g.Degree(name)
	if detailed && declared {
		label = fmt.Sprintf("%s\ndeps: %d", name, n)
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if !declared {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG using the embedded Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with one whose
// viewBox starts at the origin and whose size matches it.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}

// RenderPDF renders DOT source to PDF via SVG. Requires rsvg-convert.
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders DOT source to PNG via SVG. Requires rsvg-convert.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
