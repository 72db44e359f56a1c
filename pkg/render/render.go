package render

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/matzehuels/deptree/pkg/expand"
	"github.com/matzehuels/deptree/pkg/graph"
)

// Indent is written once per depth level in front of a node.
const Indent = "  "

// Line formats n as a single output line, newline included.
func Line(n expand.Node) string {
	return strings.Repeat(Indent, n.Depth) + "-" + n.Name + "\n"
}

// Writer streams rendered nodes to an underlying writer through a buffer.
// Its Visit method is an [expand.Visitor]. Call Flush when done.
type Writer struct {
	bw    *bufio.Writer
	lines int
}

// NewWriter returns a Writer that writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

// Visit writes the line for n.
func (w *Writer) Visit(n expand.Node) error {
	for range n.Depth {
		if _, err := w.bw.WriteString(Indent); err != nil {
			return err
		}
	}
	w.bw.WriteByte('-')
	w.bw.WriteString(n.Name)
	if err := w.bw.WriteByte('\n'); err != nil {
		return err
	}
	w.lines++
	return nil
}

// Lines returns the number of lines written so far.
func (w *Writer) Lines() int { return w.lines }

// Flush writes any buffered output.
func (w *Writer) Flush() error { return w.bw.Flush() }

// Expand walks g and writes its rendering to w. On error, the lines emitted
// before the failure are flushed to w and the walk error is returned.
func Expand(w io.Writer, g *graph.Graph, opts ...expand.Option) error {
	rw := NewWriter(w)
	err := expand.Walk(g, rw.Visit, opts...)
	if ferr := rw.Flush(); err == nil {
		err = ferr
	}
	return err
}

// ExpandParallel is [Expand] with roots expanded concurrently by
// [expand.WalkParallel]. The output is identical to Expand's.
func ExpandParallel(ctx context.Context, w io.Writer, g *graph.Graph, jobs int, opts ...expand.Option) error {
	rw := NewWriter(w)
	err := expand.WalkParallel(ctx, g, jobs, rw.Visit, opts...)
	if ferr := rw.Flush(); err == nil {
		err = ferr
	}
	return err
}

// String returns the rendering of g. On error it returns the partial output
// together with the error.
func String(g *graph.Graph, opts ...expand.Option) (string, error) {
	var b strings.Builder
	err := Expand(&b, g, opts...)
	return b.String(), err
}
