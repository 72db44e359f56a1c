package render

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/matzehuels/deptree/pkg/expand"
	"github.com/matzehuels/deptree/pkg/graph"
)

func TestLine(t *testing.T) {
	tests := []struct {
		node expand.Node
		want string
	}{
		{expand.Node{Depth: 0, Name: "pkg1"}, "-pkg1\n"},
		{expand.Node{Depth: 1, Name: "pkg2"}, "  -pkg2\n"},
		{expand.Node{Depth: 3, Name: "a b"}, "      -a b\n"},
	}
	for _, tt := range tests {
		if got := Line(tt.node); got != tt.want {
			t.Errorf("Line(%+v) = %q, want %q", tt.node, got, tt.want)
		}
	}
}

func TestWriterMatchesLine(t *testing.T) {
	nodes := []expand.Node{
		{Depth: 0, Name: "a"},
		{Depth: 1, Name: "b"},
		{Depth: 2, Name: "c"},
		{Depth: 1, Name: "d"},
		{Depth: 0, Name: "e"},
	}

	var want strings.Builder
	for _, n := range nodes {
		want.WriteString(Line(n))
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, n := range nodes {
		if err := w.Visit(n); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	if buf.String() != want.String() {
		t.Errorf("Writer output = %q, want %q", buf.String(), want.String())
	}
	if w.Lines() != len(nodes) {
		t.Errorf("Lines() = %d, want %d", w.Lines(), len(nodes))
	}
}

func decode(t *testing.T, src string) *graph.Graph {
	t.Helper()
	g, err := graph.Decode(strings.NewReader(src), graph.FormatJSON)
	if err != nil {
		t.Fatalf("decode %s: %v", src, err)
	}
	return g
}

func TestString(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"Empty", `{}`, ""},
		{"Single", `{"pkg1": []}`, "-pkg1\n"},
		{"SelfReference", `{"pkg1": ["pkg1"], "pkg2": []}`, "-pkg1\n-pkg2\n"},
		{
			name: "Tree",
			src:  `{"a": ["b", "c"], "b": ["d"], "c": [], "d": []}`,
			want: "-a\n  -b\n    -d\n  -c\n-b\n  -d\n-c\n-d\n",
		},
		{
			name: "Diamond",
			src:  `{"top": ["left", "right"], "left": ["base"], "right": ["base"], "base": []}`,
			want: "" +
				"-top\n  -left\n    -base\n  -right\n    -base\n" +
				"-left\n  -base\n" +
				"-right\n  -base\n" +
				"-base\n",
		},
		{
			name: "MutualCycle",
			src:  `{"x": ["y"], "y": ["x"]}`,
			want: "-x\n  -y\n-y\n  -x\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := String(decode(t, tt.src))
			if err != nil {
				t.Fatalf("String: %v", err)
			}
			if got != tt.want {
				t.Errorf("got\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestExpandKeepsPartialOutput(t *testing.T) {
	var buf bytes.Buffer
	err := Expand(&buf, decode(t, `{"pkg1": ["pkg2"]}`))

	var missing *graph.MissingDependencyError
	if !errors.As(err, &missing) || missing.Package != "pkg2" {
		t.Fatalf("error = %v, want missing pkg2", err)
	}
	if got := buf.String(); got != "-pkg1\n  -pkg2\n" {
		t.Errorf("partial output = %q", got)
	}
}

func TestExpandRoots(t *testing.T) {
	got, err := String(decode(t, `{"a": ["b"], "b": [], "c": ["a"]}`), expand.WithRoots("c"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "-c\n  -a\n    -b\n" {
		t.Errorf("got %q", got)
	}
}

func TestExpandParallel(t *testing.T) {
	g := decode(t, `{"a": ["b", "c"], "b": ["c"], "c": ["a"], "d": ["e"]}`)

	want, wantErr := String(g)
	var buf bytes.Buffer
	err := ExpandParallel(context.Background(), &buf, g, 3)

	if buf.String() != want {
		t.Errorf("parallel output = %q, want %q", buf.String(), want)
	}
	if (err == nil) != (wantErr == nil) || err.Error() != wantErr.Error() {
		t.Errorf("parallel error = %v, want %v", err, wantErr)
	}
}

type failWriter struct{ err error }

func (f failWriter) Write([]byte) (int, error) { return 0, f.err }

func TestExpandWriteError(t *testing.T) {
	boom := errors.New("disk full")
	err := Expand(failWriter{boom}, decode(t, `{"a": []}`))
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want write error", err)
	}
}
