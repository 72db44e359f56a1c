// Package render turns an expansion into text.
//
// Each node emitted by [expand.Walk] becomes one line: two spaces per depth
// level, a dash, the package name and a newline.
//
//	-app
//	  -lib
//	    -util
//	  -util
//
// [Expand] is the usual entry point. It walks a graph and streams the lines
// to an [io.Writer] as they are produced, so nothing but the current path is
// held in memory. Lines written before an error stay written.
//
//	if err := render.Expand(os.Stdout, g); err != nil {
//	    return err
//	}
//
// # Conversion
//
// [ToPDF] and [ToPNG] convert SVG produced by the [nodelink] subpackage using
// the external rsvg-convert tool (from librsvg).
//
// [nodelink]: github.com/matzehuels/deptree/pkg/render/nodelink
package render
