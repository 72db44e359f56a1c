package graph

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	errs "github.com/matzehuels/deptree/pkg/errors"
)

// Format identifies a serialization of the name → dependency-list mapping.
type Format string

// Supported input formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatBSON Format = "bson"
)

// Formats lists every supported format, reference format first.
var Formats = []Format{FormatJSON, FormatYAML, FormatTOML, FormatBSON}

var extensions = map[string]Format{
	".json": FormatJSON,
	".yaml": FormatYAML,
	".yml":  FormatYAML,
	".toml": FormatTOML,
	".bson": FormatBSON,
}

// ParseFormat converts a user-supplied format name. The empty string maps
// to [FormatJSON].
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case "yml":
		return FormatYAML, nil
	case FormatJSON, FormatYAML, FormatTOML, FormatBSON:
		return f, nil
	}
	return "", errs.New(errs.ErrCodeInvalidFormat, "unsupported format %q (supported: json, yaml, toml, bson)", s)
}

// DetectFormat picks a format from the file extension, falling back to
// JSON for unknown or missing extensions.
func DetectFormat(path string) Format {
	if f, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return f
	}
	return FormatJSON
}

// Decode reads a graph in format f from r.
//
// Structural defects are reported with the typed errors of this package:
// [InvalidKeyError] for non-string keys or list entries and
// [MalformedGraphError] for values that are not lists. Syntax errors and a
// top level that is not a mapping are coded errors.ErrCodeInvalidFormat.
// Decode does not close r.
func Decode(r io.Reader, f Format) (*Graph, error) {
	switch f {
	case FormatJSON, "":
		return decodeJSON(r)
	case FormatYAML:
		return decodeYAML(r)
	case FormatTOML:
		return decodeTOML(r)
	case FormatBSON:
		return decodeBSON(r)
	}
	return nil, errs.New(errs.ErrCodeInvalidFormat, "unsupported format %q", f)
}

// ReadFile opens path and decodes it. An empty f selects the format from
// the extension with [DetectFormat]. A missing file is reported with
// errors.ErrCodeFileNotFound.
func ReadFile(path string, f Format) (*Graph, error) {
	if f == "" {
		f = DetectFormat(path)
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "graph file %s not found", path)
		}
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer file.Close()
	return Decode(file, f)
}
