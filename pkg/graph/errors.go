package graph

import (
	"fmt"

	errs "github.com/matzehuels/deptree/pkg/errors"
)

// Kind names reported by loaders for values of the wrong shape.
const (
	KindString  = "string"
	KindNumber  = "number"
	KindBoolean = "boolean"
	KindNull    = "null"
	KindObject  = "object"
	KindArray   = "array"
)

// InvalidKeyError reports a graph key, or an entry of a dependency list,
// that is not a textual package name.
type InvalidKeyError struct {
	// Package is the package whose dependency list holds the offending
	// entry. It is empty when the offending value is a top-level key.
	Package string
	Value   any
	Kind    string
}

func (e *InvalidKeyError) Error() string {
	if e.Package == "" {
		return fmt.Sprintf("invalid key: %v (%s) is not a package name", e.Value, e.Kind)
	}
	return fmt.Sprintf("invalid key: dependency %v (%s) of %q is not a package name", e.Value, e.Kind, e.Package)
}

// Code implements errors.Coder.
func (e *InvalidKeyError) Code() errs.Code { return errs.ErrCodeInvalidKey }

// MalformedGraphError reports a package whose dependencies are not an
// ordered list of names.
type MalformedGraphError struct {
	Package string
	Kind    string
}

func (e *MalformedGraphError) Error() string {
	return fmt.Sprintf("malformed graph: dependencies of %q must be a list, got %s", e.Package, e.Kind)
}

// Code implements errors.Coder.
func (e *MalformedGraphError) Code() errs.Code { return errs.ErrCodeMalformedGraph }

// MissingDependencyError reports a package that is referenced but has no
// declaration in the graph.
type MissingDependencyError struct {
	Package string
	// Parent is the package that references Package; empty for a root.
	Parent string
}

func (e *MissingDependencyError) Error() string {
	if e.Parent == "" {
		return fmt.Sprintf("missing dependency: %q is not declared in the graph", e.Package)
	}
	return fmt.Sprintf("missing dependency: %q (required by %q) is not declared in the graph", e.Package, e.Parent)
}

// Code implements errors.Coder.
func (e *MissingDependencyError) Code() errs.Code { return errs.ErrCodeMissingDependency }
