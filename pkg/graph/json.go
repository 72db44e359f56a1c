package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	errs "github.com/matzehuels/deptree/pkg/errors"
)

// decodeJSON streams tokens instead of unmarshalling into a map so that
// key order survives.
func decodeJSON(r io.Reader) (*Graph, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, jsonSyntax(err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errs.New(errs.ErrCodeInvalidFormat, "graph must be a JSON object, got %s", jsonKind(tok))
	}

	b := NewBuilder()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, jsonSyntax(err)
		}
		name := tok.(string) // object keys are always strings

		tok, err = dec.Token()
		if err != nil {
			return nil, jsonSyntax(err)
		}
		if d, ok := tok.(json.Delim); !ok || d != '[' {
			return nil, &MalformedGraphError{Package: name, Kind: jsonKind(tok)}
		}

		deps := []string{}
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, jsonSyntax(err)
			}
			s, ok := tok.(string)
			if !ok {
				return nil, &InvalidKeyError{Package: name, Value: jsonValue(tok), Kind: jsonKind(tok)}
			}
			deps = append(deps, s)
		}
		if _, err := dec.Token(); err != nil { // ']'
			return nil, jsonSyntax(err)
		}
		b.Add(name, deps...)
	}
	if _, err := dec.Token(); err != nil { // '}'
		return nil, jsonSyntax(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		if err != nil {
			return nil, jsonSyntax(err)
		}
		return nil, errs.New(errs.ErrCodeInvalidFormat, "invalid JSON: unexpected data after graph object")
	}
	return b.Graph(), nil
}

func jsonSyntax(err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return errs.Wrap(errs.ErrCodeInvalidFormat, err, "invalid JSON")
}

func jsonKind(tok json.Token) string {
	switch v := tok.(type) {
	case json.Delim:
		if v == '{' {
			return KindObject
		}
		return KindArray
	case string:
		return KindString
	case json.Number, float64:
		return KindNumber
	case bool:
		return KindBoolean
	case nil:
		return KindNull
	}
	return fmt.Sprintf("%T", tok)
}

func jsonValue(tok json.Token) any {
	switch v := tok.(type) {
	case json.Delim:
		return string(v)
	case json.Number:
		return v.String()
	}
	return tok
}

// Marshal returns the compact JSON encoding of g with keys in declaration
// order. The encoding is canonical: equal graphs marshal to equal bytes,
// which makes it suitable for content hashing.
func Marshal(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range g.Entries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONEntry(&buf, e, ""); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// WriteJSON writes g as indented JSON, keys in declaration order. The
// output decodes back to an equal graph.
func WriteJSON(g *Graph, w io.Writer) error {
	var buf bytes.Buffer
	entries := g.Entries()
	if len(entries) == 0 {
		buf.WriteString("{}\n")
	} else {
		buf.WriteString("{\n")
		for i, e := range entries {
			buf.WriteString("  ")
			if err := writeJSONEntry(&buf, e, "  "); err != nil {
				return err
			}
			if i < len(entries)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		buf.WriteString("}\n")
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func writeJSONEntry(buf *bytes.Buffer, e Entry, indent string) error {
	key, err := json.Marshal(e.Name)
	if err != nil {
		return fmt.Errorf("encode key %q: %w", e.Name, err)
	}
	var deps []byte
	if indent == "" {
		deps, err = json.Marshal(e.Deps)
	} else {
		deps, err = json.MarshalIndent(e.Deps, indent, "  ")
	}
	if err != nil {
		return fmt.Errorf("encode %q: %w", e.Name, err)
	}
	buf.Write(key)
	if indent == "" {
		buf.WriteByte(':')
	} else {
		buf.WriteString(": ")
	}
	buf.Write(deps)
	return nil
}

// WriteJSONFile writes g to path as indented JSON.
func WriteJSONFile(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(g, f)
}
