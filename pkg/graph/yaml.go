package graph

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/deptree/pkg/errors"
)

// decodeYAML walks the node tree rather than decoding into a map, which
// both keeps key order and exposes the resolved tag of every key.
func decodeYAML(r io.Reader) (*Graph, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return New(), nil
		}
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "invalid YAML")
	}

	root := resolveAlias(&doc)
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return New(), nil
		}
		root = resolveAlias(root.Content[0])
	}
	if root.Kind == yaml.ScalarNode && root.ShortTag() == "!!null" {
		return New(), nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, errs.New(errs.ErrCodeInvalidFormat, "graph must be a YAML mapping, got %s", yamlKind(root))
	}

	b := NewBuilder()
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := resolveAlias(root.Content[i]), resolveAlias(root.Content[i+1])
		if key.Kind != yaml.ScalarNode || key.ShortTag() != "!!str" {
			return nil, &InvalidKeyError{Value: yamlValue(key), Kind: yamlKind(key)}
		}
		name := key.Value
		if val.Kind != yaml.SequenceNode {
			return nil, &MalformedGraphError{Package: name, Kind: yamlKind(val)}
		}
		deps := make([]string, 0, len(val.Content))
		for _, item := range val.Content {
			item = resolveAlias(item)
			if item.Kind != yaml.ScalarNode || item.ShortTag() != "!!str" {
				return nil, &InvalidKeyError{Package: name, Value: yamlValue(item), Kind: yamlKind(item)}
			}
			deps = append(deps, item.Value)
		}
		b.Add(name, deps...)
	}
	return b.Graph(), nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func yamlKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return KindObject
	case yaml.SequenceNode:
		return KindArray
	case yaml.DocumentNode:
		return "document"
	}
	switch tag := n.ShortTag(); tag {
	case "!!str":
		return KindString
	case "!!int", "!!float":
		return KindNumber
	case "!!bool":
		return KindBoolean
	case "!!null":
		return KindNull
	default:
		return strings.TrimPrefix(tag, "!!")
	}
}

func yamlValue(n *yaml.Node) any {
	if n.Kind == yaml.ScalarNode {
		return n.Value
	}
	return fmt.Sprintf("<%s>", yamlKind(n))
}

// WriteYAML writes g as a YAML mapping, keys in declaration order.
func WriteYAML(g *Graph, w io.Writer) error {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range g.Entries() {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		if len(e.Deps) == 0 {
			seq.Style = yaml.FlowStyle
		}
		for _, dep := range e.Deps {
			seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: dep})
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Name},
			seq,
		)
	}
	if len(root.Content) == 0 {
		root.Style = yaml.FlowStyle
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return enc.Close()
}
