package graph

import (
	"fmt"
	"io"
	"time"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/deptree/pkg/errors"
)

// decodeTOML reads a document of top-level array assignments:
//
//	app = ["lib", "util"]
//	lib = []
//
// Key order comes from the decoder metadata, which lists keys as they
// appear in the file.
func decodeTOML(r io.Reader) (*Graph, error) {
	var raw map[string]any
	md, err := toml.NewDecoder(r).Decode(&raw)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "invalid TOML")
	}

	b := NewBuilder()
	for _, key := range md.Keys() {
		if len(key) != 1 {
			continue // nested table keys belong to a value already rejected
		}
		name := key[0]
		list, ok := raw[name].([]any)
		if !ok {
			return nil, &MalformedGraphError{Package: name, Kind: tomlKind(raw[name])}
		}
		deps := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, &InvalidKeyError{Package: name, Value: item, Kind: tomlKind(item)}
			}
			deps = append(deps, s)
		}
		b.Add(name, deps...)
	}
	return b.Graph(), nil
}

func tomlKind(v any) string {
	switch v.(type) {
	case string:
		return KindString
	case int64, float64:
		return KindNumber
	case bool:
		return KindBoolean
	case map[string]any:
		return KindObject
	case []any, []map[string]any:
		return KindArray
	case time.Time:
		return "datetime"
	case nil:
		return KindNull
	}
	return fmt.Sprintf("%T", v)
}
