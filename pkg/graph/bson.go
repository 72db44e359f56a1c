package graph

import (
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"

	errs "github.com/matzehuels/deptree/pkg/errors"
)

// decodeBSON reads a single BSON document whose elements are arrays of
// strings. BSON documents are ordered, so element order is declaration
// order.
func decodeBSON(r io.Reader) (*Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	doc := bson.Raw(data)
	if err := doc.Validate(); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "invalid BSON")
	}
	elems, err := doc.Elements()
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "invalid BSON")
	}

	b := NewBuilder()
	for _, el := range elems {
		name := el.Key()
		arr, ok := el.Value().ArrayOK()
		if !ok {
			return nil, &MalformedGraphError{Package: name, Kind: bsonKind(el.Value())}
		}
		values, err := arr.Values()
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "invalid BSON array for %q", name)
		}
		deps := make([]string, 0, len(values))
		for _, v := range values {
			s, ok := v.StringValueOK()
			if !ok {
				return nil, &InvalidKeyError{Package: name, Value: v.String(), Kind: bsonKind(v)}
			}
			deps = append(deps, s)
		}
		b.Add(name, deps...)
	}
	return b.Graph(), nil
}

func bsonKind(v bson.RawValue) string {
	switch v.Type {
	case bson.TypeString, bson.TypeSymbol:
		return KindString
	case bson.TypeInt32, bson.TypeInt64, bson.TypeDouble, bson.TypeDecimal128:
		return KindNumber
	case bson.TypeBoolean:
		return KindBoolean
	case bson.TypeNull, bson.TypeUndefined:
		return KindNull
	case bson.TypeEmbeddedDocument:
		return KindObject
	case bson.TypeArray:
		return KindArray
	}
	return v.Type.String()
}

// MarshalBSON encodes g as a BSON document, keys in declaration order.
func MarshalBSON(g *Graph) ([]byte, error) {
	doc := bson.D{}
	for _, e := range g.Entries() {
		doc = append(doc, bson.E{Key: e.Name, Value: e.Deps})
	}
	data, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return data, nil
}
