package jsonconv

import (
	"encoding/json"
	"fmt"

	"github.com/jsonarc/jsonarc/archive"
	"github.com/jsonarc/jsonarc/model"
	"github.com/jsonarc/jsonarc/wire"
)

// Encode materializes the document rooted at root into JSON text, fetching
// every interned string via q.
func Encode(root *model.Object, q *archive.Query) ([]byte, error) {
	v, err := encodeObject(root, q)
	if err != nil {
		return nil, err
	}

	return json.Marshal(v)
}

func encodeObject(o *model.Object, q *archive.Query) (map[string]any, error) {
	out := make(map[string]any)

	for _, g := range o.Groups {
		for i, ksid := range g.Keys {
			name, err := q.FetchString(ksid)
			if err != nil {
				return nil, fmt.Errorf("resolving property name: %w", err)
			}

			v, err := encodeValue(g.Type, g.Values[i], q)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", name, err)
			}
			out[name] = v
		}
	}

	return out, nil
}

func encodeValue(t wire.Type, v any, q *archive.Query) (any, error) {
	switch {
	case t == wire.TypeString:
		return q.FetchString(v.(uint64))
	case t == wire.TypeObject:
		return encodeObject(v.(*model.Object), q)
	case t == wire.TypeObjectArray:
		oa := v.(model.ObjectArray)
		return encodeObjectArray(oa, q)
	case t.IsArray():
		elems := v.([]any)
		out := make([]any, len(elems))
		scalar := t.Scalar()
		for i, e := range elems {
			ev, err := encodeValue(scalar, e, q)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	default:
		return v, nil
	}
}

func encodeObjectArray(oa model.ObjectArray, q *archive.Query) ([]map[string]any, error) {
	n := oa.ObjectCount()
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = make(map[string]any)
	}

	for _, col := range oa.Columns {
		name, err := q.FetchString(col.NameSid)
		if err != nil {
			return nil, fmt.Errorf("resolving column name: %w", err)
		}

		for _, e := range col.Entries {
			v, err := encodeValue(col.ValueType, e.Value, q)
			if err != nil {
				return nil, fmt.Errorf("column %q entry %d: %w", name, e.Position, err)
			}
			out[e.Position][name] = v
		}
	}

	return out, nil
}
