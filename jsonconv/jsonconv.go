// Package jsonconv converts between parsed JSON documents and the
// columnar model.Document representation the archive package reads and
// writes. Building a Document from JSON text, and rendering one back to
// JSON text, are the two call sites the archive format itself stays
// agnostic to (see the model package's doc comment); cmd/jsonarc is where
// both directions are actually exercised.
package jsonconv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/jsonarc/jsonarc/errs"
	"github.com/jsonarc/jsonarc/internal/oid"
	"github.com/jsonarc/jsonarc/model"
	"github.com/jsonarc/jsonarc/strdict"
	"github.com/jsonarc/jsonarc/wire"
)

// Decode parses a single JSON document and interns every object key and
// string value into dict, minting one object id per JSON object
// (including nested ones and ones inside arrays) via gen.
func Decode(data []byte, dict strdict.Dict, gen *oid.Generator) (*model.Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrScanFailed, err)
	}

	top, ok := root.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: root value must be a JSON object", errs.ErrUnknownFieldType)
	}

	b := &builder{dict: dict, gen: gen}
	obj, err := b.object(top)
	if err != nil {
		return nil, err
	}

	return &model.Document{Root: obj}, nil
}

type builder struct {
	dict strdict.Dict
	gen  *oid.Generator
}

func (b *builder) sid(s string) (uint64, error) {
	sids, err := b.dict.Insert([]string{s})
	if err != nil {
		return 0, err
	}

	return sids[0], nil
}

func (b *builder) object(m map[string]any) (*model.Object, error) {
	id, err := b.gen.New()
	if err != nil {
		return nil, err
	}

	// Stable key order keeps the property order of repeated conversions
	// of the same input identical, which matters for diffing archives
	// across runs.
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make(map[wire.Type]*model.PropertyGroup)
	var order []wire.Type

	for _, k := range keys {
		t, v, err := b.value(m[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}

		ksid, err := b.sid(k)
		if err != nil {
			return nil, err
		}

		g, ok := groups[t]
		if !ok {
			g = &model.PropertyGroup{Type: t}
			groups[t] = g
			order = append(order, t)
		}
		g.Keys = append(g.Keys, ksid)
		g.Values = append(g.Values, v)
	}

	obj := &model.Object{OID: id}
	for _, t := range order {
		obj.Groups = append(obj.Groups, *groups[t])
	}

	return obj, nil
}

// value classifies a decoded JSON value into its wire.Type and the
// model-level representation that type expects.
func (b *builder) value(v any) (wire.Type, any, error) {
	switch x := v.(type) {
	case nil:
		return wire.TypeNull, nil, nil
	case bool:
		return wire.TypeBool, x, nil
	case json.Number:
		return scalarNumber(x)
	case string:
		sid, err := b.sid(x)
		return wire.TypeString, sid, err
	case map[string]any:
		obj, err := b.object(x)
		return wire.TypeObject, obj, err
	case []any:
		return b.array(x)
	default:
		return 0, nil, fmt.Errorf("%w: unsupported JSON value %T", errs.ErrUnknownFieldType, v)
	}
}

// scalarNumber classifies a decoded JSON number as the smallest integer
// type admitting its value, falling back to float for fractional or
// out-of-int64-range values.
func scalarNumber(n json.Number) (wire.Type, any, error) {
	if i, err := n.Int64(); err == nil {
		switch {
		case i >= math.MinInt8 && i <= math.MaxInt8:
			return wire.TypeInt8, int8(i), nil
		case i >= math.MinInt16 && i <= math.MaxInt16:
			return wire.TypeInt16, int16(i), nil
		case i >= math.MinInt32 && i <= math.MaxInt32:
			return wire.TypeInt32, int32(i), nil
		default:
			return wire.TypeInt64, i, nil
		}
	}

	f, err := n.Float64()
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", errs.ErrUnknownFieldType, err)
	}

	return wire.TypeFloat, f, nil
}

// array decides between an array-of-scalar group and an object-array
// group depending on the element shape, requiring every element to share
// one shape: all scalars of the same wire.Type, or all objects.
func (b *builder) array(elems []any) (wire.Type, any, error) {
	if len(elems) == 0 {
		return wire.TypeNullArray, []any{}, nil
	}

	if _, ok := elems[0].(map[string]any); ok {
		oa, err := b.objectArray(elems)
		return wire.TypeObjectArray, oa, err
	}

	if _, ok := elems[0].(json.Number); ok {
		return b.numberArray(elems)
	}

	var scalarType wire.Type
	vals := make([]any, len(elems))
	for i, e := range elems {
		t, v, err := b.value(e)
		if err != nil {
			return 0, nil, err
		}
		if t == wire.TypeObject || t.IsArray() || t == wire.TypeObjectArray {
			return 0, nil, fmt.Errorf("%w: array elements must be uniform scalars or objects", errs.ErrUnknownFieldType)
		}
		if i == 0 {
			scalarType = t
		} else if t != scalarType {
			return 0, nil, fmt.Errorf("%w: array element %d type mismatch", errs.ErrUnknownFieldType, i)
		}
		vals[i] = v
	}

	return scalarType.ArrayOf(), vals, nil
}

// numberArray picks the single narrowest type admitting every element,
// rather than typing each element independently: an array like [1, 1000]
// is one int16 column, not a type mismatch between an int8 and an int16.
func (b *builder) numberArray(elems []any) (wire.Type, any, error) {
	nums := make([]json.Number, len(elems))
	for i, e := range elems {
		n, ok := e.(json.Number)
		if !ok {
			return 0, nil, fmt.Errorf("%w: array element %d type mismatch", errs.ErrUnknownFieldType, i)
		}
		nums[i] = n
	}

	widest := wire.TypeInt8
	ints := make([]int64, len(nums))
	allInt := true
	for i, n := range nums {
		iv, err := n.Int64()
		if err != nil {
			allInt = false
			break
		}
		ints[i] = iv
		switch {
		case iv < math.MinInt32 || iv > math.MaxInt32:
			widest = maxType(widest, wire.TypeInt64)
		case iv < math.MinInt16 || iv > math.MaxInt16:
			widest = maxType(widest, wire.TypeInt32)
		case iv < math.MinInt8 || iv > math.MaxInt8:
			widest = maxType(widest, wire.TypeInt16)
		}
	}

	if !allInt {
		vals := make([]any, len(nums))
		for i, n := range nums {
			f, err := n.Float64()
			if err != nil {
				return 0, nil, fmt.Errorf("%w: %w", errs.ErrUnknownFieldType, err)
			}
			vals[i] = f
		}

		return wire.TypeFloatArray, vals, nil
	}

	vals := make([]any, len(ints))
	for i, iv := range ints {
		switch widest {
		case wire.TypeInt8:
			vals[i] = int8(iv)
		case wire.TypeInt16:
			vals[i] = int16(iv)
		case wire.TypeInt32:
			vals[i] = int32(iv)
		default:
			vals[i] = iv
		}
	}

	return widest.ArrayOf(), vals, nil
}

// maxType returns whichever of a, b is wider, relying on TypeInt8 <
// TypeInt16 < TypeInt32 < TypeInt64's declaration order.
func maxType(a, b wire.Type) wire.Type {
	if b > a {
		return b
	}

	return a
}

// objectArray pivots a JSON array of objects into column-major form, one
// model.Column per distinct field name observed across all elements.
func (b *builder) objectArray(elems []any) (model.ObjectArray, error) {
	colOrder := make([]string, 0)
	colIdx := make(map[string]int)
	var cols []model.Column

	for pos, e := range elems {
		m, ok := e.(map[string]any)
		if !ok {
			return model.ObjectArray{}, fmt.Errorf("%w: object-array elements must all be objects", errs.ErrUnknownFieldType)
		}

		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			t, v, err := b.value(m[k])
			if err != nil {
				return model.ObjectArray{}, fmt.Errorf("field %q: %w", k, err)
			}

			i, ok := colIdx[k]
			if !ok {
				i = len(cols)
				colIdx[k] = i
				colOrder = append(colOrder, k)

				ksid, err := b.sid(k)
				if err != nil {
					return model.ObjectArray{}, err
				}
				cols = append(cols, model.Column{NameSid: ksid, ValueType: t})
			}

			cols[i].Entries = append(cols[i].Entries, model.ColumnEntry{
				Position: uint32(pos),
				Value:    v,
			})
		}
	}

	return model.ObjectArray{Columns: cols}, nil
}
