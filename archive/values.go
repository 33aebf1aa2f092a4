package archive

import (
	"math"

	"github.com/jsonarc/jsonarc/bitfile"
	"github.com/jsonarc/jsonarc/errs"
	"github.com/jsonarc/jsonarc/wire"
)

// writeScalar writes v, which must hold the Go value appropriate for t
// (see model.PropertyGroup), in its fixed-size wire representation. It
// does not handle TypeObject or any array/object-array variant, which
// callers serialize through the recursive object/column writers instead.
func writeScalar(f *bitfile.File, t wire.Type, v any) error {
	switch t {
	case wire.TypeNull:
		return nil
	case wire.TypeBool:
		b := byte(0)
		if v.(bool) {
			b = 1
		}

		return f.WriteU8(b)
	case wire.TypeInt8:
		return f.WriteU8(uint8(v.(int8)))
	case wire.TypeInt16:
		return f.WriteU16(uint16(v.(int16)))
	case wire.TypeInt32:
		return f.WriteU32(uint32(v.(int32)))
	case wire.TypeInt64:
		return f.WriteU64(uint64(v.(int64)))
	case wire.TypeUint8:
		return f.WriteU8(v.(uint8))
	case wire.TypeUint16:
		return f.WriteU16(v.(uint16))
	case wire.TypeUint32:
		return f.WriteU32(v.(uint32))
	case wire.TypeUint64:
		return f.WriteU64(v.(uint64))
	case wire.TypeFloat:
		return f.WriteU64(math.Float64bits(v.(float64)))
	case wire.TypeString:
		return f.WriteU64(v.(uint64))
	default:
		return errs.ErrInternal
	}
}

// readScalar reads back a value written by writeScalar for scalar type t.
func readScalar(f *bitfile.File, t wire.Type) (any, error) {
	switch t {
	case wire.TypeNull:
		return nil, nil
	case wire.TypeBool:
		b, err := f.ReadU8()
		return b != 0, err
	case wire.TypeInt8:
		b, err := f.ReadU8()
		return int8(b), err
	case wire.TypeInt16:
		u, err := f.ReadU16()
		return int16(u), err
	case wire.TypeInt32:
		u, err := f.ReadU32()
		return int32(u), err
	case wire.TypeInt64:
		u, err := f.ReadU64()
		return int64(u), err
	case wire.TypeUint8:
		return f.ReadU8()
	case wire.TypeUint16:
		return f.ReadU16()
	case wire.TypeUint32:
		return f.ReadU32()
	case wire.TypeUint64:
		return f.ReadU64()
	case wire.TypeFloat:
		u, err := f.ReadU64()
		return math.Float64frombits(u), err
	case wire.TypeString:
		return f.ReadU64()
	default:
		return nil, errs.ErrInternal
	}
}
