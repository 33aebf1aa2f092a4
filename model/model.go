// Package model is the columnar intermediate representation the archive
// writer consumes and the archive reader reproduces: a tree of objects,
// each holding its properties grouped by type rather than interleaved as
// in a row-oriented document.
//
// Building a Document from parsed JSON text, and rendering one back to
// JSON text, are call sites outside this package (see cmd/jsonarc); this
// package only defines the shape the writer and reader agree on.
package model

import "github.com/jsonarc/jsonarc/wire"

// Document is the root of a columnar archive: a single root Object plus
// the interned strings it and its descendants reference by sid.
type Document struct {
	Root *Object
}

// Object is one columnar object: its own minted id, and its properties
// grouped by wire.Type. At most one PropertyGroup exists per Type.
type Object struct {
	OID    uint64
	Groups []PropertyGroup
}

// Group returns the object's property group of type t, if present.
func (o *Object) Group(t wire.Type) (*PropertyGroup, bool) {
	for i := range o.Groups {
		if o.Groups[i].Type == t {
			return &o.Groups[i], true
		}
	}

	return nil, false
}

// PropertyGroup holds every property of one type, keyed by the sid of its
// name. Keys and Values are parallel slices of equal length.
//
// The interpretation of Values[i] depends on Type:
//   - a fixed scalar type (bool, intN, uintN, float): the Go scalar itself
//   - TypeString: a uint64 sid
//   - TypeObject: a *Object
//   - an array-of-scalar type: a []any of boxed scalar values, one per
//     array element, using the same boxed representation as the non-array
//     case for that element's scalar type
//   - TypeObjectArray: an ObjectArray
type PropertyGroup struct {
	Type   wire.Type
	Keys   []uint64
	Values []any
}

// ObjectArray is the value of a TypeObjectArray property: a set of named,
// independently typed columns, with each column's entries tagged by which
// logical object slot in the array they belong to.
//
// OIDs holds one freshly minted id per object slot, populated by the
// archive reader; the archive writer always mints its own ids for the
// column group it writes and ignores any value set here.
type ObjectArray struct {
	OIDs    []uint64
	Columns []Column
}

// ObjectCount returns one past the highest position referenced by any
// column, i.e. the number of object slots the array spans.
func (a ObjectArray) ObjectCount() int {
	max := -1
	for _, c := range a.Columns {
		for _, e := range c.Entries {
			if int(e.Position) > max {
				max = int(e.Position)
			}
		}
	}

	return max + 1
}

// Column is one named, typed column of an ObjectArray.
type Column struct {
	NameSid   uint64
	ValueType wire.Type
	Entries   []ColumnEntry
}

// ColumnEntry is one value within a Column, tagged by the object slot
// (Position) it belongs to. Value holds a Go scalar, a uint64 sid for
// TypeString, or a *Object for TypeObject columns.
type ColumnEntry struct {
	Position uint32
	Value    any
}
