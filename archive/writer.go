package archive

import (
	"github.com/jsonarc/jsonarc/bitfile"
	"github.com/jsonarc/jsonarc/errs"
	"github.com/jsonarc/jsonarc/internal/oid"
	"github.com/jsonarc/jsonarc/internal/options"
	"github.com/jsonarc/jsonarc/model"
	"github.com/jsonarc/jsonarc/sidindex"
	"github.com/jsonarc/jsonarc/strdict"
	"github.com/jsonarc/jsonarc/wire"
)

// Writer serializes a model.Document, along with the string dictionary its
// sids reference, to a single archive byte slice.
//
// Three offset conventions recur through the serializer, and the reader
// mirrors all three:
//   - an object header's own group-offset table is relative to that
//     object header's start
//   - a column group's column-offset table, and an object-array group's
//     per-group offset column, are likewise relative to their own header
//   - the one exception: a TypeObject property group's value-offset
//     column is relative to the root object's header, since a nested
//     object can itself be deeply nested and a local offset would need a
//     chain of relative hops to resolve
type Writer struct {
	cfg    *writerConfig
	oidGen *oid.Generator
}

// NewWriter builds a Writer with the given options applied over the
// defaults (no compression, unsorted, no sid index).
func NewWriter(opts ...WriterOption) *Writer {
	cfg := defaultWriterConfig()
	_ = options.Apply(cfg, opts...) // WriterOption never fails (options.NoError)

	return &Writer{cfg: cfg, oidGen: oid.NewGenerator()}
}

// Write serializes doc, interning strings through dict's contents, and
// returns the finished archive bytes.
func (w *Writer) Write(doc *model.Document, dict strdict.Dict) ([]byte, error) {
	if doc == nil || doc.Root == nil {
		return nil, errs.ErrNullArg
	}

	f := bitfile.New()

	if err := (FileHeader{}).WriteTo(f); err != nil {
		return nil, err
	}

	firstEntryOffset, entryCount, err := w.writeStringTable(f, dict)
	if err != nil {
		return nil, err
	}

	recordHeaderPos := f.Pos()
	if err := (RecordHeader{}).WriteTo(f); err != nil {
		return nil, err
	}

	if err := f.Seek(int64(len(Magic)) + 1); err != nil {
		return nil, err
	}
	if err := f.WriteU64(uint64(recordHeaderPos)); err != nil {
		return nil, err
	}
	if err := f.Seek(recordHeaderPos + RecordHeaderSize); err != nil {
		return nil, err
	}

	bodyStart := f.Pos()
	if _, err := w.writeObject(f, doc.Root, bodyStart); err != nil {
		return nil, err
	}
	bodyEnd := f.Pos()

	flags := uint8(0)
	if w.cfg.sorted {
		flags |= RecordFlagSorted
	}

	if err := f.Seek(recordHeaderPos); err != nil {
		return nil, err
	}
	if err := (RecordHeader{Flags: flags, BodySize: uint64(bodyEnd - bodyStart)}).WriteTo(f); err != nil {
		return nil, err
	}
	if err := f.Seek(bodyEnd); err != nil {
		return nil, err
	}

	f.Shrink()

	if w.cfg.buildIndex && entryCount > 0 {
		idx, err := sidindex.Build(f, firstEntryOffset, entryCount, recordHeaderPos)
		if err != nil {
			return nil, err
		}

		if err := f.Seek(int64(f.Len())); err != nil {
			return nil, err
		}
		sidIndexPos := f.Pos()
		if err := idx.Serialize(f); err != nil {
			return nil, err
		}

		if err := f.Seek(int64(len(Magic)) + 1 + 8); err != nil {
			return nil, err
		}
		if err := f.WriteU64(uint64(sidIndexPos)); err != nil {
			return nil, err
		}
		f.Seek(int64(f.Len()))
	}

	return f.Bytes(), nil
}

// writeStringTable writes the string-table header followed by every entry
// from dict, linked via back-patched next-offset fields. It returns the
// offset of the first entry (0 if there are none) and the entry count.
func (w *Writer) writeStringTable(f *bitfile.File, dict strdict.Dict) (int64, int, error) {
	strs, sids := dict.Contents()

	headerPos := f.Pos()
	if err := (StringTableHeader{}).WriteTo(f); err != nil {
		return 0, 0, err
	}

	extraStart := f.Pos()
	if err := w.cfg.packer.WriteExtra(f, strs); err != nil {
		return 0, 0, err
	}
	extraSize := f.Pos() - extraStart

	var firstEntryOffset int64
	var prevNextPatchPos int64 = -1

	for i, s := range strs {
		entryPos := f.Pos()
		if i == 0 {
			firstEntryOffset = entryPos
		}
		if prevNextPatchPos >= 0 {
			saved := f.Pos()
			if err := f.Seek(prevNextPatchPos); err != nil {
				return 0, 0, err
			}
			if err := f.WriteU64(uint64(entryPos)); err != nil {
				return 0, 0, err
			}
			if err := f.Seek(saved); err != nil {
				return 0, 0, err
			}
		}

		if err := f.WriteU8(byte(wire.MarkerStringEntry)); err != nil {
			return 0, 0, err
		}
		nextPatchPos := f.Pos()
		if err := f.WriteU64(0); err != nil {
			return 0, 0, err
		}
		if err := f.WriteU64(sids[i]); err != nil {
			return 0, 0, err
		}
		if err := f.WriteU32(uint32(len(s))); err != nil {
			return 0, 0, err
		}
		if err := w.cfg.packer.EncodeString(f, s); err != nil {
			return 0, 0, err
		}

		prevNextPatchPos = nextPatchPos
	}

	tableEnd := f.Pos()

	if err := f.Seek(headerPos); err != nil {
		return 0, 0, err
	}
	hdr := StringTableHeader{
		EntryCount:       uint32(len(strs)),
		PackerFlag:       w.cfg.packer.FlagBit(),
		FirstEntryOffset: uint64(firstEntryOffset),
		PackerExtraSize:  uint64(extraSize),
	}
	if err := hdr.WriteTo(f); err != nil {
		return 0, 0, err
	}
	if err := f.Seek(tableEnd); err != nil {
		return 0, 0, err
	}

	return firstEntryOffset, len(strs), nil
}

// writeObject writes obj's header, its present property groups, and the
// object-end marker, at the current cursor. It returns the absolute file
// position of the object's next-object slot. The slot is written as zero;
// no caller in this package fills it in, so sibling objects are not
// chained through it.
func (w *Writer) writeObject(f *bitfile.File, obj *model.Object, rootHeaderPos int64) (int64, error) {
	headerPos := f.Pos()

	groupOf := make(map[wire.Type]*model.PropertyGroup, len(obj.Groups))
	for i := range obj.Groups {
		groupOf[obj.Groups[i].Type] = &obj.Groups[i]
	}

	var types []wire.Type
	for t := wire.Type(0); int(t) < numGroupTypes; t++ {
		if _, ok := groupOf[t]; ok {
			types = append(types, t)
		}
	}
	popcount := len(types)

	headerSize := 1 + 8 + 4 + popcount*8 + 8
	if err := f.Skip(headerSize); err != nil {
		return 0, err
	}

	offsets := make([]int64, popcount)
	for i, t := range types {
		offsets[i] = f.Pos() - headerPos
		if err := w.writeGroup(f, t, groupOf[t], rootHeaderPos); err != nil {
			return 0, err
		}
	}

	if err := f.WriteU8(byte(wire.MarkerObjectEnd)); err != nil {
		return 0, err
	}
	objEnd := f.Pos()

	nextSlotPos := headerPos + 1 + 8 + 4 + int64(popcount)*8

	if err := f.Seek(headerPos); err != nil {
		return 0, err
	}
	if err := f.WriteU8(byte(wire.MarkerObjectBegin)); err != nil {
		return 0, err
	}
	if err := f.WriteU64(obj.OID); err != nil {
		return 0, err
	}

	var flags uint32
	for _, t := range types {
		flags |= 1 << t.Bit()
	}
	if err := f.WriteU32(flags); err != nil {
		return 0, err
	}

	for _, off := range offsets {
		if err := f.WriteU64(uint64(off)); err != nil {
			return 0, err
		}
	}
	// next-object slot is left at its zero-filled placeholder.

	if err := f.Seek(objEnd); err != nil {
		return 0, err
	}

	return nextSlotPos, nil
}

func (w *Writer) writeGroup(f *bitfile.File, t wire.Type, g *model.PropertyGroup, rootHeaderPos int64) error {
	switch {
	case t == wire.TypeObject:
		return w.writeObjectGroup(f, g, rootHeaderPos)
	case t == wire.TypeObjectArray:
		return w.writeObjectArrayGroup(f, g, rootHeaderPos)
	case t.IsArray():
		return w.writeArrayGroup(f, t, g)
	default:
		return w.writeFixedGroup(f, t, g)
	}
}

func (w *Writer) writeFixedGroup(f *bitfile.File, t wire.Type, g *model.PropertyGroup) error {
	if err := f.WriteU8(byte(t.Marker())); err != nil {
		return err
	}
	if err := f.WriteU32(uint32(len(g.Keys))); err != nil {
		return err
	}
	for _, k := range g.Keys {
		if err := f.WriteU64(k); err != nil {
			return err
		}
	}
	if t == wire.TypeNull {
		return nil
	}
	for _, v := range g.Values {
		if err := writeScalar(f, t, v); err != nil {
			return err
		}
	}

	return nil
}

// writeObjectGroup writes a TypeObject property group: sid-key column,
// then a value-offset column relative to rootHeaderPos, then each nested
// object serialized in place.
func (w *Writer) writeObjectGroup(f *bitfile.File, g *model.PropertyGroup, rootHeaderPos int64) error {
	if err := f.WriteU8(byte(wire.TypeObject.Marker())); err != nil {
		return err
	}
	count := len(g.Keys)
	if err := f.WriteU32(uint32(count)); err != nil {
		return err
	}
	for _, k := range g.Keys {
		if err := f.WriteU64(k); err != nil {
			return err
		}
	}

	offsetColPos := f.Pos()
	if err := f.Skip(count * 8); err != nil {
		return err
	}

	starts := make([]int64, count)
	for i, v := range g.Values {
		starts[i] = f.Pos()
		child, _ := v.(*model.Object)
		if child == nil {
			return errs.ErrInternal
		}
		if _, err := w.writeObject(f, child, rootHeaderPos); err != nil {
			return err
		}
	}

	end := f.Pos()
	if err := f.Seek(offsetColPos); err != nil {
		return err
	}
	for _, s := range starts {
		if err := f.WriteU64(uint64(s - rootHeaderPos)); err != nil {
			return err
		}
	}

	return f.Seek(end)
}

// writeArrayGroup writes an array-of-scalar property group: sid-key
// column, per-key element-count column, then each array's elements.
func (w *Writer) writeArrayGroup(f *bitfile.File, t wire.Type, g *model.PropertyGroup) error {
	scalarType := t.Scalar()

	if err := f.WriteU8(byte(t.Marker())); err != nil {
		return err
	}
	count := len(g.Keys)
	if err := f.WriteU32(uint32(count)); err != nil {
		return err
	}
	for _, k := range g.Keys {
		if err := f.WriteU64(k); err != nil {
			return err
		}
	}

	lengthColPos := f.Pos()
	if err := f.Skip(count * 4); err != nil {
		return err
	}

	lengths := make([]uint32, count)
	for i, v := range g.Values {
		elems, _ := v.([]any)
		lengths[i] = uint32(len(elems))
		for _, elem := range elems {
			if err := writeScalar(f, scalarType, elem); err != nil {
				return err
			}
		}
	}

	end := f.Pos()
	if err := f.Seek(lengthColPos); err != nil {
		return err
	}
	for _, l := range lengths {
		if err := f.WriteU32(l); err != nil {
			return err
		}
	}

	return f.Seek(end)
}

// writeObjectArrayGroup writes a TypeObjectArray property group: sid-key
// column (one per column-group slot), then a per-group offset column
// relative to this property group's own header, then each column group.
func (w *Writer) writeObjectArrayGroup(f *bitfile.File, g *model.PropertyGroup, rootHeaderPos int64) error {
	groupHeaderPos := f.Pos()

	if err := f.WriteU8(byte(wire.TypeObjectArray.Marker())); err != nil {
		return err
	}
	count := len(g.Keys)
	if err := f.WriteU32(uint32(count)); err != nil {
		return err
	}
	for _, k := range g.Keys {
		if err := f.WriteU64(k); err != nil {
			return err
		}
	}

	offsetColPos := f.Pos()
	if err := f.Skip(count * 8); err != nil {
		return err
	}

	offsets := make([]int64, count)
	for i, v := range g.Values {
		offsets[i] = f.Pos() - groupHeaderPos
		oa, _ := v.(model.ObjectArray)
		if err := w.writeColumnGroup(f, oa, rootHeaderPos); err != nil {
			return err
		}
	}

	end := f.Pos()
	if err := f.Seek(offsetColPos); err != nil {
		return err
	}
	for _, off := range offsets {
		if err := f.WriteU64(uint64(off)); err != nil {
			return err
		}
	}

	return f.Seek(end)
}

// writeColumnGroup writes one object-array's column group: header, a
// freshly-minted oid per object slot, a per-column offset column relative
// to this group's own header, then each column.
func (w *Writer) writeColumnGroup(f *bitfile.File, oa model.ObjectArray, rootHeaderPos int64) error {
	groupHeaderPos := f.Pos()

	if err := f.WriteU8(byte(wire.MarkerColumnGroup)); err != nil {
		return err
	}

	columnCount := len(oa.Columns)
	objectCount := oa.ObjectCount()

	if err := f.WriteU32(uint32(columnCount)); err != nil {
		return err
	}
	if err := f.WriteU32(uint32(objectCount)); err != nil {
		return err
	}

	for i := 0; i < objectCount; i++ {
		id, err := w.oidGen.New()
		if err != nil {
			return err
		}
		if err := f.WriteU64(id); err != nil {
			return err
		}
	}

	colOffsetColPos := f.Pos()
	if err := f.Skip(columnCount * 8); err != nil {
		return err
	}

	colOffsets := make([]int64, columnCount)
	for i, col := range oa.Columns {
		colOffsets[i] = f.Pos() - groupHeaderPos
		if err := w.writeColumn(f, col, rootHeaderPos); err != nil {
			return err
		}
	}

	end := f.Pos()
	if err := f.Seek(colOffsetColPos); err != nil {
		return err
	}
	for _, off := range colOffsets {
		if err := f.WriteU64(uint64(off)); err != nil {
			return err
		}
	}

	return f.Seek(end)
}

// writeColumn writes one named column: header, entry-offset column
// (relative to this column's own header), position column, then each
// entry's payload.
func (w *Writer) writeColumn(f *bitfile.File, col model.Column, rootHeaderPos int64) error {
	colHeaderPos := f.Pos()

	if err := f.WriteU8(byte(wire.MarkerColumn)); err != nil {
		return err
	}
	if err := f.WriteU64(col.NameSid); err != nil {
		return err
	}
	if err := f.WriteU8(byte(col.ValueType.Marker())); err != nil {
		return err
	}
	entryCount := len(col.Entries)
	if err := f.WriteU32(uint32(entryCount)); err != nil {
		return err
	}

	entryOffsetColPos := f.Pos()
	if err := f.Skip(entryCount * 8); err != nil {
		return err
	}

	for _, e := range col.Entries {
		if err := f.WriteU32(e.Position); err != nil {
			return err
		}
	}

	entryStarts := make([]int64, entryCount)
	for i, e := range col.Entries {
		entryStarts[i] = f.Pos() - colHeaderPos
		if col.ValueType == wire.TypeObject {
			child, _ := e.Value.(*model.Object)
			if child == nil {
				return errs.ErrInternal
			}
			if _, err := w.writeObject(f, child, rootHeaderPos); err != nil {
				return err
			}
		} else {
			if err := writeScalar(f, col.ValueType, e.Value); err != nil {
				return err
			}
		}
	}

	end := f.Pos()
	if err := f.Seek(entryOffsetColPos); err != nil {
		return err
	}
	for _, s := range entryStarts {
		if err := f.WriteU64(uint64(s)); err != nil {
			return err
		}
	}

	return f.Seek(end)
}
