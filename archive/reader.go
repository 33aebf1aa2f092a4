package archive

import (
	"github.com/jsonarc/jsonarc/bitfile"
	"github.com/jsonarc/jsonarc/errs"
	"github.com/jsonarc/jsonarc/model"
	"github.com/jsonarc/jsonarc/pack"
	"github.com/jsonarc/jsonarc/sidindex"
	"github.com/jsonarc/jsonarc/wire"
)

// Reader maps an already-read archive byte slice for cursor-based
// traversal: Root returns a lazy ObjectCursor over the record body, and
// Group reads and materializes one property group at a time rather than
// decoding the whole document up front.
type Reader struct {
	f            *bitfile.File
	fileHeader   FileHeader
	stHeader     StringTableHeader
	packer       pack.Codec
	recordHeader RecordHeader
	bodyStart    int64
	sidIdx       *sidindex.Index
}

// Open validates data's file header and string-table header, loads the
// packer's side data, and locates the record body and (if present) the
// sid index, without decoding any object content yet.
func Open(data []byte) (*Reader, error) {
	f := bitfile.Wrap(data)

	fh, err := ReadFileHeader(f)
	if err != nil {
		return nil, err
	}

	sth, err := ReadStringTableHeader(f)
	if err != nil {
		return nil, err
	}

	packer, err := pack.ByFlagBit(sth.PackerFlag)
	if err != nil {
		return nil, err
	}
	if err := packer.ReadExtra(f, int(sth.PackerExtraSize)); err != nil {
		return nil, err
	}

	if err := f.Seek(int64(fh.RecordHeaderOffset)); err != nil {
		return nil, err
	}
	rh, err := ReadRecordHeader(f)
	if err != nil {
		return nil, err
	}
	bodyStart := f.Pos()

	r := &Reader{
		f:            f,
		fileHeader:   fh,
		stHeader:     sth,
		packer:       packer,
		recordHeader: rh,
		bodyStart:    bodyStart,
	}

	if fh.SidIndexOffset != 0 {
		if err := f.Seek(int64(fh.SidIndexOffset)); err != nil {
			return nil, err
		}
		idx, err := sidindex.Deserialize(f)
		if err != nil {
			return nil, err
		}
		r.sidIdx = idx
	}

	return r, nil
}

// Close releases any resources held by r. A Reader over an in-memory
// byte slice holds none; Close exists for symmetry with callers that
// manage the underlying archive's lifetime (e.g. a memory-mapped file).
func (r *Reader) Close() error { return nil }

// Info summarizes an open archive's layout, for inspect-style diagnostics.
type Info struct {
	StringTableEntryCount int
	StringTableSize       int64
	RecordBodySize        uint64
	SidIndexSize          int64
	Sorted                bool
}

// Info reports r's layout sizes.
func (r *Reader) Info() Info {
	info := Info{
		StringTableEntryCount: int(r.stHeader.EntryCount),
		StringTableSize:       int64(r.fileHeader.RecordHeaderOffset) - int64(FileHeaderSize),
		RecordBodySize:        r.recordHeader.BodySize,
		Sorted:                r.recordHeader.Flags&RecordFlagSorted != 0,
	}

	if r.fileHeader.SidIndexOffset != 0 {
		info.SidIndexSize = int64(r.f.Len()) - int64(r.fileHeader.SidIndexOffset)
	}

	return info
}

// Root returns a cursor over the archive's single root object.
func (r *Reader) Root() (*ObjectCursor, error) {
	return r.readObjectAt(r.bodyStart)
}

// ObjectCursor is a header-level view of one serialized object: its id
// and the set of property-group types it carries, without having read
// any group's content yet.
type ObjectCursor struct {
	r         *Reader
	headerPos int64
	oid       uint64
	types     []wire.Type
	offsets   map[wire.Type]int64
}

// OID returns the cursor's object id.
func (o *ObjectCursor) OID() uint64 { return o.oid }

// Types returns the property-group types present on this object, in
// ascending type order.
func (o *ObjectCursor) Types() []wire.Type { return o.types }

// Has reports whether this object carries a property group of type t.
func (o *ObjectCursor) Has(t wire.Type) bool {
	_, ok := o.offsets[t]
	return ok
}

// Group reads and materializes this object's property group of type t,
// recursively materializing any nested object or object-array values it
// contains. It returns errs.ErrNotFound if the object carries no group
// of that type.
func (o *ObjectCursor) Group(t wire.Type) (*model.PropertyGroup, error) {
	off, ok := o.offsets[t]
	if !ok {
		return nil, errs.ErrNotFound
	}

	return o.r.readGroupAt(o.headerPos+off, t)
}

// Materialize reads every property group this object carries, returning
// a fully decoded model.Object.
func (o *ObjectCursor) Materialize() (*model.Object, error) {
	obj := &model.Object{OID: o.oid, Groups: make([]model.PropertyGroup, 0, len(o.types))}

	for _, t := range o.types {
		g, err := o.Group(t)
		if err != nil {
			return nil, err
		}
		obj.Groups = append(obj.Groups, *g)
	}

	return obj, nil
}

func (r *Reader) readObjectAt(pos int64) (*ObjectCursor, error) {
	f := r.f

	if err := f.Seek(pos); err != nil {
		return nil, err
	}
	m, err := f.ReadU8()
	if err != nil {
		return nil, err
	}
	if err := wire.Expect(wire.MarkerObjectBegin, wire.Marker(m), pos); err != nil {
		return nil, err
	}

	oid, err := f.ReadU64()
	if err != nil {
		return nil, err
	}
	flags, err := f.ReadU32()
	if err != nil {
		return nil, err
	}

	var types []wire.Type
	for t := wire.Type(0); int(t) < numGroupTypes; t++ {
		if flags&(1<<t.Bit()) != 0 {
			types = append(types, t)
		}
	}

	offsets := make(map[wire.Type]int64, len(types))
	for _, t := range types {
		off, err := f.ReadU64()
		if err != nil {
			return nil, err
		}
		offsets[t] = int64(off)
	}

	return &ObjectCursor{r: r, headerPos: pos, oid: oid, types: types, offsets: offsets}, nil
}

func (r *Reader) readGroupAt(pos int64, t wire.Type) (*model.PropertyGroup, error) {
	f := r.f

	if err := f.Seek(pos); err != nil {
		return nil, err
	}
	m, err := f.ReadU8()
	if err != nil {
		return nil, err
	}
	if err := wire.Expect(t.Marker(), wire.Marker(m), pos); err != nil {
		return nil, err
	}

	switch {
	case t == wire.TypeObject:
		return r.readObjectGroupBody(f, t)
	case t == wire.TypeObjectArray:
		return r.readObjectArrayGroupBody(f, pos, t)
	case t.IsArray():
		return r.readArrayGroupBody(f, t)
	default:
		return r.readFixedGroupBody(f, t)
	}
}

func (r *Reader) readFixedGroupBody(f *bitfile.File, t wire.Type) (*model.PropertyGroup, error) {
	count, err := f.ReadU32()
	if err != nil {
		return nil, err
	}

	keys := make([]uint64, count)
	for i := range keys {
		if keys[i], err = f.ReadU64(); err != nil {
			return nil, err
		}
	}

	values := make([]any, count)
	if t != wire.TypeNull {
		for i := range values {
			if values[i], err = readScalar(f, t); err != nil {
				return nil, err
			}
		}
	}

	return &model.PropertyGroup{Type: t, Keys: keys, Values: values}, nil
}

func (r *Reader) readArrayGroupBody(f *bitfile.File, t wire.Type) (*model.PropertyGroup, error) {
	scalarType := t.Scalar()

	count, err := f.ReadU32()
	if err != nil {
		return nil, err
	}

	keys := make([]uint64, count)
	for i := range keys {
		if keys[i], err = f.ReadU64(); err != nil {
			return nil, err
		}
	}

	lengths := make([]uint32, count)
	for i := range lengths {
		if lengths[i], err = f.ReadU32(); err != nil {
			return nil, err
		}
	}

	values := make([]any, count)
	for i := range values {
		elems := make([]any, lengths[i])
		for j := range elems {
			v, err := readScalar(f, scalarType)
			if err != nil {
				return nil, err
			}
			elems[j] = v
		}
		values[i] = elems
	}

	return &model.PropertyGroup{Type: t, Keys: keys, Values: values}, nil
}

// readObjectGroupBody reads a TypeObject property group. Its value-offset
// column is relative to the record body's root header, per the writer's
// convention.
func (r *Reader) readObjectGroupBody(f *bitfile.File, t wire.Type) (*model.PropertyGroup, error) {
	count, err := f.ReadU32()
	if err != nil {
		return nil, err
	}

	keys := make([]uint64, count)
	for i := range keys {
		if keys[i], err = f.ReadU64(); err != nil {
			return nil, err
		}
	}

	relOffsets := make([]int64, count)
	for i := range relOffsets {
		off, err := f.ReadU64()
		if err != nil {
			return nil, err
		}
		relOffsets[i] = int64(off)
	}

	values := make([]any, count)
	for i, off := range relOffsets {
		child, err := r.readObjectAt(r.bodyStart + off)
		if err != nil {
			return nil, err
		}
		obj, err := child.Materialize()
		if err != nil {
			return nil, err
		}
		values[i] = obj
	}

	return &model.PropertyGroup{Type: t, Keys: keys, Values: values}, nil
}

// readObjectArrayGroupBody reads a TypeObjectArray property group.
// groupHeaderPos is the position of this group's marker byte; the
// per-group offset column is relative to it.
func (r *Reader) readObjectArrayGroupBody(f *bitfile.File, groupHeaderPos int64, t wire.Type) (*model.PropertyGroup, error) {
	count, err := f.ReadU32()
	if err != nil {
		return nil, err
	}

	keys := make([]uint64, count)
	for i := range keys {
		if keys[i], err = f.ReadU64(); err != nil {
			return nil, err
		}
	}

	relOffsets := make([]int64, count)
	for i := range relOffsets {
		off, err := f.ReadU64()
		if err != nil {
			return nil, err
		}
		relOffsets[i] = int64(off)
	}

	values := make([]any, count)
	for i, off := range relOffsets {
		oa, err := r.readColumnGroup(groupHeaderPos + off)
		if err != nil {
			return nil, err
		}
		values[i] = oa
	}

	return &model.PropertyGroup{Type: t, Keys: keys, Values: values}, nil
}

func (r *Reader) readColumnGroup(pos int64) (model.ObjectArray, error) {
	f := r.f

	if err := f.Seek(pos); err != nil {
		return model.ObjectArray{}, err
	}
	m, err := f.ReadU8()
	if err != nil {
		return model.ObjectArray{}, err
	}
	if err := wire.Expect(wire.MarkerColumnGroup, wire.Marker(m), pos); err != nil {
		return model.ObjectArray{}, err
	}

	columnCount, err := f.ReadU32()
	if err != nil {
		return model.ObjectArray{}, err
	}
	objectCount, err := f.ReadU32()
	if err != nil {
		return model.ObjectArray{}, err
	}

	oids := make([]uint64, objectCount)
	for i := range oids {
		if oids[i], err = f.ReadU64(); err != nil {
			return model.ObjectArray{}, err
		}
	}

	colRelOffsets := make([]int64, columnCount)
	for i := range colRelOffsets {
		off, err := f.ReadU64()
		if err != nil {
			return model.ObjectArray{}, err
		}
		colRelOffsets[i] = int64(off)
	}

	columns := make([]model.Column, columnCount)
	for i, off := range colRelOffsets {
		col, err := r.readColumn(pos + off)
		if err != nil {
			return model.ObjectArray{}, err
		}
		columns[i] = col
	}

	return model.ObjectArray{OIDs: oids, Columns: columns}, nil
}

func (r *Reader) readColumn(pos int64) (model.Column, error) {
	f := r.f

	if err := f.Seek(pos); err != nil {
		return model.Column{}, err
	}
	m, err := f.ReadU8()
	if err != nil {
		return model.Column{}, err
	}
	if err := wire.Expect(wire.MarkerColumn, wire.Marker(m), pos); err != nil {
		return model.Column{}, err
	}

	nameSid, err := f.ReadU64()
	if err != nil {
		return model.Column{}, err
	}
	valueTypeByte, err := f.ReadU8()
	if err != nil {
		return model.Column{}, err
	}
	valueType, err := wire.TypeFromMarker(wire.Marker(valueTypeByte))
	if err != nil {
		return model.Column{}, err
	}

	entryCount, err := f.ReadU32()
	if err != nil {
		return model.Column{}, err
	}

	entryRelOffsets := make([]int64, entryCount)
	for i := range entryRelOffsets {
		off, err := f.ReadU64()
		if err != nil {
			return model.Column{}, err
		}
		entryRelOffsets[i] = int64(off)
	}

	positions := make([]uint32, entryCount)
	for i := range positions {
		if positions[i], err = f.ReadU32(); err != nil {
			return model.Column{}, err
		}
	}

	entries := make([]model.ColumnEntry, entryCount)
	for i, off := range entryRelOffsets {
		entryPos := pos + off

		var val any
		if valueType == wire.TypeObject {
			if err := f.Seek(entryPos); err != nil {
				return model.Column{}, err
			}
			child, err := r.readObjectAt(entryPos)
			if err != nil {
				return model.Column{}, err
			}
			val, err = child.Materialize()
			if err != nil {
				return model.Column{}, err
			}
		} else {
			if err := f.Seek(entryPos); err != nil {
				return model.Column{}, err
			}
			val, err = readScalar(f, valueType)
			if err != nil {
				return model.Column{}, err
			}
		}

		entries[i] = model.ColumnEntry{Position: positions[i], Value: val}
	}

	return model.Column{NameSid: nameSid, ValueType: valueType, Entries: entries}, nil
}
