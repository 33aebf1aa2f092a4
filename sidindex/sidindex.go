// Package sidindex builds and serializes an optional secondary index
// mapping a string id to the byte offset and length of its encoded
// payload within the archive's string table, letting lookups skip the
// linear scan over string-table entries.
package sidindex

import (
	"github.com/tidwall/hashmap"

	"github.com/jsonarc/jsonarc/bitfile"
	"github.com/jsonarc/jsonarc/errs"
	"github.com/jsonarc/jsonarc/wire"
)

// entry is a sid's location within the string table.
type entry struct {
	Offset uint64
	Length uint64
}

// Index maps string ids to their encoded-payload location. The backing
// map delegates chaining and growth to github.com/tidwall/hashmap; only
// the serialized triple list is this package's own format.
type Index struct {
	m *hashmap.Map[uint64, entry]
}

// New creates an empty index sized for roughly capacityHint entries.
func New(capacityHint int) *Index {
	return &Index{m: hashmap.New[uint64, entry](capacityHint)}
}

// Put records sid's encoded payload location.
func (idx *Index) Put(sid, offset, length uint64) {
	idx.m.Set(sid, entry{Offset: offset, Length: length})
}

// Get returns sid's encoded payload location, if indexed.
func (idx *Index) Get(sid uint64) (offset, length uint64, ok bool) {
	e, ok := idx.m.Get(sid)

	return e.Offset, e.Length, ok
}

// Len returns the number of indexed sids.
func (idx *Index) Len() int {
	return idx.m.Len()
}

// headerFields mirrors a string-table entry's fixed-size prefix, read
// ahead of the packer-encoded payload it precedes.
type headerFields struct {
	nextOffset uint64
	sid        uint64
	origLen    uint32
}

func readEntryHeader(f *bitfile.File) (headerFields, error) {
	var h headerFields

	markerByte, err := f.ReadU8()
	if err != nil {
		return h, err
	}
	if err := wire.Expect(wire.MarkerStringEntry, wire.Marker(markerByte), f.Pos()-1); err != nil {
		return h, err
	}

	h.nextOffset, err = f.ReadU64()
	if err != nil {
		return h, err
	}
	h.sid, err = f.ReadU64()
	if err != nil {
		return h, err
	}
	h.origLen, err = f.ReadU32()

	return h, err
}

// Build walks the string table's linked list of entries, starting at
// firstEntryOffset, recording each sid's encoded-payload offset and
// length. tableEnd bounds the last entry's payload length, since a final
// entry's next-offset field is 0 rather than pointing past itself.
func Build(f *bitfile.File, firstEntryOffset int64, entryCount int, tableEnd int64) (*Index, error) {
	idx := New(entryCount)

	offset := firstEntryOffset
	for i := 0; i < entryCount; i++ {
		if err := f.Seek(offset); err != nil {
			return nil, err
		}

		h, err := readEntryHeader(f)
		if err != nil {
			return nil, err
		}

		payloadStart := f.Pos()
		payloadEnd := tableEnd
		if h.nextOffset != 0 {
			payloadEnd = int64(h.nextOffset)
		}
		if payloadEnd < payloadStart {
			return nil, errs.ErrIndexCorrupted
		}

		idx.Put(h.sid, uint64(payloadStart), uint64(payloadEnd-payloadStart))

		if h.nextOffset == 0 {
			break
		}
		offset = int64(h.nextOffset)
	}

	return idx, nil
}

// Serialize writes the index as an entry count followed by (sid, offset,
// length) triples.
func (idx *Index) Serialize(f *bitfile.File) error {
	if err := f.WriteU32(uint32(idx.m.Len())); err != nil {
		return err
	}

	for _, sid := range idx.m.Keys() {
		e, _ := idx.m.Get(sid)

		if err := f.WriteU64(sid); err != nil {
			return err
		}
		if err := f.WriteU64(e.Offset); err != nil {
			return err
		}
		if err := f.WriteU64(e.Length); err != nil {
			return err
		}
	}

	return nil
}

// Deserialize reads an index previously written by Serialize.
func Deserialize(f *bitfile.File) (*Index, error) {
	count, err := f.ReadU32()
	if err != nil {
		return nil, err
	}

	idx := New(int(count))
	for i := uint32(0); i < count; i++ {
		sid, err := f.ReadU64()
		if err != nil {
			return nil, err
		}
		offset, err := f.ReadU64()
		if err != nil {
			return nil, err
		}
		length, err := f.ReadU64()
		if err != nil {
			return nil, err
		}

		idx.Put(sid, offset, length)
	}

	return idx, nil
}
