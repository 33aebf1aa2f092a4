// Package archive implements the read-optimized columnar binary archive:
// Writer serializes a model.Document to bytes, Reader maps those bytes
// back for cursor-based traversal, and Query resolves string ids and
// searches objects over an open Reader.
package archive

import (
	"fmt"

	"github.com/jsonarc/jsonarc/bitfile"
	"github.com/jsonarc/jsonarc/errs"
	"github.com/jsonarc/jsonarc/wire"
)

// Magic is the fixed 9-byte ASCII archive identifier.
const Magic = "JSONARC01"

// Version is the only archive format version this package writes and
// accepts.
const Version uint8 = 1

// RecordFlagSorted is the record header's bit 0: set when every property
// group's sid-key column is in ascending order. The reader reports it
// through Info.Sorted; it does not change how the reader scans.
const RecordFlagSorted uint8 = 1 << 0

// FileHeader is the fixed-size prefix of every archive.
type FileHeader struct {
	RecordHeaderOffset uint64
	SidIndexOffset     uint64 // 0 if no sid->offset index is present
}

// FileHeaderSize is the on-disk byte size of a FileHeader.
const FileHeaderSize = len(Magic) + 1 + 8 + 8

// WriteTo writes a placeholder file header (offsets may be patched later)
// at the file's current cursor, which must be position 0.
func (h FileHeader) WriteTo(f *bitfile.File) error {
	if err := f.Write([]byte(Magic)); err != nil {
		return err
	}
	if err := f.WriteU8(Version); err != nil {
		return err
	}
	if err := f.WriteU64(h.RecordHeaderOffset); err != nil {
		return err
	}

	return f.WriteU64(h.SidIndexOffset)
}

// ReadFileHeader reads and validates the file header at the current
// cursor.
func ReadFileHeader(f *bitfile.File) (FileHeader, error) {
	var h FileHeader

	magic, err := f.Read(len(Magic))
	if err != nil {
		return h, err
	}
	if string(magic) != Magic {
		return h, fmt.Errorf("%w: %w", errs.ErrNotAnArchive, errs.ErrInvalidMagic)
	}

	version, err := f.ReadU8()
	if err != nil {
		return h, err
	}
	if version != Version {
		return h, fmt.Errorf("%w: %w", errs.ErrNotAnArchive, errs.ErrInvalidVersion)
	}

	h.RecordHeaderOffset, err = f.ReadU64()
	if err != nil {
		return h, err
	}
	if h.RecordHeaderOffset == 0 {
		return h, errs.ErrNotAnArchive
	}

	h.SidIndexOffset, err = f.ReadU64()

	return h, err
}

// StringTableHeader precedes the string table's entries.
type StringTableHeader struct {
	EntryCount      uint32
	PackerFlag      byte
	FirstEntryOffset uint64
	PackerExtraSize uint64
}

// StringTableHeaderSize is the on-disk byte size of a StringTableHeader.
const StringTableHeaderSize = 1 + 4 + 1 + 8 + 8

func (h StringTableHeader) WriteTo(f *bitfile.File) error {
	if err := f.WriteU8(byte(wire.MarkerStringTable)); err != nil {
		return err
	}
	if err := f.WriteU32(h.EntryCount); err != nil {
		return err
	}
	if err := f.WriteU8(h.PackerFlag); err != nil {
		return err
	}
	if err := f.WriteU64(h.FirstEntryOffset); err != nil {
		return err
	}

	return f.WriteU64(h.PackerExtraSize)
}

func ReadStringTableHeader(f *bitfile.File) (StringTableHeader, error) {
	var h StringTableHeader

	markerByte, err := f.ReadU8()
	if err != nil {
		return h, err
	}
	if err := wire.Expect(wire.MarkerStringTable, wire.Marker(markerByte), f.Pos()-1); err != nil {
		return h, err
	}

	h.EntryCount, err = f.ReadU32()
	if err != nil {
		return h, err
	}
	h.PackerFlag, err = f.ReadU8()
	if err != nil {
		return h, err
	}
	h.FirstEntryOffset, err = f.ReadU64()
	if err != nil {
		return h, err
	}
	h.PackerExtraSize, err = f.ReadU64()

	return h, err
}

// RecordHeader precedes the single root object's serialization.
type RecordHeader struct {
	Flags    uint8
	BodySize uint64
}

// RecordHeaderSize is the on-disk byte size of a RecordHeader.
const RecordHeaderSize = 1 + 1 + 8

func (h RecordHeader) WriteTo(f *bitfile.File) error {
	if err := f.WriteU8(byte(wire.MarkerRecordHeader)); err != nil {
		return err
	}
	if err := f.WriteU8(h.Flags); err != nil {
		return err
	}

	return f.WriteU64(h.BodySize)
}

func ReadRecordHeader(f *bitfile.File) (RecordHeader, error) {
	var h RecordHeader

	markerByte, err := f.ReadU8()
	if err != nil {
		return h, err
	}
	if err := wire.Expect(wire.MarkerRecordHeader, wire.Marker(markerByte), f.Pos()-1); err != nil {
		return h, err
	}

	h.Flags, err = f.ReadU8()
	if err != nil {
		return h, err
	}
	h.BodySize, err = f.ReadU64()

	return h, err
}

// numGroupTypes is the number of distinct property-group types, matching
// the object header's flags bitmap width.
const numGroupTypes = 26
