// Package errs defines the sentinel error values returned across the
// archive engine. Every fallible operation returns one of these values
// (optionally wrapped with fmt.Errorf's %w) instead of panicking, so
// callers can use errors.Is to discriminate failure kinds.
package errs

import "errors"

var (
	// ErrNullArg is returned when a required input argument is absent (nil or empty).
	ErrNullArg = errors.New("jsonarc: required argument is nil or empty")

	// ErrBounds is returned when a read or write exceeds the current extent of a
	// non-growable buffer.
	ErrBounds = errors.New("jsonarc: access out of bounds")

	// ErrWriteProtected is returned when a mutating operation is attempted on a
	// read-only bit-file.
	ErrWriteProtected = errors.New("jsonarc: buffer is write-protected")

	// ErrNotInBitMode is returned when a bit-level operation is attempted outside
	// of bit mode, or when bit mode is entered while already in it. Byte-level
	// reads and writes do not check for bit mode.
	ErrNotInBitMode = errors.New("jsonarc: bit-file is not in bit mode")

	// ErrCorruptedMarker is returned when a marker byte encountered during a scan
	// does not match the expected marker alphabet entry.
	ErrCorruptedMarker = errors.New("jsonarc: corrupted marker byte")

	// ErrNotAnArchive is returned when the file header's magic, version, or
	// record-header offset fails validation.
	ErrNotAnArchive = errors.New("jsonarc: not a valid archive")

	// ErrUnknownPackerType is returned when the string-table header's packer flag
	// byte maps to no registered packer strategy.
	ErrUnknownPackerType = errors.New("jsonarc: unknown packer type")

	// ErrHuffmanMissingLetter is returned when encoding a byte that has no entry
	// in the Huffman table built from the corpus.
	ErrHuffmanMissingLetter = errors.New("jsonarc: huffman table has no entry for byte")

	// ErrDecompressFailed is returned when a packer's decode routine fails to
	// recover the original bytes.
	ErrDecompressFailed = errors.New("jsonarc: decompression failed")

	// ErrNotFound is returned when a string id is absent from both the sid index
	// and the linear scan fallback.
	ErrNotFound = errors.New("jsonarc: not found")

	// ErrIndexCorrupted is returned when a sid index entry points past EOF.
	ErrIndexCorrupted = errors.New("jsonarc: sid index corrupted")

	// ErrIO wraps underlying file I/O failures at a package boundary.
	ErrIO = errors.New("jsonarc: io error")

	// ErrThreadOutOfOIDs is returned when an oid generator's per-process or
	// per-goroutine counter space is exhausted.
	ErrThreadOutOfOIDs = errors.New("jsonarc: object id generator exhausted its counter space")

	// ErrInternal signals an invariant violation; it should not occur in
	// correct operation.
	ErrInternal = errors.New("jsonarc: internal invariant violation")

	// ErrScanFailed is returned when a query's block scan over the string table
	// fails partway through.
	ErrScanFailed = errors.New("jsonarc: scan failed")

	// ErrPredicateFailed is returned when a query predicate's validate step
	// rejects its capture.
	ErrPredicateFailed = errors.New("jsonarc: predicate rejected capture")

	// ErrInvalidHeaderSize is returned when a header byte slice has the wrong length.
	ErrInvalidHeaderSize = errors.New("jsonarc: invalid header size")

	// ErrInvalidMagic is returned when the file header magic does not match.
	ErrInvalidMagic = errors.New("jsonarc: invalid magic number")

	// ErrInvalidVersion is returned when the file header version is unsupported.
	ErrInvalidVersion = errors.New("jsonarc: unsupported archive version")

	// ErrMetricAlreadyStarted-equivalent: a dictionary key collision within a
	// single batch that the caller asserted would be exclusive.
	ErrKeyAlreadyExists = errors.New("jsonarc: key already exists")

	// ErrUnknownFieldType is returned when a field-type byte does not map to any
	// entry in the wire type table.
	ErrUnknownFieldType = errors.New("jsonarc: unknown field type")

	// ErrShardOutOfRange is returned when a decomposed sid's shard tag exceeds
	// the sharded dictionary's configured shard count.
	ErrShardOutOfRange = errors.New("jsonarc: shard tag out of range")
)
