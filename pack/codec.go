// Package pack provides the pluggable string-compression strategy used by
// the embedded string table: a flag-bit-selected Codec writes any
// strategy-specific side data once ("extra"), then encodes and decodes
// individual strings against it.
package pack

import (
	"fmt"

	"github.com/jsonarc/jsonarc/bitfile"
	"github.com/jsonarc/jsonarc/errs"
)

// Flag bits OR-ed into the string-table header's packer-flag byte.
// Exactly one must be set on a valid archive.
const (
	FlagNone    byte = 0x01
	FlagHuffman byte = 0x02
	FlagZstd    byte = 0x04
	FlagLZ4     byte = 0x08
)

// Codec is a compression strategy for the strings stored in the embedded
// string table.
type Codec interface {
	// Name identifies the strategy for CLI listing and diagnostics.
	Name() string

	// FlagBit is this strategy's bit within the string-table header's
	// packer-flag byte.
	FlagBit() byte

	// Copy returns a fresh, independent instance of the same strategy,
	// used so each archive build starts from codec-specific zero state.
	Copy() Codec

	// WriteExtra writes any strategy-specific side data built from the
	// full corpus of strings about to be encoded (e.g. a Huffman
	// dictionary). Strategies with no side data write nothing.
	WriteExtra(dst *bitfile.File, strings []string) error

	// ReadExtra reads back exactly the side data WriteExtra wrote,
	// consuming extraSize bytes from src.
	ReadExtra(src *bitfile.File, extraSize int) error

	// EncodeString writes s's encoded representation to dst.
	EncodeString(dst *bitfile.File, s string) error

	// DecodeString reads the encoded representation of a string whose
	// original length is n bytes from src.
	DecodeString(src *bitfile.File, n int) (string, error)

	// Describe returns a short human-readable summary of the codec's
	// current state, for view-cab style diagnostics.
	Describe() string
}

// ByFlagBit returns a fresh Codec instance for the single set flag bit in
// flags, or errs.ErrUnknownPackerType if flags has no recognized bit set.
func ByFlagBit(flags byte) (Codec, error) {
	switch flags {
	case FlagNone:
		return NewNone(), nil
	case FlagHuffman:
		return NewHuffman(), nil
	case FlagZstd:
		return NewZstd(), nil
	case FlagLZ4:
		return NewLZ4(), nil
	default:
		return nil, errs.ErrUnknownPackerType
	}
}

// ByName returns a fresh Codec instance by registry name, for the CLI's
// --compressor flag.
func ByName(name string) (Codec, error) {
	for _, c := range Registry() {
		if c.Name() == name {
			return c, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", errs.ErrUnknownPackerType, name)
}

// Registry returns one fresh instance of every built-in strategy, in
// flag-bit order, for the CLI's "list compressors" subcommand.
func Registry() []Codec {
	return []Codec{NewNone(), NewHuffman(), NewZstd(), NewLZ4()}
}
