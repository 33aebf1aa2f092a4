package pack

import (
	"fmt"

	"github.com/jsonarc/jsonarc/bitfile"
	"github.com/jsonarc/jsonarc/huffman"
)

// Huffman compresses strings using a byte-level prefix code built once
// from the full corpus of strings passed to WriteExtra.
type Huffman struct {
	table *huffman.Table
}

var _ Codec = (*Huffman)(nil)

// NewHuffman constructs the Huffman strategy with no table yet built; call
// WriteExtra (writer side) or ReadExtra (reader side) before encoding or
// decoding.
func NewHuffman() Codec { return &Huffman{} }

func (h *Huffman) Name() string  { return "huffman" }
func (h *Huffman) FlagBit() byte { return FlagHuffman }
func (h *Huffman) Copy() Codec   { return &Huffman{} }

func (h *Huffman) Describe() string {
	if h.table == nil {
		return "huffman: no table built"
	}

	return fmt.Sprintf("huffman: %d letters in table", len(h.table.Entries()))
}

// WriteExtra builds a histogram over every string's bytes, builds the
// table, and serializes its dictionary entries.
func (h *Huffman) WriteExtra(dst *bitfile.File, strings []string) error {
	var hist huffman.Histogram
	for _, s := range strings {
		hist.Add([]byte(s))
	}

	table, err := huffman.Build(hist)
	if err != nil {
		return err
	}
	h.table = table

	return table.Serialize(dst)
}

// ReadExtra reads back the dictionary entries WriteExtra wrote, consuming
// exactly extraSize bytes, and rebuilds the decode tree from them.
func (h *Huffman) ReadExtra(src *bitfile.File, extraSize int) error {
	start := src.Pos()
	entries := 0

	table, err := readDictEntries(src, start, extraSize, &entries)
	if err != nil {
		return err
	}
	h.table = table

	return nil
}

// readDictEntries reads consecutive dictionary entries until extraSize
// bytes have been consumed from src starting at start.
func readDictEntries(src *bitfile.File, start int64, extraSize int, count *int) (*huffman.Table, error) {
	for src.Pos()-start < int64(extraSize) {
		*count++
		if err := skipOneDictEntry(src); err != nil {
			return nil, err
		}
	}

	if err := src.Seek(start); err != nil {
		return nil, err
	}

	return huffman.Deserialize(src, *count)
}

// skipOneDictEntry advances src past a single dictionary entry, using the
// same marker/letter/length-byte layout huffman.Deserialize parses, so the
// caller can first count entries before doing the real parse pass.
func skipOneDictEntry(src *bitfile.File) error {
	if _, err := src.ReadU8(); err != nil { // marker
		return err
	}
	if _, err := src.ReadU8(); err != nil { // letter
		return err
	}
	length, err := src.ReadU8()
	if err != nil {
		return err
	}

	if err := src.BeginBits(); err != nil {
		return err
	}
	for i := 0; i < int(length); i++ {
		if _, err := src.ReadBit(); err != nil {
			return err
		}
	}
	_, err = src.EndBits()

	return err
}

// EncodeString bit-packs s against the built table.
func (h *Huffman) EncodeString(dst *bitfile.File, s string) error {
	return h.table.EncodeString(dst, []byte(s))
}

// DecodeString decodes n bytes from the bit-packed stream at src.
func (h *Huffman) DecodeString(src *bitfile.File, n int) (string, error) {
	b, err := h.table.DecodeString(src, n)
	if err != nil {
		return "", err
	}

	return string(b), nil
}
