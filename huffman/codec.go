package huffman

import (
	"github.com/jsonarc/jsonarc/bitfile"
	"github.com/jsonarc/jsonarc/errs"
	"github.com/jsonarc/jsonarc/wire"
)

// Serialize writes one dictionary entry per letter known to t: a marker
// byte, the letter, an 8-bit code length, then the code bits themselves in
// bit mode. The reader rebuilds an equivalent decode tree by reading back
// exactly these entries, without ever seeing the original frequencies.
func (t *Table) Serialize(f *bitfile.File) error {
	for _, e := range t.Entries() {
		if len(e.bits) > 0xFF {
			return errs.ErrInternal
		}

		if err := f.WriteU8(byte(wire.MarkerHuffmanDictEntry)); err != nil {
			return err
		}
		if err := f.WriteU8(e.letter); err != nil {
			return err
		}
		if err := f.WriteU8(byte(len(e.bits))); err != nil {
			return err
		}

		if err := f.BeginBits(); err != nil {
			return err
		}
		for _, bit := range e.bits {
			if err := f.WriteBit(bit); err != nil {
				return err
			}
		}
		if _, err := f.EndBits(); err != nil {
			return err
		}
	}

	return nil
}

// Deserialize reads exactly count dictionary entries written by Serialize
// and rebuilds a Table whose decode tree matches the writer's.
func Deserialize(f *bitfile.File, count int) (*Table, error) {
	entries := make([]entry, 0, count)

	for i := 0; i < count; i++ {
		markerByte, err := f.ReadU8()
		if err != nil {
			return nil, err
		}
		if err := wire.Expect(wire.MarkerHuffmanDictEntry, wire.Marker(markerByte), f.Pos()-1); err != nil {
			return nil, err
		}

		letter, err := f.ReadU8()
		if err != nil {
			return nil, err
		}

		length, err := f.ReadU8()
		if err != nil {
			return nil, err
		}

		if err := f.BeginBits(); err != nil {
			return nil, err
		}
		bits := make([]bool, length)
		for j := range bits {
			b, err := f.ReadBit()
			if err != nil {
				return nil, err
			}
			bits[j] = b
		}
		if _, err := f.EndBits(); err != nil {
			return nil, err
		}

		entries = append(entries, entry{letter: letter, bits: bits})
	}

	return FromEntries(entries)
}

// EncodeString writes a 32-bit placeholder for the encoded byte length,
// then the bit-packed code for every byte of data, then back-patches the
// placeholder with the number of bytes the bit run actually occupied.
func (t *Table) EncodeString(f *bitfile.File, data []byte) error {
	lengthPos := f.Pos()
	if err := f.WriteU32(0); err != nil {
		return err
	}

	if err := f.BeginBits(); err != nil {
		return err
	}
	for _, b := range data {
		bits, ok := t.Code(b)
		if !ok {
			return errs.ErrHuffmanMissingLetter
		}
		for _, bit := range bits {
			if err := f.WriteBit(bit); err != nil {
				return err
			}
		}
	}
	encodedLen, err := f.EndBits()
	if err != nil {
		return err
	}

	endPos := f.Pos()
	if err := f.Seek(lengthPos); err != nil {
		return err
	}
	if err := f.WriteU32(uint32(encodedLen)); err != nil {
		return err
	}

	return f.Seek(endPos)
}

// DecodeString reads a 32-bit encoded byte length then decodes outputLen
// symbols by walking the tree bit by bit from the root, consuming the
// leading sentinel bit at the start of each symbol's code.
func (t *Table) DecodeString(f *bitfile.File, outputLen int) ([]byte, error) {
	encodedLen, err := f.ReadU32()
	if err != nil {
		return nil, err
	}

	bitStart := f.Pos()
	if err := f.BeginBits(); err != nil {
		return nil, err
	}

	out := make([]byte, 0, outputLen)
	for len(out) < outputLen {
		// Skip the sentinel bit; it carries no navigation information.
		if _, err := f.ReadBit(); err != nil {
			return nil, err
		}

		cur := t.rootIdx
		for !t.nodes[cur].isLeaf() {
			bit, err := f.ReadBit()
			if err != nil {
				return nil, err
			}
			if bit {
				cur = t.nodes[cur].right
			} else {
				cur = t.nodes[cur].left
			}
			if cur < 0 {
				return nil, errs.ErrCorruptedMarker
			}
		}

		out = append(out, t.nodes[cur].letter)
	}

	if _, err := f.EndBits(); err != nil {
		return nil, err
	}

	return out, f.Seek(bitStart + int64(encodedLen))
}
