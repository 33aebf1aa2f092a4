// Package huffman implements the corpus-driven byte-level prefix code used
// by the string packer. A Table is built once from a frequency histogram
// over the corpus, serialized into the archive as a sequence of dictionary
// entries, and later rebuilt from those same entries by the reader without
// access to the original frequencies.
package huffman

import "github.com/jsonarc/jsonarc/errs"

// node is an arena-indexed tree node. Leaves carry a letter; internal nodes
// carry only the summed frequency of their subtree and child indices.
type node struct {
	left, right int32 // -1 for a leaf
	letter      byte
	freq        uint64
}

func (n *node) isLeaf() bool { return n.left < 0 && n.right < 0 }

// code is the bit path assigned to one leaf, always prefixed with a single
// sentinel 1-bit pushed before the walk begins. The sentinel guarantees
// every code has length >= 1 even in the degenerate single-symbol corpus,
// where the root is itself the only leaf and no tree-navigation bits exist.
type code struct {
	bits  []bool
	valid bool
}

// Table is a built or reconstructed Huffman code table over the 256
// possible byte values.
type Table struct {
	nodes   []node
	rootIdx int32
	codes   [256]code
}

// Histogram accumulates byte frequencies across one or more corpus chunks.
type Histogram [256]uint64

// Add folds data's byte frequencies into h.
func (h *Histogram) Add(data []byte) {
	for _, b := range data {
		h[b]++
	}
}

// Build constructs a deterministic Huffman tree from h. Only byte values
// with a non-zero count become leaves; encoding a byte absent from the
// corpus later fails with errs.ErrHuffmanMissingLetter. The full 0..255
// range is scanned, including byte value 255, which a range ending at 254
// would silently exclude from ever being encodable.
func Build(h Histogram) (*Table, error) {
	t := &Table{}

	active := make([]int32, 0, 256)
	for b := 0; b <= 255; b++ {
		if h[b] == 0 {
			continue
		}
		idx := int32(len(t.nodes))
		t.nodes = append(t.nodes, node{left: -1, right: -1, letter: byte(b), freq: h[b]})
		active = append(active, idx)
	}

	if len(active) == 0 {
		return nil, errs.ErrNullArg
	}

	for len(active) > 1 {
		i1, i2 := findTwoSmallest(t.nodes, active)
		// i1 < i2 as positions within active.
		a, b := active[i1], active[i2]

		parent := int32(len(t.nodes))
		t.nodes = append(t.nodes, node{
			left: a, right: b, freq: t.nodes[a].freq + t.nodes[b].freq,
		})

		// Remove b first (higher position) then a, to keep indices valid.
		active = append(active[:i2], active[i2+1:]...)
		active = append(active[:i1], active[i1+1:]...)
		active = append(active, parent)
	}

	t.rootIdx = active[0]
	t.assignCodes()

	return t, nil
}

// findTwoSmallest returns the positions, within active, of the two nodes
// with the lowest frequency, breaking ties by earliest position (i.e. the
// order in which leaves were created, byte value ascending). This mirrors
// scanning a list left to right and always taking the first minimum found.
func findTwoSmallest(nodes []node, active []int32) (int, int) {
	i1, i2 := 0, 1
	if nodes[active[1]].freq < nodes[active[0]].freq {
		i1, i2 = 1, 0
	}

	for i := 2; i < len(active); i++ {
		f := nodes[active[i]].freq
		switch {
		case f < nodes[active[i1]].freq:
			i2 = i1
			i1 = i
		case f < nodes[active[i2]].freq:
			i2 = i
		}
	}

	if i1 > i2 {
		i1, i2 = i2, i1
	}

	return i1, i2
}

func (t *Table) assignCodes() {
	t.walk(t.rootIdx, []bool{true})
}

func (t *Table) walk(idx int32, path []bool) {
	n := &t.nodes[idx]
	if n.isLeaf() {
		bits := make([]bool, len(path))
		copy(bits, path)
		t.codes[n.letter] = code{bits: bits, valid: true}

		return
	}

	if n.left >= 0 {
		t.walk(n.left, append(append([]bool{}, path...), false))
	}
	if n.right >= 0 {
		t.walk(n.right, append(append([]bool{}, path...), true))
	}
}

// Code returns the bit path for b, including its leading sentinel bit, and
// whether b has an assigned code.
func (t *Table) Code(b byte) ([]bool, bool) {
	c := t.codes[b]

	return c.bits, c.valid
}

// HasLetter reports whether b occurred in the corpus the table was built
// from.
func (t *Table) HasLetter(b byte) bool {
	return t.codes[b].valid
}

// entry pairs a letter with its code, used for serialization and for
// rebuilding a decode tree from deserialized entries.
type entry struct {
	letter byte
	bits   []bool
}

// Entries returns the table's letter/code pairs in ascending byte order,
// the order dictionary entries are serialized in.
func (t *Table) Entries() []entry {
	out := make([]entry, 0, 256)
	for b := 0; b < 256; b++ {
		if t.codes[b].valid {
			out = append(out, entry{letter: byte(b), bits: t.codes[b].bits})
		}
	}

	return out
}

// FromEntries rebuilds a Table's decode tree from previously serialized
// letter/code pairs, without access to the original frequencies. Internal
// node frequencies are left at zero; only tree shape and leaf letters
// matter for decoding.
func FromEntries(entries []entry) (*Table, error) {
	if len(entries) == 0 {
		return nil, errs.ErrNullArg
	}

	t := &Table{rootIdx: -1}
	t.nodes = append(t.nodes, node{left: -1, right: -1}) // placeholder root
	t.rootIdx = 0

	for _, e := range entries {
		if err := t.insert(e.letter, e.bits); err != nil {
			return nil, err
		}
		t.codes[e.letter] = code{bits: e.bits, valid: true}
	}

	return t, nil
}

// insert walks path (skipping the leading sentinel bit) from the root,
// creating internal nodes as needed, and places letter at the final leaf.
func (t *Table) insert(letter byte, path []bool) error {
	if len(path) == 0 {
		return errs.ErrInternal
	}

	cur := int32(t.rootIdx)
	// path[0] is always the sentinel; navigation starts at path[1:].
	nav := path[1:]

	if len(nav) == 0 {
		t.nodes[cur].letter = letter
		t.nodes[cur].left, t.nodes[cur].right = -1, -1

		return nil
	}

	for i, bit := range nav {
		n := &t.nodes[cur]
		last := i == len(nav)-1

		var next int32
		if bit {
			next = n.right
		} else {
			next = n.left
		}

		if next < 0 {
			next = int32(len(t.nodes))
			t.nodes = append(t.nodes, node{left: -1, right: -1})
			if bit {
				t.nodes[cur].right = next
			} else {
				t.nodes[cur].left = next
			}
		}

		if last {
			t.nodes[next].letter = letter
			t.nodes[next].left, t.nodes[next].right = -1, -1
		}

		cur = next
	}

	return nil
}
