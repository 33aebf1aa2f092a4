// Package bitfile provides a random-access, growable byte buffer with a
// cursor and an optional bit-level sub-mode, used as the substrate for the
// archive's marker-driven binary record layout.
//
// Growth follows internal/pool's ByteBuffer strategy: small buffers grow by
// a fixed default increment, larger ones by a fraction of their current
// capacity, to bound the number of reallocations during a sequential write
// pass.
package bitfile

import (
	"github.com/jsonarc/jsonarc/endian"
	"github.com/jsonarc/jsonarc/errs"
)

// Mode selects whether a File may grow and be written to.
type Mode uint8

const (
	// ReadWrite files grow on seek/skip/write past their current extent.
	ReadWrite Mode = iota
	// ReadOnly files never grow; out-of-bounds access fails with errs.ErrBounds.
	ReadOnly
)

const (
	defaultGrowth  = 16 * 1024
	growthFraction = 4 // grow by cap/growthFraction once cap exceeds growthThreshold
	growthThreshold = 4 * defaultGrowth
)

// File is a growable byte buffer with a cursor, used both to build an
// archive (ReadWrite) and to map one for traversal (ReadOnly).
type File struct {
	buf  []byte
	pos  int
	mode Mode

	// Bit sub-mode state.
	inBits      bool
	bitBytePos  int
	bitIndex    int // 0-7, next bit to set/read within buf[bitBytePos]
	bitsFilled  int // whole bytes consumed/produced so far in this bit run
}

// New creates an empty, growable ReadWrite file.
func New() *File {
	return &File{buf: make([]byte, 0, defaultGrowth), mode: ReadWrite}
}

// NewWithCapacity creates an empty, growable ReadWrite file with the given
// initial capacity hint.
func NewWithCapacity(capacity int) *File {
	if capacity <= 0 {
		capacity = defaultGrowth
	}

	return &File{buf: make([]byte, 0, capacity), mode: ReadWrite}
}

// Wrap creates a ReadOnly file over an existing byte slice (e.g. a mapped
// archive), sharing its backing array.
func Wrap(data []byte) *File {
	return &File{buf: data, mode: ReadOnly}
}

// Mode returns the file's access mode.
func (f *File) Mode() Mode { return f.mode }

// Len returns the current size of the file in bytes.
func (f *File) Len() int { return len(f.buf) }

// Pos returns the current cursor position.
func (f *File) Pos() int64 { return int64(f.pos) }

// Bytes returns the underlying byte slice. Callers must not retain it past
// further mutation of f.
func (f *File) Bytes() []byte { return f.buf }

func (f *File) grow(need int) {
	available := cap(f.buf) - len(f.buf)
	if available >= need {
		return
	}

	growBy := defaultGrowth
	if cap(f.buf) > growthThreshold {
		growBy = cap(f.buf) / growthFraction
	}
	if growBy < need {
		growBy = need
	}

	next := make([]byte, len(f.buf), len(f.buf)+growBy)
	copy(next, f.buf)
	f.buf = next
}

// ensure grows the buffer, in ReadWrite mode, until it has at least n bytes
// of length (not just capacity), zero-filling the extension.
func (f *File) ensure(n int) error {
	if n <= len(f.buf) {
		return nil
	}
	if f.mode == ReadOnly {
		return errs.ErrBounds
	}

	f.grow(n - len(f.buf))
	f.buf = f.buf[:n]

	return nil
}

// Seek moves the cursor to pos. In ReadWrite mode the buffer grows to cover
// pos if needed; in ReadOnly mode seeking past the current extent fails.
func (f *File) Seek(pos int64) error {
	if pos < 0 {
		return errs.ErrBounds
	}

	p := int(pos)
	if p > len(f.buf) {
		if err := f.ensure(p); err != nil {
			return err
		}
	}
	f.pos = p

	return nil
}

// Skip advances the cursor by n bytes, growing the buffer in ReadWrite mode.
func (f *File) Skip(n int) error {
	return f.Seek(int64(f.pos + n))
}

// Peek returns a view of the next n bytes without advancing the cursor.
func (f *File) Peek(n int) ([]byte, error) {
	if n < 0 || f.pos+n > len(f.buf) {
		return nil, errs.ErrBounds
	}

	return f.buf[f.pos : f.pos+n], nil
}

// Read returns a view of the next n bytes and advances the cursor past them.
func (f *File) Read(n int) ([]byte, error) {
	b, err := f.Peek(n)
	if err != nil {
		return nil, err
	}
	f.pos += n

	return b, nil
}

// Write appends data at the cursor, growing the buffer in ReadWrite mode,
// and advances the cursor past it. It fails with errs.ErrWriteProtected in
// ReadOnly mode.
func (f *File) Write(data []byte) error {
	if f.mode == ReadOnly {
		return errs.ErrWriteProtected
	}

	end := f.pos + len(data)
	if err := f.ensure(end); err != nil {
		return err
	}
	copy(f.buf[f.pos:end], data)
	f.pos = end

	return nil
}

// Shrink truncates the buffer to the current cursor position, discarding
// any bytes beyond it.
func (f *File) Shrink() {
	if f.pos < len(f.buf) {
		f.buf = f.buf[:f.pos]
	}
}

// --- typed little-endian helpers -------------------------------------------------

var le = endian.GetLittleEndianEngine()

func (f *File) WriteU8(v uint8) error  { return f.Write([]byte{v}) }
func (f *File) WriteU16(v uint16) error {
	var b [2]byte
	le.PutUint16(b[:], v)
	return f.Write(b[:])
}
func (f *File) WriteU32(v uint32) error {
	var b [4]byte
	le.PutUint32(b[:], v)
	return f.Write(b[:])
}
func (f *File) WriteU64(v uint64) error {
	var b [8]byte
	le.PutUint64(b[:], v)
	return f.Write(b[:])
}

func (f *File) ReadU8() (uint8, error) {
	b, err := f.Read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (f *File) ReadU16() (uint16, error) {
	b, err := f.Read(2)
	if err != nil {
		return 0, err
	}
	return le.Uint16(b), nil
}

func (f *File) ReadU32() (uint32, error) {
	b, err := f.Read(4)
	if err != nil {
		return 0, err
	}
	return le.Uint32(b), nil
}

func (f *File) ReadU64() (uint64, error) {
	b, err := f.Read(8)
	if err != nil {
		return 0, err
	}
	return le.Uint64(b), nil
}

func (f *File) PeekU8() (uint8, error) {
	b, err := f.Peek(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// --- bit sub-mode -------------------------------------------------------

// BeginBits enters bit mode: it clears the bit offset and leaves the cursor
// positioned on the byte at the cursor. At the end of a ReadWrite file it
// reserves a fresh zeroed byte there; a byte that already exists is left
// as is, so a bit run written earlier can be read back.
func (f *File) BeginBits() error {
	if f.inBits {
		return errs.ErrNotInBitMode
	}

	if f.pos >= len(f.buf) {
		if f.mode == ReadOnly {
			return errs.ErrBounds
		}
		if err := f.ensure(f.pos + 1); err != nil {
			return err
		}
		f.buf[f.pos] = 0
	}

	f.inBits = true
	f.bitBytePos = f.pos
	f.bitIndex = 0
	f.bitsFilled = 0

	return nil
}

// WriteBit sets the next bit, least-significant-bit first, within the
// current pending byte, reserving a fresh byte once 8 bits are filled.
func (f *File) WriteBit(b bool) error {
	if !f.inBits {
		return errs.ErrNotInBitMode
	}
	if f.mode == ReadOnly {
		return errs.ErrWriteProtected
	}

	if b {
		f.buf[f.bitBytePos] |= 1 << uint(f.bitIndex)
	}
	f.bitIndex++

	if f.bitIndex == 8 {
		f.bitsFilled++
		f.bitBytePos++
		f.pos = f.bitBytePos
		if err := f.ensure(f.bitBytePos + 1); err != nil {
			return err
		}
		f.buf[f.bitBytePos] = 0
		f.bitIndex = 0
	}

	return nil
}

// ReadBit reads the next bit, least-significant-bit first, from the current
// byte, advancing to the next byte once 8 bits have been consumed.
func (f *File) ReadBit() (bool, error) {
	if !f.inBits {
		return false, errs.ErrNotInBitMode
	}
	if f.bitBytePos >= len(f.buf) {
		return false, errs.ErrBounds
	}

	bit := (f.buf[f.bitBytePos]>>uint(f.bitIndex))&1 == 1
	f.bitIndex++

	if f.bitIndex == 8 {
		f.bitsFilled++
		f.bitBytePos++
		f.bitIndex = 0
	}

	return bit, nil
}

// EndBits leaves bit mode, advances the cursor past the last partial byte
// (if any bits were written or read into it), and returns the number of
// whole bytes the bit run occupied.
func (f *File) EndBits() (int, error) {
	if !f.inBits {
		return 0, errs.ErrNotInBitMode
	}

	f.inBits = false
	n := f.bitsFilled
	if f.bitIndex > 0 {
		n++
		f.bitBytePos++
	}
	f.pos = f.bitBytePos

	return n, nil
}

// InBitMode reports whether the file is currently in bit sub-mode.
func (f *File) InBitMode() bool { return f.inBits }
