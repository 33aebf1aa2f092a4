package bitfile_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jsonarc/jsonarc/bitfile"
	"github.com/jsonarc/jsonarc/errs"
)

func TestWriteReadTypedRoundTrip(t *testing.T) {
	f := bitfile.New()

	require.NoError(t, f.WriteU8(0x7F))
	require.NoError(t, f.WriteU16(0x1234))
	require.NoError(t, f.WriteU32(0xCAFEBABE))
	require.NoError(t, f.WriteU64(0x0123456789ABCDEF))

	require.NoError(t, f.Seek(0))

	v8, err := f.ReadU8()
	require.NoError(t, err)
	require.EqualValues(t, 0x7F, v8)

	v16, err := f.ReadU16()
	require.NoError(t, err)
	require.EqualValues(t, 0x1234, v16)

	v32, err := f.ReadU32()
	require.NoError(t, err)
	require.EqualValues(t, 0xCAFEBABE, v32)

	v64, err := f.ReadU64()
	require.NoError(t, err)
	require.EqualValues(t, 0x0123456789ABCDEF, v64)
}

func TestSeekGrowsInReadWriteMode(t *testing.T) {
	f := bitfile.New()
	require.NoError(t, f.Seek(100))
	require.Equal(t, 100, f.Len())
}

func TestSeekFailsPastExtentInReadOnlyMode(t *testing.T) {
	f := bitfile.Wrap([]byte{1, 2, 3})
	require.ErrorIs(t, f.Seek(10), errs.ErrBounds)
}

func TestWriteFailsOnReadOnly(t *testing.T) {
	f := bitfile.Wrap([]byte{1, 2, 3})
	require.ErrorIs(t, f.Write([]byte{4}), errs.ErrWriteProtected)
}

func TestBackPatch(t *testing.T) {
	f := bitfile.New()

	lenPos := f.Pos()
	require.NoError(t, f.WriteU32(0)) // placeholder

	require.NoError(t, f.Write([]byte("hello")))
	end := f.Pos()

	require.NoError(t, f.Seek(lenPos))
	require.NoError(t, f.WriteU32(5))
	require.NoError(t, f.Seek(end))

	require.NoError(t, f.Seek(0))
	n, err := f.ReadU32()
	require.NoError(t, err)
	require.EqualValues(t, 5, n)

	body, err := f.Read(int(n))
	require.NoError(t, err)
	require.Equal(t, "hello", string(body))
}

func TestBitModeRoundTrip(t *testing.T) {
	f := bitfile.New()

	bits := []bool{true, false, true, true, false, false, false, true, true, false}

	require.NoError(t, f.BeginBits())
	for _, b := range bits {
		require.NoError(t, f.WriteBit(b))
	}
	n, err := f.EndBits()
	require.NoError(t, err)
	require.Equal(t, 2, n) // 10 bits -> 2 whole bytes

	require.NoError(t, f.Seek(0))
	require.NoError(t, f.BeginBits())

	got := make([]bool, 0, len(bits))
	for range bits {
		b, err := f.ReadBit()
		require.NoError(t, err)
		got = append(got, b)
	}
	_, err = f.EndBits()
	require.NoError(t, err)

	require.Equal(t, bits, got)
}

func TestBitOpsFailOutsideBitMode(t *testing.T) {
	f := bitfile.New()
	_, err := f.ReadBit()
	require.ErrorIs(t, err, errs.ErrNotInBitMode)

	err = f.WriteBit(true)
	require.ErrorIs(t, err, errs.ErrNotInBitMode)

	_, err = f.EndBits()
	require.ErrorIs(t, err, errs.ErrNotInBitMode)
}

func TestShrinkTruncatesToCursor(t *testing.T) {
	f := bitfile.New()
	require.NoError(t, f.Write([]byte("0123456789")))
	require.NoError(t, f.Seek(4))
	f.Shrink()
	require.Equal(t, 4, f.Len())
}
