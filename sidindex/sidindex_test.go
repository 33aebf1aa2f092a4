package sidindex_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jsonarc/jsonarc/bitfile"
	"github.com/jsonarc/jsonarc/sidindex"
	"github.com/jsonarc/jsonarc/wire"
)

// writeStringEntry writes one string-table entry of the shape sidindex.Build
// expects: marker, next-offset, sid, original length, then raw payload
// bytes (as if packed with pack.None).
func writeStringEntry(t *testing.T, f *bitfile.File, sid uint64, payload string, nextOffset uint64) {
	t.Helper()
	require.NoError(t, f.WriteU8(byte(wire.MarkerStringEntry)))
	require.NoError(t, f.WriteU64(nextOffset))
	require.NoError(t, f.WriteU64(sid))
	require.NoError(t, f.WriteU32(uint32(len(payload))))
	require.NoError(t, f.Write([]byte(payload)))
}

func TestBuildIndexesEntryOffsetsAndLengths(t *testing.T) {
	f := bitfile.New()

	firstOffset := f.Pos()
	secondOffsetPlaceholder := int64(0)

	writeStringEntry(t, f, 0, "null", uint64(secondOffsetPlaceholder)) // placeholder, patched below
	secondStart := f.Pos()

	writeStringEntry(t, f, 7, "hello", 0)
	tableEnd := f.Pos()

	// Back-patch the first entry's next-offset field now that we know it.
	require.NoError(t, f.Seek(firstOffset+1))
	require.NoError(t, f.WriteU64(uint64(secondStart)))
	require.NoError(t, f.Seek(tableEnd))

	idx, err := sidindex.Build(f, firstOffset, 2, tableEnd)
	require.NoError(t, err)
	require.Equal(t, 2, idx.Len())

	offset, length, ok := idx.Get(7)
	require.True(t, ok)
	require.EqualValues(t, 5, length)

	require.NoError(t, f.Seek(offset))
	payload, err := f.Read(int(length))
	require.NoError(t, err)
	require.Equal(t, "hello", string(payload))
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	idx := sidindex.New(4)
	idx.Put(1, 10, 5)
	idx.Put(2, 20, 8)

	f := bitfile.New()
	require.NoError(t, idx.Serialize(f))

	require.NoError(t, f.Seek(0))
	rebuilt, err := sidindex.Deserialize(f)
	require.NoError(t, err)
	require.Equal(t, 2, rebuilt.Len())

	offset, length, ok := rebuilt.Get(2)
	require.True(t, ok)
	require.EqualValues(t, 20, offset)
	require.EqualValues(t, 8, length)
}
