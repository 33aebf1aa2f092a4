package huffman_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jsonarc/jsonarc/bitfile"
	"github.com/jsonarc/jsonarc/errs"
	"github.com/jsonarc/jsonarc/huffman"
)

func corpusHistogram(chunks ...string) huffman.Histogram {
	var h huffman.Histogram
	for _, c := range chunks {
		h.Add([]byte(c))
	}

	return h
}

func TestBuildIsDeterministic(t *testing.T) {
	h := corpusHistogram("the quick brown fox jumps over the lazy dog", "the the the")

	t1, err := huffman.Build(h)
	require.NoError(t, err)
	t2, err := huffman.Build(h)
	require.NoError(t, err)

	for b := 0; b < 256; b++ {
		c1, ok1 := t1.Code(byte(b))
		c2, ok2 := t2.Code(byte(b))
		require.Equal(t, ok1, ok2)
		require.Equal(t, c1, c2)
	}
}

func TestBuildCoversByte255(t *testing.T) {
	var h huffman.Histogram
	h.Add([]byte{0, 255, 255, 1})

	table, err := huffman.Build(h)
	require.NoError(t, err)
	require.True(t, table.HasLetter(255))
}

func TestBuildRejectsEmptyCorpus(t *testing.T) {
	var h huffman.Histogram
	_, err := huffman.Build(h)
	require.ErrorIs(t, err, errs.ErrNullArg)
}

func TestSingleSymbolCorpusProducesSentinelOnlyCode(t *testing.T) {
	var h huffman.Histogram
	h.Add([]byte{'a', 'a', 'a'})

	table, err := huffman.Build(h)
	require.NoError(t, err)

	bits, ok := table.Code('a')
	require.True(t, ok)
	require.Equal(t, []bool{true}, bits)
}

func TestEncodeMissingLetterFails(t *testing.T) {
	h := corpusHistogram("abc")
	table, err := huffman.Build(h)
	require.NoError(t, err)

	f := bitfile.New()
	err = table.EncodeString(f, []byte("abz"))
	require.ErrorIs(t, err, errs.ErrHuffmanMissingLetter)
}

func TestEncodeDecodeStringRoundTrip(t *testing.T) {
	corpus := "the quick brown fox jumps over the lazy dog"
	h := corpusHistogram(corpus)
	table, err := huffman.Build(h)
	require.NoError(t, err)

	f := bitfile.New()
	require.NoError(t, table.EncodeString(f, []byte(corpus)))

	require.NoError(t, f.Seek(0))
	got, err := table.DecodeString(f, len(corpus))
	require.NoError(t, err)
	require.Equal(t, corpus, string(got))
}

func TestSerializeDeserializeTableRoundTrip(t *testing.T) {
	corpus := "mississippi river"
	h := corpusHistogram(corpus)
	table, err := huffman.Build(h)
	require.NoError(t, err)

	f := bitfile.New()
	require.NoError(t, table.Serialize(f))

	encodeStart := f.Pos()
	require.NoError(t, table.EncodeString(f, []byte(corpus)))

	require.NoError(t, f.Seek(0))
	rebuilt, err := huffman.Deserialize(f, len(table.Entries()))
	require.NoError(t, err)
	require.Equal(t, encodeStart, f.Pos())

	got, err := rebuilt.DecodeString(f, len(corpus))
	require.NoError(t, err)
	require.Equal(t, corpus, string(got))
}
