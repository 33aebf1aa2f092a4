package pack_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jsonarc/jsonarc/bitfile"
	"github.com/jsonarc/jsonarc/errs"
	"github.com/jsonarc/jsonarc/pack"
)

func TestRegistryFlagBitsAreDistinct(t *testing.T) {
	seen := map[byte]bool{}
	for _, c := range pack.Registry() {
		require.False(t, seen[c.FlagBit()], "duplicate flag bit for %s", c.Name())
		seen[c.FlagBit()] = true
	}
}

func TestByFlagBitUnknown(t *testing.T) {
	_, err := pack.ByFlagBit(0xFF)
	require.ErrorIs(t, err, errs.ErrUnknownPackerType)
}

func TestByName(t *testing.T) {
	c, err := pack.ByName("lz4")
	require.NoError(t, err)
	require.Equal(t, pack.FlagLZ4, c.FlagBit())

	_, err = pack.ByName("bogus")
	require.ErrorIs(t, err, errs.ErrUnknownPackerType)
}

func strategies() []pack.Codec {
	return []pack.Codec{pack.NewNone(), pack.NewHuffman(), pack.NewZstd(), pack.NewLZ4()}
}

func TestEncodeDecodeRoundTripAllStrategies(t *testing.T) {
	corpus := []string{"alpha", "beta", "gamma delta epsilon", "alpha", ""}

	for _, c := range strategies() {
		t.Run(c.Name(), func(t *testing.T) {
			f := bitfile.New()

			require.NoError(t, c.WriteExtra(f, corpus))
			extraEnd := f.Pos()

			offsets := make([]int64, len(corpus))
			for i, s := range corpus {
				offsets[i] = f.Pos()
				require.NoError(t, c.EncodeString(f, s))
			}

			// Reader side: fresh codec instance reconstructs extra state.
			reader := c.Copy()
			require.NoError(t, f.Seek(0))
			require.NoError(t, reader.ReadExtra(f, int(extraEnd)))

			for i, s := range corpus {
				require.NoError(t, f.Seek(offsets[i]))
				got, err := reader.DecodeString(f, len(s))
				require.NoError(t, err)
				require.Equal(t, s, got)
			}
		})
	}
}
