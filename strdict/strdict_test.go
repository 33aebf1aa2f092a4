package strdict_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jsonarc/jsonarc/errs"
	"github.com/jsonarc/jsonarc/strdict"
)

func TestSyncInsertIsIdempotent(t *testing.T) {
	d := strdict.NewSync(16, 0.01)

	sids1, err := d.Insert([]string{"a", "b", "a", "c"})
	require.NoError(t, err)
	require.Equal(t, sids1[0], sids1[2])
	require.NotEqual(t, sids1[0], sids1[1])

	sids2, err := d.Insert([]string{"a"})
	require.NoError(t, err)
	require.Equal(t, sids1[0], sids2[0])

	require.Equal(t, 3, d.NumDistinct())
}

func TestSyncLocateSafe(t *testing.T) {
	d := strdict.NewSync(16, 0.01)
	_, err := d.Insert([]string{"a", "b"})
	require.NoError(t, err)

	sids, found, notFound, err := d.LocateSafe([]string{"a", "z", "b"})
	require.NoError(t, err)
	require.Equal(t, []bool{true, false, true}, found)
	require.Equal(t, 1, notFound)
	require.Equal(t, strdict.NullSid, sids[1])
}

func TestSyncExtractNullSid(t *testing.T) {
	d := strdict.NewSync(4, 0.01)
	strs, err := d.Extract([]uint64{strdict.NullSid})
	require.NoError(t, err)
	require.Equal(t, []string{strdict.NullString}, strs)
}

func TestSyncExtractNotFound(t *testing.T) {
	d := strdict.NewSync(4, 0.01)
	_, err := d.Extract([]uint64{99})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestSyncRemoveFreesSlotForReuse(t *testing.T) {
	d := strdict.NewSync(4, 0.01)
	sids, err := d.Insert([]string{"a"})
	require.NoError(t, err)

	require.NoError(t, d.Remove(sids))
	require.Equal(t, 0, d.NumDistinct())

	sids2, err := d.Insert([]string{"b"})
	require.NoError(t, err)
	require.Equal(t, sids[0], sids2[0]) // slot reused
}

func TestShardedInsertAndExtractRoundTrip(t *testing.T) {
	d, err := strdict.NewSharded(4, 16, 0.01)
	require.NoError(t, err)

	keys := []string{"alpha", "beta", "gamma", "delta", "alpha", "epsilon"}
	sids, err := d.Insert(keys)
	require.NoError(t, err)
	require.Equal(t, sids[0], sids[4]) // duplicate key, same sid

	strs, err := d.Extract(sids)
	require.NoError(t, err)
	require.Equal(t, keys, strs)
}

func TestShardedLocateSafe(t *testing.T) {
	d, err := strdict.NewSharded(3, 16, 0.01)
	require.NoError(t, err)

	_, err = d.Insert([]string{"x", "y", "z"})
	require.NoError(t, err)

	sids, found, notFound, err := d.LocateSafe([]string{"x", "missing", "z"})
	require.NoError(t, err)
	require.Equal(t, []bool{true, false, true}, found)
	require.Equal(t, 1, notFound)
	require.Equal(t, strdict.NullSid, sids[1])
}

func TestShardedRemoveDropsEntry(t *testing.T) {
	d, err := strdict.NewSharded(2, 16, 0.01)
	require.NoError(t, err)

	sids, err := d.Insert([]string{"a", "b"})
	require.NoError(t, err)

	require.NoError(t, d.Remove(sids[:1]))
	require.Equal(t, 1, d.NumDistinct())

	_, err = d.Extract(sids[:1])
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestNewShardedRejectsOutOfRangeCount(t *testing.T) {
	_, err := strdict.NewSharded(0, 16, 0.01)
	require.ErrorIs(t, err, errs.ErrShardOutOfRange)

	_, err = strdict.NewSharded(2000, 16, 0.01)
	require.ErrorIs(t, err, errs.ErrShardOutOfRange)
}
