package oid_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jsonarc/jsonarc/errs"
	"github.com/jsonarc/jsonarc/internal/oid"
)

func TestNewProducesUniqueIDsWithinAGenerator(t *testing.T) {
	g := oid.NewGenerator()

	seen := make(map[uint64]bool)
	for i := 0; i < 1000; i++ {
		id, err := g.New()
		require.NoError(t, err)
		require.False(t, seen[id], "duplicate oid minted")
		seen[id] = true
	}
}

func TestNewAcrossGeneratorsDoesNotCollide(t *testing.T) {
	g1 := oid.NewGenerator()
	g2 := oid.NewGenerator()

	seen := make(map[uint64]bool)
	for i := 0; i < 200; i++ {
		id1, err := g1.New()
		require.NoError(t, err)
		id2, err := g2.New()
		require.NoError(t, err)

		require.False(t, seen[id1])
		require.False(t, seen[id2])
		seen[id1] = true
		seen[id2] = true
	}
}

func TestGeneratorExhaustion(t *testing.T) {
	g := oid.NewGenerator()
	for i := 0; i <= 1<<8; i++ {
		_, err := g.New()
		if err != nil {
			require.ErrorIs(t, err, errs.ErrThreadOutOfOIDs)
			return
		}
	}
	t.Fatal("expected generator to exhaust its counter space")
}
