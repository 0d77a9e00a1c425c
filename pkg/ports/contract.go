package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UAlbertaALTLab/hfst-altlab/pkg/fst"
)

// RunAnalysisCacheContract runs a suite of tests to verify that an
// AnalysisCache implementation adheres to the interface contract.
func RunAnalysisCacheContract(t *testing.T, cache AnalysisCache) {
	ctx := context.Background()
	key := "contract-test-" + time.Now().Format("20060102150405")

	sample := []fst.Analysis{
		{Symbols: []string{"atim", "+N", "+A", "+Sg"}, Weight: 0},
		{Symbols: []string{"atimêw", "+V", "+TA", "+Imp", "+Imm", "+2Sg", "+3SgO"}, Weight: 1.5, Standardized: "atim"},
	}

	t.Run("Set and Get", func(t *testing.T) {
		err := cache.Set(ctx, key, sample)
		require.NoError(t, err, "Set should not return error")

		got, found, err := cache.Get(ctx, key)
		require.NoError(t, err, "Get should not return error")
		require.True(t, found, "Get after Set should hit")
		assert.Equal(t, sample, got)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, found, err := cache.Get(ctx, "absent-"+key)
		require.NoError(t, err)
		assert.False(t, found, "Get of an absent key should miss, not error")
	})

	t.Run("Empty Result Sets Are Values", func(t *testing.T) {
		emptyKey := key + "-empty"
		require.NoError(t, cache.Set(ctx, emptyKey, []fst.Analysis{}))

		got, found, err := cache.Get(ctx, emptyKey)
		require.NoError(t, err)
		assert.True(t, found, "an empty result set must round-trip as a hit")
		assert.Empty(t, got)
	})

	t.Run("Set Replaces", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, key, sample[:1]))

		got, found, err := cache.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, sample[:1], got)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, key, sample))
		require.NoError(t, cache.Delete(ctx, key))

		_, found, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, found, "Get after Delete should miss")

		assert.NoError(t, cache.Delete(ctx, "absent-"+key), "deleting an absent key is not an error")
	})
}
