package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-path/internal/llm"
)

func TestCacheKey(t *testing.T) {
	base := CacheKey("text-embedding-004", llm.TaskRetrievalQuery, "python")

	assert.Equal(t, base, CacheKey("text-embedding-004", llm.TaskRetrievalQuery, "python"))
	assert.NotEqual(t, base, CacheKey("text-embedding-005", llm.TaskRetrievalQuery, "python"))
	assert.NotEqual(t, base, CacheKey("text-embedding-004", llm.TaskRetrievalDocument, "python"))
	assert.NotEqual(t, base, CacheKey("text-embedding-004", llm.TaskRetrievalQuery, "python "))
	assert.Len(t, base, 64)
}

func TestMemoryCache_CopiesVectors(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	vec := []float32{1, 2, 3}
	require.NoError(t, cache.Set(ctx, "k", vec))
	vec[0] = 99

	got, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, got)

	got[1] = 42
	again, _, _ := cache.Get(ctx, "k")
	assert.Equal(t, []float32{1, 2, 3}, again)

	_, ok, err = cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVectorCodec(t *testing.T) {
	vec := []float32{0, -1.5, float32(math.Pi), math.SmallestNonzeroFloat32, math.MaxFloat32}

	decoded, err := decodeVector(encodeVector(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, decoded)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}
