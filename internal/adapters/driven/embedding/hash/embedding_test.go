package hash

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbed_Deterministic(t *testing.T) {
	svc := NewEmbeddingService(128)
	ctx := context.Background()

	first, err := svc.Embed(ctx, "the gateway routes requests")
	require.NoError(t, err)
	second, err := svc.Embed(ctx, "the gateway routes requests")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := svc.Embed(ctx, "a completely different sentence")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestEmbed_UnitNorm(t *testing.T) {
	svc := NewEmbeddingService(128)

	tests := []string{
		"short",
		"a much longer sentence with many repeated repeated words",
		"",
	}
	for _, text := range tests {
		vec, err := svc.Embed(context.Background(), text)
		require.NoError(t, err)
		require.Len(t, vec, 128)

		var norm float64
		for _, x := range vec {
			norm += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5, "text %q", text)
	}
}

func TestEmbedBatch_PreservesOrder(t *testing.T) {
	svc := NewEmbeddingService(64)
	ctx := context.Background()

	batch, err := svc.EmbedBatch(ctx, []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, batch, 2)

	alpha, err := svc.Embed(ctx, "alpha")
	require.NoError(t, err)
	beta, err := svc.Embed(ctx, "beta")
	require.NoError(t, err)
	assert.Equal(t, alpha, batch[0])
	assert.Equal(t, beta, batch[1])
}

func TestDimensions_Default(t *testing.T) {
	assert.Equal(t, DefaultDimensions, NewEmbeddingService(0).Dimensions())
	assert.Equal(t, 64, NewEmbeddingService(64).Dimensions())
}
