// Package hash provides a deterministic embedding fallback for
// environments without a credentialed provider. Vectors are derived
// from token hashes and are unit-norm, so cosine search still behaves
// sensibly for exact and near-exact text, but semantic quality is far
// below a real model. Strictly a fallback.
package hash

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/custodia-labs/docdex/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultDimensions matches the common small-model width.
const DefaultDimensions = 768

// EmbeddingService is a deterministic hashing embedder.
type EmbeddingService struct {
	dims int
}

// NewEmbeddingService creates a hashing embedder of the given width.
func NewEmbeddingService(dims int) *EmbeddingService {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &EmbeddingService{dims: dims}
}

// Embed maps each whitespace token into a bucket by FNV hash and
// normalizes the resulting frequency vector to unit length.
func (s *EmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, s.dims)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(token))
		sum := h.Sum32()
		vec[int(sum)%s.dims] += 1
		// A second bucket per token reduces collisions.
		vec[int(sum>>16)%s.dims] += 0.5
	}

	var norm float64
	for _, x := range vec {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		vec[0] = 1
		return vec, nil
	}
	scale := 1 / math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) * scale)
	}
	return vec, nil
}

// EmbedBatch embeds each text in order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dims
}

// ModelName returns the fallback model identifier.
func (s *EmbeddingService) ModelName() string {
	return "hash-fallback"
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
