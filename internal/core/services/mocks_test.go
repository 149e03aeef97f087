package services

import (
	"context"

	"github.com/custodia-labs/docdex/internal/core/domain"
	"github.com/custodia-labs/docdex/internal/core/ports/driven"
)

// mockEmbedder is a mock implementation of driven.EmbeddingService.
type mockEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	m.calls++
	return m.vector, m.err
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = m.vector
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int   { return len(m.vector) }
func (m *mockEmbedder) ModelName() string { return "mock-embedder" }
func (m *mockEmbedder) Close() error      { return nil }

// mockVectorStore is a mock implementation of driven.VectorStore.
type mockVectorStore struct {
	hits      []domain.ChunkHit
	searchErr error
	upserted  []domain.Chunk
	deleted   []driven.VectorFilter
}

func (m *mockVectorStore) Connect(_ context.Context) error { return nil }

func (m *mockVectorStore) Upsert(_ context.Context, chunks []domain.Chunk, _ [][]float32) error {
	m.upserted = append(m.upserted, chunks...)
	return nil
}

func (m *mockVectorStore) Search(_ context.Context, _ []float32, _ int, _ driven.VectorFilter) ([]domain.ChunkHit, error) {
	return m.hits, m.searchErr
}

func (m *mockVectorStore) Delete(_ context.Context, filter driven.VectorFilter) error {
	m.deleted = append(m.deleted, filter)
	return nil
}

func (m *mockVectorStore) Count(_ context.Context) (int64, error) {
	return int64(len(m.upserted)), nil
}

func (m *mockVectorStore) Close() error { return nil }

// mockLLM is a mock implementation of driven.LLMService.
type mockLLM struct {
	answer string
	err    error
	prompt string
	system string
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.prompt = prompt
	m.system = opts.System
	return m.answer, m.err
}

func (m *mockLLM) ModelName() string { return "mock-llm" }
func (m *mockLLM) Close() error      { return nil }

// mockRerankProvider is a mock implementation of driven.RerankProvider.
type mockRerankProvider struct {
	results []driven.RerankResult
	err     error
}

func (m *mockRerankProvider) Rerank(_ context.Context, _ string, _ []string, _ int) ([]driven.RerankResult, error) {
	return m.results, m.err
}

func (m *mockRerankProvider) ModelName() string { return "mock-reranker" }
