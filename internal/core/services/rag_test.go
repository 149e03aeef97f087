package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docdex/internal/core/domain"
	"github.com/custodia-labs/docdex/internal/core/ports/driving"
)

func ragFixture(store *mockVectorStore, llm *mockLLM) *RAGService {
	embedder := &mockEmbedder{vector: []float32{1, 0, 0}}
	rerank := NewRerankService(nil, false, 6)
	if llm == nil {
		return NewRAGService(embedder, store, rerank, nil)
	}
	return NewRAGService(embedder, store, rerank, llm)
}

func storedChunk(id, heading, content string, lineStart, lineEnd int) domain.ChunkHit {
	return domain.ChunkHit{
		Chunk: domain.Chunk{
			ID: id, File: "R1-ARCHITECTURE.md", Release: "R1",
			DocType: "ARCHITECTURE", Heading: heading, Content: content,
			LineStart: lineStart, LineEnd: lineEnd,
		},
		Score: 0.8,
	}
}

func TestAnswer_EmptyQueryFailsFast(t *testing.T) {
	store := &mockVectorStore{}
	svc := ragFixture(store, nil)

	_, err := svc.Answer(context.Background(), driving.AnswerRequest{Query: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAnswer_NoHitsIsInsufficient(t *testing.T) {
	store := &mockVectorStore{}
	svc := ragFixture(store, nil)

	response, err := svc.Answer(context.Background(), driving.AnswerRequest{Query: "unknown topic"})
	require.NoError(t, err)

	assert.Equal(t, "No relevant documentation found for this query.", response.Answer)
	assert.Empty(t, response.Citations)
	assert.Equal(t, float64(0), response.GroundingScore)
	assert.True(t, response.InsufficientEvidence)
	assert.Equal(t, []string{"unknown topic"}, response.MissingTopics)
}

func TestAnswer_CitationsFromRankedHits(t *testing.T) {
	store := &mockVectorStore{hits: []domain.ChunkHit{
		storedChunk("c1", "Gateway design", "Gateway design\n\nThe gateway routes requests.", 3, 9),
	}}
	llm := &mockLLM{answer: "The gateway design routes requests [R1-ARCHITECTURE.md, lines 3-9]."}
	svc := ragFixture(store, llm)

	response, err := svc.Answer(context.Background(), driving.AnswerRequest{Query: "how does routing work"})
	require.NoError(t, err)

	require.Len(t, response.Citations, 1)
	citation := response.Citations[0]
	assert.Equal(t, "R1-ARCHITECTURE.md", citation.File)
	assert.Equal(t, "Gateway design", citation.Heading)
	assert.Equal(t, 3, citation.LineStart)
	assert.Equal(t, 9, citation.LineEnd)
	assert.Equal(t, 0.8, citation.Relevance)

	// Bracket citation plus echoed heading grounds the answer.
	assert.InDelta(t, 0.5, response.GroundingScore, 1e-9)
	assert.False(t, response.InsufficientEvidence)
}

func TestAnswer_PromptCarriesContextBlocks(t *testing.T) {
	store := &mockVectorStore{hits: []domain.ChunkHit{
		storedChunk("c1", "Gateway design", "Gateway design\n\nrouting details", 3, 9),
	}}
	llm := &mockLLM{answer: "ok"}
	svc := ragFixture(store, llm)

	_, err := svc.Answer(context.Background(), driving.AnswerRequest{Query: "routing"})
	require.NoError(t, err)

	assert.Contains(t, llm.prompt, "[Citation 1: R1-ARCHITECTURE.md, lines 3-9]")
	assert.Contains(t, llm.prompt, "Heading: Gateway design")
	assert.Contains(t, llm.prompt, "Release: R1")
	assert.Contains(t, llm.prompt, "Question: routing")
	assert.Contains(t, llm.system, "traceable")
}

func TestAnswer_LLMFailureFallsBackToCitations(t *testing.T) {
	store := &mockVectorStore{hits: []domain.ChunkHit{
		storedChunk("c1", "Gateway design", "Gateway design\n\nrouting details", 3, 9),
	}}
	llm := &mockLLM{err: errors.New("provider down")}
	svc := ragFixture(store, llm)

	response, err := svc.Answer(context.Background(), driving.AnswerRequest{Query: "routing"})
	require.NoError(t, err)

	assert.Contains(t, response.Answer, "Gateway design")
	assert.Contains(t, response.Answer, "lines 3-9")
	require.NotEmpty(t, response.Citations)
}

func TestAnswer_NoLLMUsesFallback(t *testing.T) {
	store := &mockVectorStore{hits: []domain.ChunkHit{
		storedChunk("c1", "Gateway design", "Gateway design\n\nrouting details", 3, 9),
	}}
	svc := ragFixture(store, nil)

	response, err := svc.Answer(context.Background(), driving.AnswerRequest{Query: "routing"})
	require.NoError(t, err)
	assert.Contains(t, response.Answer, "Based on the documentation:")
}

func TestAnswer_IrrelevantAnswerIsInsufficient(t *testing.T) {
	store := &mockVectorStore{hits: []domain.ChunkHit{
		storedChunk("c1", "Unrelated topic", "Unrelated topic\n\nnothing about the query", 1, 4),
	}}
	llm := &mockLLM{answer: "I cannot find anything relevant."}
	svc := ragFixture(store, llm)

	response, err := svc.Answer(context.Background(), driving.AnswerRequest{Query: "completely different subject"})
	require.NoError(t, err)

	assert.Less(t, response.GroundingScore, 0.3)
	assert.True(t, response.InsufficientEvidence)
	assert.NotEmpty(t, response.Citations)
	assert.Equal(t, []string{"Additional context needed"}, response.MissingTopics)
}

func TestAnswer_SnippetTruncated(t *testing.T) {
	long := strings.Repeat("x", 500)
	store := &mockVectorStore{hits: []domain.ChunkHit{
		storedChunk("c1", "Long section", long, 1, 40),
	}}
	svc := ragFixture(store, &mockLLM{answer: "ok"})

	response, err := svc.Answer(context.Background(), driving.AnswerRequest{Query: "anything"})
	require.NoError(t, err)
	require.NotEmpty(t, response.Citations)
	assert.Len(t, response.Citations[0].Snippet, 300)
}
