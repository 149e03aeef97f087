package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/custodia-labs/docdex/internal/core/domain"
	"github.com/custodia-labs/docdex/internal/core/ports/driven"
	"github.com/custodia-labs/docdex/internal/core/ports/driving"
	"github.com/custodia-labs/docdex/internal/logger"
)

// Ensure RAGService implements the interface.
var _ driving.AnswerService = (*RAGService)(nil)

// Pipeline defaults.
const (
	DefaultTopK         = 10
	DefaultAnswerTokens = 1024
	answerTemperature   = 0.1

	// snippetLen caps citation snippets.
	snippetLen = 300

	// contextBlocks is how many reranked hits feed the prompt.
	contextBlocks = 5

	// groundingThreshold separates sufficient from insufficient
	// evidence.
	groundingThreshold = 0.3
)

// groundingSystemPrompt constrains synthesis to the retrieved context.
const groundingSystemPrompt = `You are a documentation assistant. Answer using ONLY the provided context.
Rules:
- Every claim must be traceable to one of the numbered citations.
- Cite sources as [file, lines a-b] next to the claims they support.
- If the context does not contain the answer, say so explicitly.
- Do not use outside knowledge.`

// RAGService runs the retrieve, rerank, synthesize pipeline.
type RAGService struct {
	embedder driven.EmbeddingService
	store    driven.VectorStore
	reranker *RerankService
	llm      driven.LLMService
}

// NewRAGService creates the pipeline. The LLM is optional; without it
// answers are composed from citations.
func NewRAGService(embedder driven.EmbeddingService, store driven.VectorStore, reranker *RerankService, llm driven.LLMService) *RAGService {
	return &RAGService{embedder: embedder, store: store, reranker: reranker, llm: llm}
}

// Answer retrieves, reranks and synthesizes a grounded answer.
func (s *RAGService) Answer(ctx context.Context, req driving.AnswerRequest) (*domain.RAGResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	logger.Section("Grounded Answer")
	logger.Debug("Query: %q", query)

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	k := req.K
	if k <= 0 {
		k = DefaultTopK
	}
	hits, err := s.store.Search(ctx, embedding, k, driven.VectorFilter{
		Release: req.Filters.Release,
		DocType: singleDocType(req.Filters.DocTypes),
	})
	if err != nil {
		return nil, err
	}
	// Service is not a chunk field and the store takes one doc type, so
	// both filters are applied lexically to the retrieved chunks.
	if service := strings.ToLower(req.Filters.Service); service != "" || len(req.Filters.DocTypes) > 1 {
		var kept []domain.ChunkHit
		for _, hit := range hits {
			if service != "" && !strings.Contains(strings.ToLower(hit.Chunk.Heading+"\n"+hit.Chunk.Content), service) {
				continue
			}
			if len(req.Filters.DocTypes) > 1 && !slices.Contains(req.Filters.DocTypes, hit.Chunk.DocType) {
				continue
			}
			kept = append(kept, hit)
		}
		hits = kept
	}
	if len(hits) == 0 {
		return &domain.RAGResponse{
			Answer:               "No relevant documentation found for this query.",
			Citations:            []domain.Citation{},
			GroundingScore:       0,
			InsufficientEvidence: true,
			MissingTopics:        []string{query},
		}, nil
	}
	logger.Debug("Retrieved %d chunks", len(hits))

	ranked := s.reranker.Rerank(ctx, query, hits)

	citations := make([]domain.Citation, len(ranked))
	for i, r := range ranked {
		citations[i] = domain.Citation{
			File:      r.Hit.Chunk.File,
			Heading:   r.Hit.Chunk.Heading,
			LineStart: r.Hit.Chunk.LineStart,
			LineEnd:   r.Hit.Chunk.LineEnd,
			Snippet:   snippet(r.Hit.Chunk.Content, snippetLen),
			Relevance: r.RerankScore,
		}
	}

	answer := s.synthesize(ctx, query, ranked, citations, req.MaxTokens)

	response := &domain.RAGResponse{
		Answer:    answer,
		Citations: citations,
	}
	assessGrounding(response)
	return response, nil
}

// synthesize asks the LLM for a grounded answer, falling back to a
// citation summary when the LLM is unavailable or fails.
func (s *RAGService) synthesize(ctx context.Context, query string, ranked []domain.RankedHit, citations []domain.Citation, maxTokens int) string {
	if maxTokens <= 0 {
		maxTokens = DefaultAnswerTokens
	}

	if s.llm != nil {
		prompt := buildPrompt(query, ranked)
		answer, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
			MaxTokens:   maxTokens,
			Temperature: answerTemperature,
			System:      groundingSystemPrompt,
		})
		if err == nil {
			return answer
		}
		logger.Error("Generation failed, composing fallback answer: %v", err)
	}

	return fallbackAnswer(citations)
}

// buildPrompt labels the top reranked hits as numbered citation blocks.
func buildPrompt(query string, ranked []domain.RankedHit) string {
	var sb strings.Builder
	sb.WriteString("Context:\n\n")

	n := len(ranked)
	if n > contextBlocks {
		n = contextBlocks
	}
	for i := 0; i < n; i++ {
		chunk := ranked[i].Hit.Chunk
		fmt.Fprintf(&sb, "[Citation %d: %s, lines %d-%d]\n", i+1, chunk.File, chunk.LineStart, chunk.LineEnd)
		fmt.Fprintf(&sb, "Heading: %s\n", chunk.Heading)
		if chunk.Release != "" {
			fmt.Fprintf(&sb, "Release: %s\n", chunk.Release)
		}
		fmt.Fprintf(&sb, "Content:\n%s\n\n---\n\n", chunk.Content)
	}

	fmt.Fprintf(&sb, "Question: %s\n", query)
	return sb.String()
}

// fallbackAnswer composes a readable summary from the top citations.
func fallbackAnswer(citations []domain.Citation) string {
	var sb strings.Builder
	sb.WriteString("Based on the documentation:\n")

	n := len(citations)
	if n > 3 {
		n = 3
	}
	for i := 0; i < n; i++ {
		c := citations[i]
		fmt.Fprintf(&sb, "\n%s (%s, lines %d-%d):\n%s\n", c.Heading, c.File, c.LineStart, c.LineEnd, c.Snippet)
	}
	return sb.String()
}

// assessGrounding estimates how well the answer acknowledges its
// sources and flags insufficient evidence.
func assessGrounding(response *domain.RAGResponse) {
	answerLower := strings.ToLower(response.Answer)

	var score float64
	if strings.Contains(response.Answer, "[") || strings.Contains(answerLower, "lines") {
		score += 0.3
	}
	for _, c := range response.Citations {
		if c.Heading != "" && strings.Contains(answerLower, strings.ToLower(c.Heading)) {
			score += 0.2
		}
	}
	if score > 1 {
		score = 1
	}

	response.GroundingScore = score
	response.InsufficientEvidence = score < groundingThreshold
	if response.InsufficientEvidence && len(response.Citations) > 0 {
		response.MissingTopics = []string{"Additional context needed"}
	}
}

// snippet truncates text to at most n bytes.
func snippet(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[:n]
}

// singleDocType maps a one-element docTypes filter onto the store's
// equality predicate; Answer applies multi-type filters to the
// retrieved chunks.
func singleDocType(docTypes []string) string {
	if len(docTypes) == 1 {
		return docTypes[0]
	}
	return ""
}
