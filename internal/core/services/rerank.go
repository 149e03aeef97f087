package services

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/custodia-labs/docdex/internal/core/domain"
	"github.com/custodia-labs/docdex/internal/core/ports/driven"
	"github.com/custodia-labs/docdex/internal/logger"
)

// DefaultRerankTopK is how many candidates survive reranking.
const DefaultRerankTopK = 6

// RerankService re-orders retrieval candidates by cross-relevance.
// When disabled, candidates keep their retrieval scores; when enabled
// with no provider, or when the provider fails, a heuristic scorer
// ranks them.
type RerankService struct {
	provider driven.RerankProvider
	enabled  bool
	topK     int
}

// NewRerankService creates a rerank service. Provider may be nil.
func NewRerankService(provider driven.RerankProvider, enabled bool, topK int) *RerankService {
	if topK <= 0 {
		topK = DefaultRerankTopK
	}
	return &RerankService{provider: provider, enabled: enabled, topK: topK}
}

// Rerank scores hits against the query. Disabled or empty input passes
// through unsorted with the retrieval score as the rerank score.
func (s *RerankService) Rerank(ctx context.Context, query string, hits []domain.ChunkHit) []domain.RankedHit {
	if !s.enabled || len(hits) == 0 {
		out := make([]domain.RankedHit, len(hits))
		for i, hit := range hits {
			out[i] = domain.RankedHit{Hit: hit, RerankScore: hit.Score}
		}
		return out
	}

	if s.provider != nil {
		ranked, err := s.rerankWithProvider(ctx, query, hits)
		if err == nil {
			return ranked
		}
		logger.Error("Rerank provider failed, using heuristic: %v", err)
	}

	return s.rerankHeuristic(query, hits)
}

func (s *RerankService) rerankWithProvider(ctx context.Context, query string, hits []domain.ChunkHit) ([]domain.RankedHit, error) {
	documents := make([]string, len(hits))
	for i, hit := range hits {
		documents[i] = hit.Chunk.Content
	}

	results, err := s.provider.Rerank(ctx, query, documents, s.topK)
	if err != nil {
		return nil, err
	}

	used := make(map[int]bool, len(results))
	ranked := make([]domain.RankedHit, 0, s.topK)
	for _, res := range results {
		if res.Index < 0 || res.Index >= len(hits) || used[res.Index] {
			continue
		}
		used[res.Index] = true
		ranked = append(ranked, domain.RankedHit{Hit: hits[res.Index], RerankScore: res.Score})
	}

	// Provider returned fewer than topK: backfill from the remaining
	// inputs in original order with their own retrieval scores.
	for i, hit := range hits {
		if len(ranked) >= s.topK {
			break
		}
		if used[i] {
			continue
		}
		ranked = append(ranked, domain.RankedHit{Hit: hit, RerankScore: hit.Score})
	}
	return ranked, nil
}

// rerankHeuristic scores by phrase and term presence, discounted by
// content length.
func (s *RerankService) rerankHeuristic(query string, hits []domain.ChunkHit) []domain.RankedHit {
	ranked := make([]domain.RankedHit, len(hits))
	for i, hit := range hits {
		ranked[i] = domain.RankedHit{Hit: hit, RerankScore: HeuristicScore(query, hit.Chunk.Content)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].RerankScore > ranked[j].RerankScore })
	if len(ranked) > s.topK {
		ranked = ranked[:s.topK]
	}
	return ranked
}

// HeuristicScore is the mocked cross-relevance fallback: phrase and
// term hits divided by a log-length discount.
func HeuristicScore(query, content string) float64 {
	queryLower := strings.ToLower(query)
	contentLower := strings.ToLower(content)

	var score float64
	if strings.Contains(contentLower, queryLower) {
		score += 10
	}
	for _, term := range strings.Fields(queryLower) {
		if strings.Contains(contentLower, term) {
			score++
		}
	}

	discount := math.Log(float64(len(content))+1) / 10
	if discount == 0 {
		return score
	}
	return score / discount
}
