package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/docdex/internal/core/domain"
	"github.com/custodia-labs/docdex/internal/core/ports/driving"
	"github.com/custodia-labs/docdex/internal/corpus"
	"github.com/custodia-labs/docdex/internal/logger"
	"github.com/custodia-labs/docdex/internal/search/querycache"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// DefaultMaxResults caps search hits when the caller does not.
const DefaultMaxResults = 5

// domainKeywords earn a one-time bonus when present in both the query
// and the section.
var domainKeywords = []string{
	"implementation", "architecture", "flow", "diagram",
	"example", "interface", "contract", "specification",
}

// Scoring bonuses.
const (
	bonusHeadingPhrase = 100
	bonusContentPhrase = 50
	bonusHeadingTerm   = 10
	bonusContentTerm   = 5
	bonusKeyword       = 15
)

// SearchService scores corpus sections lexically, with results cached
// per (fingerprint, query, filters).
type SearchService struct {
	root  string
	index *corpus.IndexCache
	cache *querycache.Cache
}

// NewSearchService creates a search service over the configured root.
func NewSearchService(root string, index *corpus.IndexCache, cache *querycache.Cache) *SearchService {
	return &SearchService{root: root, index: index, cache: cache}
}

// Search scores sections against the query and returns the top hits.
// Concurrent identical queries share one execution via the cache.
func (s *SearchService) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SectionHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	index, err := s.index.Get(s.root, corpus.GetOptions{})
	if err != nil {
		return nil, err
	}
	if len(index.Sections) == 0 {
		return nil, fmt.Errorf("%w: corpus has no sections", domain.ErrNotFound)
	}

	key := querycache.Key(index.Fingerprint, query, opts.Filters, maxResults)
	return s.cache.Get(key, func() ([]domain.SectionHit, error) {
		logger.Section("Lexical Search")
		logger.Debug("Query: %q", query)
		hits := Score(index.Sections, query, opts.Filters, maxResults)
		logger.Debug("Hits: %d", len(hits))
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return hits, nil
	})
}

// InvalidateFingerprint drops cached results for a superseded corpus
// fingerprint.
func (s *SearchService) InvalidateFingerprint(fingerprint string) {
	s.cache.InvalidateFingerprint(fingerprint)
}

// Score ranks sections against a free-text query. Ties preserve source
// order; only positive scores are returned.
func Score(sections []domain.Section, query string, filters domain.SearchFilters, maxResults int) []domain.SectionHit {
	queryLower := strings.ToLower(query)
	terms := queryTerms(queryLower)

	docTypes := make(map[string]bool, len(filters.DocTypes))
	for _, dt := range filters.DocTypes {
		docTypes[dt] = true
	}
	serviceLower := strings.ToLower(filters.Service)

	var hits []domain.SectionHit
	for _, section := range sections {
		if filters.Release != "" && section.Release != filters.Release {
			continue
		}
		if len(docTypes) > 0 && !docTypes[section.DocType] {
			continue
		}
		headingLower := strings.ToLower(section.Heading)
		contentLower := strings.ToLower(section.Content)
		if serviceLower != "" &&
			!strings.Contains(headingLower, serviceLower) &&
			!strings.Contains(contentLower, serviceLower) {
			continue
		}

		score, reasons := scoreSection(headingLower, contentLower, queryLower, terms)
		if score > 0 {
			hits = append(hits, domain.SectionHit{Section: section, Score: score, MatchReasons: reasons})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}
	return hits
}

func scoreSection(headingLower, contentLower, queryLower string, terms []string) (float64, []string) {
	var score float64
	var reasons []string

	if strings.Contains(headingLower, queryLower) {
		score += bonusHeadingPhrase
		reasons = append(reasons, "Exact match in heading")
	}
	if strings.Contains(contentLower, queryLower) {
		score += bonusContentPhrase
		reasons = append(reasons, "Exact match in content")
	}

	headingTerms, contentTerms := 0, 0
	for _, term := range terms {
		if strings.Contains(headingLower, term) {
			score += bonusHeadingTerm
			headingTerms++
		}
		if strings.Contains(contentLower, term) {
			score += bonusContentTerm
			contentTerms++
		}
	}
	if headingTerms > 0 {
		reasons = append(reasons, fmt.Sprintf("%d terms in heading", headingTerms))
	}
	if contentTerms > 0 {
		reasons = append(reasons, fmt.Sprintf("%d terms in content", contentTerms))
	}

	for _, keyword := range domainKeywords {
		if strings.Contains(queryLower, keyword) &&
			(strings.Contains(headingLower, keyword) || strings.Contains(contentLower, keyword)) {
			score += bonusKeyword
			reasons = append(reasons, fmt.Sprintf("Keyword match: %s", keyword))
			break
		}
	}

	return score, reasons
}

// queryTerms returns lowercased whitespace-split terms longer than two
// characters.
func queryTerms(queryLower string) []string {
	var terms []string
	for _, term := range strings.Fields(queryLower) {
		if len(term) > 2 {
			terms = append(terms, term)
		}
	}
	return terms
}
