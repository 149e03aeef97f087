package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/docdex/internal/core/domain"
	"github.com/custodia-labs/docdex/internal/core/ports/driving"
	"github.com/custodia-labs/docdex/internal/corpus"
	"github.com/custodia-labs/docdex/internal/facts"
	"github.com/custodia-labs/docdex/internal/search/querycache"
)

// Ensure CorpusService implements the interface.
var _ driving.CorpusService = (*CorpusService)(nil)

// compareSectionLimit caps per-release sections in a comparison.
const compareSectionLimit = 3

// arrowEdgeRe matches "A -> B" dependency edges in section text.
var arrowEdgeRe = regexp.MustCompile(`([A-Za-z0-9_.-]+)\s*(?:->|→)\s*([A-Za-z0-9_.-]+)`)

// CorpusService provides cache maintenance and cross-release analysis.
type CorpusService struct {
	root       string
	index      *corpus.IndexCache
	factCache  *facts.Cache
	queryCache *querycache.Cache
}

// NewCorpusService creates a corpus service for the configured root.
func NewCorpusService(root string, index *corpus.IndexCache, factCache *facts.Cache, queryCache *querycache.Cache) *CorpusService {
	return &CorpusService{root: root, index: index, factCache: factCache, queryCache: queryCache}
}

// Refresh invalidates every cache for the root. The next request
// observes a freshly built index.
func (s *CorpusService) Refresh(_ context.Context) error {
	s.index.Invalidate(s.root)
	s.factCache.Invalidate(s.root)
	s.queryCache.Clear()
	return nil
}

// CompareReleases summarizes how a feature is documented per release,
// releases sorted ascending by numeric component.
func (s *CorpusService) CompareReleases(ctx context.Context, feature string, releases []string) ([]driving.ReleaseSummary, error) {
	feature = strings.TrimSpace(feature)
	if feature == "" {
		return nil, fmt.Errorf("%w: empty feature", domain.ErrInvalidInput)
	}

	index, err := s.index.Get(s.root, corpus.GetOptions{})
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(releases))
	for _, r := range releases {
		wanted[r] = true
	}

	present := make(map[string]bool)
	for _, section := range index.Sections {
		if len(wanted) > 0 && !wanted[section.Release] {
			continue
		}
		present[section.Release] = true
	}

	ordered := make([]string, 0, len(present))
	for release := range present {
		ordered = append(ordered, release)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return releaseNumber(ordered[i]) < releaseNumber(ordered[j])
	})

	summaries := make([]driving.ReleaseSummary, 0, len(ordered))
	for _, release := range ordered {
		hits := Score(index.Sections, feature,
			domain.SearchFilters{Release: release}, compareSectionLimit)

		summary := driving.ReleaseSummary{Release: release}
		for _, hit := range hits {
			summary.Sections = append(summary.Sections, driving.SectionSummary{
				File:    hit.Section.File,
				Heading: hit.Section.Heading,
				Snippet: snippet(hit.Section.Content, snippetLen),
				Score:   hit.Score,
			})
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// ServiceDependencies scans one release's sections for arrow edges
// involving the service and returns inbound and outbound neighbours.
func (s *CorpusService) ServiceDependencies(ctx context.Context, service, release string, includeDataFlow bool) (*driving.ServiceDeps, error) {
	service = strings.TrimSpace(service)
	if service == "" {
		return nil, fmt.Errorf("%w: empty service", domain.ErrInvalidInput)
	}

	index, err := s.index.Get(s.root, corpus.GetOptions{})
	if err != nil {
		return nil, err
	}

	deps := &driving.ServiceDeps{Service: service, Release: release}
	serviceLower := strings.ToLower(service)
	inbound := make(map[string]bool)
	outbound := make(map[string]bool)

	for _, section := range index.Sections {
		if release != "" && section.Release != release {
			continue
		}
		for _, line := range strings.Split(section.Content, "\n") {
			if !strings.Contains(strings.ToLower(line), serviceLower) {
				continue
			}
			matchedEdge := false
			for _, m := range arrowEdgeRe.FindAllStringSubmatch(line, -1) {
				from, to := m[1], m[2]
				switch {
				case strings.EqualFold(from, service) && !strings.EqualFold(to, service):
					outbound[to] = true
					matchedEdge = true
				case strings.EqualFold(to, service) && !strings.EqualFold(from, service):
					inbound[from] = true
					matchedEdge = true
				}
			}
			if includeDataFlow && matchedEdge {
				deps.DataFlow = append(deps.DataFlow, strings.TrimSpace(line))
			}
		}
	}

	deps.Inbound = sortedKeys(inbound)
	deps.Outbound = sortedKeys(outbound)
	return deps, nil
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// releaseNumber extracts the numeric component of a release token.
func releaseNumber(release string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(release, "R"))
	if err != nil {
		return 0
	}
	return n
}
