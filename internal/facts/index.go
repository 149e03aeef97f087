package facts

import (
	"fmt"
	"sync"

	"github.com/custodia-labs/docdex/internal/core/domain"
	"github.com/custodia-labs/docdex/internal/corpus"
	"github.com/custodia-labs/docdex/internal/logger"
)

// Index groups facts by normalized (subject, predicate) key, then by
// canonical object value, then occurrences.
type Index struct {
	byKey map[string]map[string][]domain.Fact
}

// NewIndex creates an empty fact index.
func NewIndex() *Index {
	return &Index{byKey: make(map[string]map[string][]domain.Fact)}
}

// Insert adds a fact, appending to its occurrence list.
func (x *Index) Insert(fact domain.Fact) {
	values, ok := x.byKey[fact.NormalizedKey]
	if !ok {
		values = make(map[string][]domain.Fact)
		x.byKey[fact.NormalizedKey] = values
	}
	values[fact.CanonicalObject] = append(values[fact.CanonicalObject], fact)
}

// Len returns the number of distinct (key, object) groups.
func (x *Index) Len() int {
	n := 0
	for _, values := range x.byKey {
		n += len(values)
	}
	return n
}

// FindDuplicates returns, for each input fact, every existing fact that
// shares its full canonical triple.
func (x *Index) FindDuplicates(incoming []domain.Fact) []domain.Duplicate {
	var out []domain.Duplicate
	for _, fact := range incoming {
		values, ok := x.byKey[fact.NormalizedKey]
		if !ok {
			continue
		}
		for _, existing := range values[fact.CanonicalObject] {
			out = append(out, domain.Duplicate{Existing: existing, Duplicate: fact})
		}
	}
	return out
}

// FindConflicts returns, for each input fact, every existing fact that
// shares its key but disagrees on the canonical object.
func (x *Index) FindConflicts(incoming []domain.Fact) []domain.Conflict {
	var out []domain.Conflict
	for _, fact := range incoming {
		values, ok := x.byKey[fact.NormalizedKey]
		if !ok {
			continue
		}
		for object, existingFacts := range values {
			if object == fact.CanonicalObject {
				continue
			}
			for _, existing := range existingFacts {
				out = append(out, domain.Conflict{
					Existing:    existing,
					Conflicting: fact,
					Reason: fmt.Sprintf("%q conflicts with existing value %q for %s",
						fact.Object, existing.Object, fact.NormalizedKey),
				})
			}
		}
	}
	return out
}

// Cache builds and caches fact indexes per corpus root.
type Cache struct {
	docs      *corpus.IndexCache
	extractor *Extractor

	mu      sync.Mutex
	entries map[string]*Index
}

// NewCache creates a fact index cache backed by the corpus index.
func NewCache(docs *corpus.IndexCache, extractor *Extractor) *Cache {
	return &Cache{
		docs:      docs,
		extractor: extractor,
		entries:   make(map[string]*Index),
	}
}

// Get returns the fact index for root, building it on first use.
func (c *Cache) Get(root string) (*Index, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index, ok := c.entries[root]; ok {
		return index, nil
	}

	docIndex, err := c.docs.Get(root, corpus.GetOptions{})
	if err != nil {
		return nil, err
	}

	index := NewIndex()
	total := 0
	for _, section := range docIndex.Sections {
		extracted := c.extractor.ExtractFromMarkdown(
			section.Content, section.File, section.Heading, section.LineStart+1)
		for _, fact := range extracted {
			index.Insert(fact)
		}
		total += len(extracted)
	}
	logger.Debug("Built fact index for %s: %d facts", root, total)

	c.entries[root] = index
	return index, nil
}

// Invalidate drops the cached fact index for root.
func (c *Cache) Invalidate(root string) {
	c.mu.Lock()
	delete(c.entries, root)
	c.mu.Unlock()
}
