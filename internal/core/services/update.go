package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docdex/internal/core/domain"
	"github.com/custodia-labs/docdex/internal/core/ports/driving"
	"github.com/custodia-labs/docdex/internal/corpus"
	"github.com/custodia-labs/docdex/internal/facts"
	"github.com/custodia-labs/docdex/internal/logger"
	"github.com/custodia-labs/docdex/internal/search/querycache"
)

// Ensure UpdateAgent implements the interface.
var _ driving.UpdateService = (*UpdateAgent)(nil)

// DefaultRelease prefixes inferred targets when the intent names none.
const DefaultRelease = "R1"

// targetKeywords maps intent keywords to document types, checked in
// order.
var targetKeywords = []struct {
	keyword string
	docType string
}{
	{"architecture", "ARCHITECTURE"},
	{"service", "SERVICE_CONTRACTS"},
	{"config", "CONFIGURATION"},
	{"migration", "MIGRATION_NOTES"},
}

// fallbackDocType receives intents matching no keyword.
const fallbackDocType = "NOTES"

// UpdateAgent proposes and applies corpus edits with fact-level
// preflight. Writes are atomic and always followed by cache
// invalidation and lifecycle events.
type UpdateAgent struct {
	root       string
	index      *corpus.IndexCache
	factCache  *facts.Cache
	extractor  *facts.Extractor
	queryCache *querycache.Cache
	now        func() time.Time

	mu       sync.Mutex
	handlers []func(domain.DocEvent)
}

// NewUpdateAgent creates an update agent for the given root.
func NewUpdateAgent(root string, index *corpus.IndexCache, factCache *facts.Cache, extractor *facts.Extractor, queryCache *querycache.Cache) *UpdateAgent {
	return &UpdateAgent{
		root:       root,
		index:      index,
		factCache:  factCache,
		extractor:  extractor,
		queryCache: queryCache,
		now:        time.Now,
	}
}

// OnEvent registers a lifecycle event handler. Handlers run inline on
// the applying goroutine, doc_* events always before reindex_triggered.
func (a *UpdateAgent) OnEvent(handler func(domain.DocEvent)) {
	a.mu.Lock()
	a.handlers = append(a.handlers, handler)
	a.mu.Unlock()
}

// SuggestUpdate infers a target, generates a diff and runs the
// fact-level preflight. The suggestion is blocked when the diff
// conflicts with facts already in the corpus.
func (a *UpdateAgent) SuggestUpdate(ctx context.Context, intent domain.UpdateIntent) (*domain.UpdateSuggestion, error) {
	if strings.TrimSpace(intent.Intent) == "" {
		return nil, fmt.Errorf("%w: empty intent", domain.ErrInvalidInput)
	}

	targetPath, rationale := a.resolveTarget(intent)

	action := domain.ActionCreate
	if _, err := os.Stat(targetPath); err == nil {
		action = domain.ActionUpdate
	}

	diff := a.buildDiff(action, intent)

	suggestion := &domain.UpdateSuggestion{
		ID:         uuid.New().String(),
		Action:     action,
		TargetPath: targetPath,
		Diff:       diff,
		Rationale:  rationale,
		Citations:  a.relatedSections(intent.Intent),
	}

	incoming := a.extractor.ExtractFromDiff(diff, filepath.Base(targetPath))
	if len(incoming) > 0 {
		factIndex, err := a.factCache.Get(a.root)
		if err != nil {
			// A failed preflight lookup does not block the write; the
			// apply path re-checks.
			logger.Warn("Fact preflight unavailable: %v", err)
		} else {
			suggestion.Duplicates = factIndex.FindDuplicates(incoming)
			suggestion.Conflicts = factIndex.FindConflicts(incoming)
		}
	}
	suggestion.Blocked = len(suggestion.Conflicts) > 0

	logger.Debug("Suggestion %s: %s %s (%d duplicates, %d conflicts)",
		suggestion.ID, action, targetPath, len(suggestion.Duplicates), len(suggestion.Conflicts))
	return suggestion, nil
}

// ApplyUpdate re-checks conflicts and applies the suggestion. Writes
// are atomic: the target reflects the full new content and caches are
// invalidated, or nothing changes.
func (a *UpdateAgent) ApplyUpdate(ctx context.Context, suggestion domain.UpdateSuggestion, force bool) (*domain.UpdateResult, error) {
	incoming := a.extractor.ExtractFromDiff(suggestion.Diff, filepath.Base(suggestion.TargetPath))
	if len(incoming) > 0 && !force {
		factIndex, err := a.factCache.Get(a.root)
		if err != nil {
			logger.Warn("Fact re-check unavailable: %v", err)
		} else if conflicts := factIndex.FindConflicts(incoming); len(conflicts) > 0 {
			return &domain.UpdateResult{
				Status: "error",
				Path:   suggestion.TargetPath,
				Error: fmt.Sprintf("Conflicting facts detected (%d). Use force=true to override.",
					len(conflicts)),
			}, nil
		}
	}

	// Snapshot the fingerprint before the write so stale query cache
	// entries can be dropped afterwards.
	var staleFingerprint string
	if index, err := a.index.Get(a.root, corpus.GetOptions{}); err == nil {
		staleFingerprint = index.Fingerprint
	}

	var event domain.DocEventKind
	switch suggestion.Action {
	case domain.ActionCreate:
		if err := os.MkdirAll(filepath.Dir(suggestion.TargetPath), 0755); err != nil {
			return &domain.UpdateResult{Status: "error", Path: suggestion.TargetPath, Error: err.Error()}, nil
		}
		if err := atomicWrite(suggestion.TargetPath, []byte(suggestion.Diff)); err != nil {
			return &domain.UpdateResult{Status: "error", Path: suggestion.TargetPath, Error: err.Error()}, nil
		}
		event = domain.EventDocCreated

	case domain.ActionUpdate:
		existing, err := os.ReadFile(suggestion.TargetPath)
		if err != nil {
			return &domain.UpdateResult{Status: "error", Path: suggestion.TargetPath, Error: err.Error()}, nil
		}
		content := append(existing, []byte("\n"+suggestion.Diff)...)
		if err := atomicWrite(suggestion.TargetPath, content); err != nil {
			return &domain.UpdateResult{Status: "error", Path: suggestion.TargetPath, Error: err.Error()}, nil
		}
		event = domain.EventDocUpdated

	default:
		return nil, fmt.Errorf("%w: unknown action %q", domain.ErrInvalidInput, suggestion.Action)
	}

	a.index.Invalidate(a.root)
	a.factCache.Invalidate(a.root)
	if staleFingerprint != "" && a.queryCache != nil {
		a.queryCache.InvalidateFingerprint(staleFingerprint)
	}

	a.emit(domain.DocEvent{Kind: event, Path: suggestion.TargetPath})
	a.emit(domain.DocEvent{Kind: domain.EventReindexTriggered, Path: a.root})

	logger.Info("Applied %s to %s", suggestion.Action, suggestion.TargetPath)
	return &domain.UpdateResult{Status: "success", Path: suggestion.TargetPath, Reindexed: true}, nil
}

// relatedSections cites the sections most relevant to the intent so a
// reviewer can see what the edit touches.
func (a *UpdateAgent) relatedSections(intent string) []domain.Citation {
	index, err := a.index.Get(a.root, corpus.GetOptions{})
	if err != nil {
		return nil
	}
	hits := Score(index.Sections, intent, domain.SearchFilters{}, 3)
	citations := make([]domain.Citation, len(hits))
	for i, hit := range hits {
		citations[i] = domain.Citation{
			File:      hit.Section.File,
			Heading:   hit.Section.Heading,
			LineStart: hit.Section.LineStart,
			LineEnd:   hit.Section.LineEnd,
			Snippet:   snippet(hit.Section.Content, snippetLen),
			Relevance: hit.Score,
		}
	}
	return citations
}

// resolveTarget picks the file an intent should land in.
func (a *UpdateAgent) resolveTarget(intent domain.UpdateIntent) (path, rationale string) {
	if intent.TargetFile != "" {
		return filepath.Join(a.root, intent.TargetFile), "caller-specified target"
	}

	release := intent.TargetRelease
	if release == "" {
		release = DefaultRelease
	}

	intentLower := strings.ToLower(intent.Intent)
	docType := fallbackDocType
	rationale = "no topic keyword in intent; using notes"
	for _, kw := range targetKeywords {
		if strings.Contains(intentLower, kw.keyword) {
			docType = kw.docType
			rationale = fmt.Sprintf("intent mentions %q", kw.keyword)
			break
		}
	}

	return filepath.Join(a.root, fmt.Sprintf("%s-%s.md", release, docType)), rationale
}

// buildDiff renders the append block (update) or full document
// (create) for an intent.
func (a *UpdateAgent) buildDiff(action domain.UpdateAction, intent domain.UpdateIntent) string {
	timestamp := a.now().UTC().Format(time.RFC3339)
	if action == domain.ActionUpdate {
		return fmt.Sprintf("\n\n## Update: %s\n\n**Added:** %s\n\n%s\n", intent.Intent, timestamp, intent.Context)
	}
	return fmt.Sprintf("# %s\n\n**Created:** %s\n\n%s\n", intent.Intent, timestamp, intent.Context)
}

func (a *UpdateAgent) emit(event domain.DocEvent) {
	a.mu.Lock()
	handlers := append([]func(domain.DocEvent){}, a.handlers...)
	a.mu.Unlock()
	for _, handler := range handlers {
		handler(event)
	}
}

// atomicWrite writes to a sibling temp file and renames it over the
// target so readers never observe partial content.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".docdex-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
