package mcp

import (
	"context"

	"github.com/custodia-labs/docdex/internal/core/domain"
	"github.com/custodia-labs/docdex/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	hits []domain.SectionHit
	err  error
}

func (m *mockSearchService) Search(_ context.Context, _ string, _ domain.SearchOptions) ([]domain.SectionHit, error) {
	return m.hits, m.err
}

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	response *domain.RAGResponse
	err      error
}

func (m *mockAnswerService) Answer(_ context.Context, _ driving.AnswerRequest) (*domain.RAGResponse, error) {
	return m.response, m.err
}

// mockUpdateService is a mock implementation of driving.UpdateService.
type mockUpdateService struct {
	suggestion *domain.UpdateSuggestion
	result     *domain.UpdateResult
	err        error
	lastForce  bool
}

func (m *mockUpdateService) SuggestUpdate(_ context.Context, _ domain.UpdateIntent) (*domain.UpdateSuggestion, error) {
	return m.suggestion, m.err
}

func (m *mockUpdateService) ApplyUpdate(_ context.Context, _ domain.UpdateSuggestion, force bool) (*domain.UpdateResult, error) {
	m.lastForce = force
	return m.result, m.err
}

// mockCorpusService is a mock implementation of driving.CorpusService.
type mockCorpusService struct {
	summaries []driving.ReleaseSummary
	deps      *driving.ServiceDeps
	refreshed bool
	err       error
}

func (m *mockCorpusService) Refresh(_ context.Context) error {
	m.refreshed = true
	return m.err
}

func (m *mockCorpusService) CompareReleases(_ context.Context, _ string, _ []string) ([]driving.ReleaseSummary, error) {
	return m.summaries, m.err
}

func (m *mockCorpusService) ServiceDependencies(_ context.Context, _, _ string, _ bool) (*driving.ServiceDeps, error) {
	return m.deps, m.err
}
