package mcp

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docdex/internal/core/domain"
	"github.com/custodia-labs/docdex/internal/core/services"
)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	if ports.Search == nil {
		ports.Search = &mockSearchService{}
	}
	if ports.Answer == nil {
		ports.Answer = &mockAnswerService{response: &domain.RAGResponse{}}
	}
	if ports.Update == nil {
		ports.Update = &mockUpdateService{
			suggestion: &domain.UpdateSuggestion{},
			result:     &domain.UpdateResult{Status: "success"},
		}
	}
	if ports.Corpus == nil {
		ports.Corpus = &mockCorpusService{}
	}
	if ports.Metrics == nil {
		ports.Metrics = services.NewMetrics()
	}

	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestNewServer_ValidatesPorts(t *testing.T) {
	tests := []struct {
		name     string
		ports    *Ports
		expected error
	}{
		{"missing search", &Ports{}, ErrMissingSearchService},
		{"missing answer", &Ports{Search: &mockSearchService{}}, ErrMissingAnswerService},
		{
			"missing update",
			&Ports{Search: &mockSearchService{}, Answer: &mockAnswerService{}},
			ErrMissingUpdateService,
		},
		{
			"missing corpus",
			&Ports{Search: &mockSearchService{}, Answer: &mockAnswerService{}, Update: &mockUpdateService{}},
			ErrMissingCorpusService,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewServer(tt.ports)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestHandleSearch_MapsHits(t *testing.T) {
	search := &mockSearchService{hits: []domain.SectionHit{
		{
			Section: domain.Section{
				File: "R1-NOTES.md", Release: "R1", DocType: "NOTES",
				Heading: "Auth", Content: "auth details",
				LineStart: 1, LineEnd: 4,
			},
			Score:        80,
			MatchReasons: []string{"Exact match in content"},
		},
	}}
	server := newTestServer(t, &Ports{Search: search})

	_, output, err := server.handleSearch(context.Background(), nil, SearchInput{Query: "auth"})
	require.NoError(t, err)

	require.Len(t, output.Results, 1)
	assert.Equal(t, 1, output.Count)
	assert.Empty(t, output.Sentinel)

	result := output.Results[0]
	assert.Equal(t, "R1-NOTES.md", result.File)
	assert.Equal(t, "Auth", result.Heading)
	assert.Equal(t, float64(80), result.Score)
	assert.Equal(t, "auth details", result.Snippet)
}

func TestHandleSearch_NotFoundIsSentinelNotError(t *testing.T) {
	search := &mockSearchService{err: fmt.Errorf("wrap: %w", domain.ErrNotFound)}
	server := newTestServer(t, &Ports{Search: search})

	_, output, err := server.handleSearch(context.Background(), nil, SearchInput{Query: "anything"})
	require.NoError(t, err)
	assert.Equal(t, DocsNotFoundSentinel, output.Sentinel)
	assert.NotEmpty(t, output.Message)
	assert.Empty(t, output.Results)
}

func TestHandleSearch_ZeroHitsIsSentinel(t *testing.T) {
	server := newTestServer(t, &Ports{Search: &mockSearchService{}})

	_, output, err := server.handleSearch(context.Background(), nil, SearchInput{Query: "anything"})
	require.NoError(t, err)
	assert.Equal(t, DocsNotFoundSentinel, output.Sentinel)
}

func TestHandleApplyUpdate_PassesForce(t *testing.T) {
	update := &mockUpdateService{result: &domain.UpdateResult{Status: "success", Reindexed: true}}
	server := newTestServer(t, &Ports{Update: update})

	_, result, err := server.handleApplyUpdate(context.Background(), nil, ApplyUpdateInput{
		TargetPath: "/corpus/R1-NOTES.md",
		Action:     "update",
		Diff:       "\n\n## Update: x\n",
		Force:      true,
	})
	require.NoError(t, err)
	assert.True(t, update.lastForce)
	assert.Equal(t, "success", result.Status)
}

func TestHandleApplyUpdate_ConflictResultIsNotTransportError(t *testing.T) {
	update := &mockUpdateService{result: &domain.UpdateResult{
		Status: "error",
		Error:  "Conflicting facts detected (2). Use force=true to override.",
	}}
	server := newTestServer(t, &Ports{Update: update})

	_, result, err := server.handleApplyUpdate(context.Background(), nil, ApplyUpdateInput{
		TargetPath: "/corpus/R1-NOTES.md",
		Action:     "update",
	})
	require.NoError(t, err)
	assert.Equal(t, "error", result.Status)
	assert.Contains(t, result.Error, "Conflicting facts detected")
}

func TestHandleRefresh(t *testing.T) {
	corpus := &mockCorpusService{}
	server := newTestServer(t, &Ports{Corpus: corpus})

	_, output, err := server.handleRefresh(context.Background(), nil, EmptyInput{})
	require.NoError(t, err)
	assert.True(t, corpus.refreshed)
	assert.Equal(t, "ok", output.Status)
}

func TestHandleHealthz_ListsTools(t *testing.T) {
	server := newTestServer(t, &Ports{})

	_, health, err := server.handleHealthz(context.Background(), nil, EmptyInput{})
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
	assert.Contains(t, health.Tools, "search")
	assert.Contains(t, health.Tools, "apply_update")
	assert.Len(t, health.Tools, len(toolNames))
}

func TestMetricsRecordedPerTool(t *testing.T) {
	metrics := services.NewMetrics()
	server := newTestServer(t, &Ports{Metrics: metrics})

	_, _, err := server.handleSearch(context.Background(), nil, SearchInput{Query: "q"})
	require.NoError(t, err)
	_, _, err = server.handleRefresh(context.Background(), nil, EmptyInput{})
	require.NoError(t, err)

	snap := metrics.Snapshot()
	assert.Equal(t, int64(2), snap.Requests)
	assert.Equal(t, int64(1), snap.ToolCalls["search"])
	assert.Equal(t, int64(1), snap.ToolCalls["refresh"])
}
