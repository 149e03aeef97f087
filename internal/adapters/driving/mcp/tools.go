package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docdex/internal/core/domain"
	"github.com/custodia-labs/docdex/internal/core/ports/driving"
	"github.com/custodia-labs/docdex/internal/core/services"
)

// DocsNotFoundSentinel marks a zero-result payload. Callers receive it
// as data, never as a transport error.
const DocsNotFoundSentinel = "DOCS_NOT_FOUND"

// toolNames lists every registered operation, for healthz.
var toolNames = []string{
	"search", "answer", "suggest_update", "apply_update",
	"compare_releases", "service_dependencies", "refresh",
	"healthz", "metrics",
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query      string   `json:"query" jsonschema:"the search query to find documentation sections"`
	Release    string   `json:"release,omitempty" jsonschema:"restrict to one release, e.g. R2"`
	Service    string   `json:"service,omitempty" jsonschema:"restrict to sections mentioning this service"`
	DocTypes   []string `json:"doc_types,omitempty" jsonschema:"restrict to these document types"`
	MaxResults int      `json:"max_results,omitempty" jsonschema:"maximum number of results (default 5)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results  []SearchResultOutput `json:"results"`
	Count    int                  `json:"count"`
	Sentinel string               `json:"sentinel,omitempty"`
	Message  string               `json:"message,omitempty"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	File         string   `json:"file"`
	Heading      string   `json:"heading"`
	LineStart    int      `json:"line_start"`
	LineEnd      int      `json:"line_end"`
	Release      string   `json:"release"`
	DocType      string   `json:"doc_type"`
	Score        float64  `json:"score"`
	MatchReasons []string `json:"match_reasons"`
	Snippet      string   `json:"snippet"`
}

// AnswerInput is the input schema for the answer tool.
type AnswerInput struct {
	Query     string   `json:"query" jsonschema:"the question to answer from the documentation"`
	Release   string   `json:"release,omitempty" jsonschema:"restrict retrieval to one release"`
	Service   string   `json:"service,omitempty" jsonschema:"restrict retrieval to one service"`
	DocTypes  []string `json:"doc_types,omitempty" jsonschema:"restrict retrieval to these document types"`
	MaxTokens int      `json:"max_tokens,omitempty" jsonschema:"answer length bound (default 1024)"`
	K         int      `json:"k,omitempty" jsonschema:"number of chunks to retrieve (default 10)"`
}

// SuggestUpdateInput is the input schema for the suggest_update tool.
type SuggestUpdateInput struct {
	Intent        string `json:"intent" jsonschema:"what should change in the documentation"`
	Context       string `json:"context,omitempty" jsonschema:"the content to record"`
	TargetFile    string `json:"target_file,omitempty" jsonschema:"explicit target file, relative to the corpus root"`
	TargetRelease string `json:"target_release,omitempty" jsonschema:"release prefix for inferred targets (default R1)"`
}

// ApplyUpdateInput is the input schema for the apply_update tool.
type ApplyUpdateInput struct {
	TargetPath string `json:"target_path" jsonschema:"absolute path of the file to write"`
	Action     string `json:"action" jsonschema:"update or create"`
	Diff       string `json:"diff" jsonschema:"the diff produced by suggest_update"`
	Force      bool   `json:"force,omitempty" jsonschema:"apply even when facts conflict"`
}

// CompareReleasesInput is the input schema for the compare_releases tool.
type CompareReleasesInput struct {
	Feature  string   `json:"feature" jsonschema:"the feature to compare across releases"`
	Releases []string `json:"releases,omitempty" jsonschema:"subset of releases to compare"`
}

// CompareReleasesOutput is the output schema for the compare_releases tool.
type CompareReleasesOutput struct {
	Releases []driving.ReleaseSummary `json:"releases"`
}

// ServiceDependenciesInput is the input schema for the service_dependencies tool.
type ServiceDependenciesInput struct {
	Service         string `json:"service" jsonschema:"the service to analyze"`
	Release         string `json:"release" jsonschema:"the release to read sections from"`
	IncludeDataFlow bool   `json:"include_data_flow,omitempty" jsonschema:"include the raw matching lines"`
}

// RefreshOutput is the output schema for the refresh tool.
type RefreshOutput struct {
	Status string `json:"status"`
}

// EmptyInput is the input schema for tools that take no arguments.
type EmptyInput struct{}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search documentation sections by keyword",
	}, s.handleSearch)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "answer",
		Description: "Answer a question with citations grounded in the documentation",
	}, s.handleAnswer)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "suggest_update",
		Description: "Propose a documentation edit with duplicate and conflict preflight",
	}, s.handleSuggestUpdate)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "apply_update",
		Description: "Apply a proposed documentation edit atomically",
	}, s.handleApplyUpdate)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "compare_releases",
		Description: "Compare how a feature is documented across releases",
	}, s.handleCompareReleases)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "service_dependencies",
		Description: "List inbound and outbound dependencies of a service",
	}, s.handleServiceDependencies)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "refresh",
		Description: "Invalidate every cache for the corpus root",
	}, s.handleRefresh)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "healthz",
		Description: "Report server health and registered tools",
	}, s.handleHealthz)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "metrics",
		Description: "Report request counters and latency",
	}, s.handleMetrics)
}

// record notes one tool invocation on the metrics recorder.
func (s *Server) record(tool string, started time.Time, failed bool) {
	if s.ports.Metrics != nil {
		s.ports.Metrics.Record(tool, time.Since(started), failed)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	started := time.Now()

	opts := domain.SearchOptions{
		Filters: domain.SearchFilters{
			Release:  input.Release,
			Service:  input.Service,
			DocTypes: input.DocTypes,
		},
		MaxResults: input.MaxResults,
	}
	hits, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.record("search", started, false)
			return nil, SearchOutput{
				Results:  []SearchResultOutput{},
				Sentinel: DocsNotFoundSentinel,
				Message:  "No documentation matched this query.",
			}, nil
		}
		s.record("search", started, true)
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(hits)),
		Count:   len(hits),
	}
	for i, hit := range hits {
		output.Results[i] = SearchResultOutput{
			File:         hit.Section.File,
			Heading:      hit.Section.Heading,
			LineStart:    hit.Section.LineStart,
			LineEnd:      hit.Section.LineEnd,
			Release:      hit.Section.Release,
			DocType:      hit.Section.DocType,
			Score:        hit.Score,
			MatchReasons: hit.MatchReasons,
			Snippet:      snippet(hit.Section.Content, 300),
		}
	}
	if len(hits) == 0 {
		output.Sentinel = DocsNotFoundSentinel
		output.Message = "No documentation matched this query."
	}

	s.record("search", started, false)
	return nil, output, nil
}

// handleAnswer handles the answer tool invocation.
func (s *Server) handleAnswer(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnswerInput,
) (*mcp.CallToolResult, domain.RAGResponse, error) {
	started := time.Now()

	response, err := s.ports.Answer.Answer(ctx, driving.AnswerRequest{
		Query: input.Query,
		Filters: domain.SearchFilters{
			Release:  input.Release,
			Service:  input.Service,
			DocTypes: input.DocTypes,
		},
		MaxTokens: input.MaxTokens,
		K:         input.K,
	})
	if err != nil {
		s.record("answer", started, true)
		return nil, domain.RAGResponse{}, err
	}

	s.record("answer", started, false)
	return nil, *response, nil
}

// handleSuggestUpdate handles the suggest_update tool invocation.
func (s *Server) handleSuggestUpdate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SuggestUpdateInput,
) (*mcp.CallToolResult, domain.UpdateSuggestion, error) {
	started := time.Now()

	suggestion, err := s.ports.Update.SuggestUpdate(ctx, domain.UpdateIntent{
		Intent:        input.Intent,
		Context:       input.Context,
		TargetFile:    input.TargetFile,
		TargetRelease: input.TargetRelease,
	})
	if err != nil {
		s.record("suggest_update", started, true)
		return nil, domain.UpdateSuggestion{}, err
	}

	s.record("suggest_update", started, false)
	return nil, *suggestion, nil
}

// handleApplyUpdate handles the apply_update tool invocation.
// Conflicts surface as a structured error result, not a transport
// failure.
func (s *Server) handleApplyUpdate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ApplyUpdateInput,
) (*mcp.CallToolResult, domain.UpdateResult, error) {
	started := time.Now()

	result, err := s.ports.Update.ApplyUpdate(ctx, domain.UpdateSuggestion{
		Action:     domain.UpdateAction(input.Action),
		TargetPath: input.TargetPath,
		Diff:       input.Diff,
	}, input.Force)
	if err != nil {
		s.record("apply_update", started, true)
		return nil, domain.UpdateResult{}, err
	}

	s.record("apply_update", started, result.Status != "success")
	return nil, *result, nil
}

// handleCompareReleases handles the compare_releases tool invocation.
func (s *Server) handleCompareReleases(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CompareReleasesInput,
) (*mcp.CallToolResult, CompareReleasesOutput, error) {
	started := time.Now()

	summaries, err := s.ports.Corpus.CompareReleases(ctx, input.Feature, input.Releases)
	if err != nil {
		s.record("compare_releases", started, true)
		return nil, CompareReleasesOutput{}, err
	}

	s.record("compare_releases", started, false)
	return nil, CompareReleasesOutput{Releases: summaries}, nil
}

// handleServiceDependencies handles the service_dependencies tool invocation.
func (s *Server) handleServiceDependencies(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ServiceDependenciesInput,
) (*mcp.CallToolResult, driving.ServiceDeps, error) {
	started := time.Now()

	deps, err := s.ports.Corpus.ServiceDependencies(ctx, input.Service, input.Release, input.IncludeDataFlow)
	if err != nil {
		s.record("service_dependencies", started, true)
		return nil, driving.ServiceDeps{}, err
	}

	s.record("service_dependencies", started, false)
	return nil, *deps, nil
}

// handleRefresh handles the refresh tool invocation.
func (s *Server) handleRefresh(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, RefreshOutput, error) {
	started := time.Now()

	if err := s.ports.Corpus.Refresh(ctx); err != nil {
		s.record("refresh", started, true)
		return nil, RefreshOutput{}, err
	}

	s.record("refresh", started, false)
	return nil, RefreshOutput{Status: "ok"}, nil
}

// handleHealthz handles the healthz tool invocation.
func (s *Server) handleHealthz(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, services.HealthSnapshot, error) {
	if s.ports.Metrics == nil {
		return nil, services.HealthSnapshot{Status: "ok", Tools: toolNames}, nil
	}
	return nil, s.ports.Metrics.Health(toolNames), nil
}

// handleMetrics handles the metrics tool invocation.
func (s *Server) handleMetrics(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, services.MetricsSnapshot, error) {
	if s.ports.Metrics == nil {
		return nil, services.MetricsSnapshot{}, nil
	}
	return nil, s.ports.Metrics.Snapshot(), nil
}

// snippet truncates text to at most n bytes.
func snippet(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[:n]
}
