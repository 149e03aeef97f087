package driving

import (
	"context"

	"github.com/custodia-labs/docdex/internal/core/domain"
)

// SearchService provides lexical section search over the corpus.
type SearchService interface {
	// Search scores sections against the query and returns the top
	// hits with match reasons. A trimmed-empty query is invalid.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SectionHit, error)
}

// AnswerService provides grounded answer synthesis.
type AnswerService interface {
	// Answer runs the retrieve, rerank, synthesize pipeline and
	// returns an answer with traceable citations.
	Answer(ctx context.Context, req AnswerRequest) (*domain.RAGResponse, error)
}

// AnswerRequest parameterizes a grounded-answer query.
type AnswerRequest struct {
	// Query is the question to answer.
	Query string

	// Filters narrows retrieval to a slice of the corpus.
	Filters domain.SearchFilters

	// MaxTokens bounds the synthesized answer length (default 1024).
	MaxTokens int

	// K is the number of chunks to retrieve (default 10).
	K int
}

// UpdateService proposes and applies corpus edits.
type UpdateService interface {
	// SuggestUpdate infers a target file, generates a diff and runs
	// the fact-level preflight. A blocked suggestion has conflicts.
	SuggestUpdate(ctx context.Context, intent domain.UpdateIntent) (*domain.UpdateSuggestion, error)

	// ApplyUpdate re-checks conflicts and applies the suggestion
	// atomically. Conflicts fail the apply unless force is set.
	ApplyUpdate(ctx context.Context, suggestion domain.UpdateSuggestion, force bool) (*domain.UpdateResult, error)
}

// CorpusService exposes corpus maintenance and analysis operations.
type CorpusService interface {
	// Refresh invalidates every cache for the configured root.
	Refresh(ctx context.Context) error

	// CompareReleases summarizes how a feature is documented in each
	// release. When releases is empty, every release present in the
	// corpus is compared.
	CompareReleases(ctx context.Context, feature string, releases []string) ([]ReleaseSummary, error)

	// ServiceDependencies lists inbound and outbound edges for a
	// service within one release.
	ServiceDependencies(ctx context.Context, service, release string, includeDataFlow bool) (*ServiceDeps, error)
}

// ReleaseSummary is one release's best coverage of a feature.
type ReleaseSummary struct {
	// Release is the release token.
	Release string `json:"release"`

	// Sections are the top-scored sections for the feature.
	Sections []SectionSummary `json:"sections"`
}

// SectionSummary is a compact view of a matched section.
type SectionSummary struct {
	File    string  `json:"file"`
	Heading string  `json:"heading"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// ServiceDeps lists the dependency edges discovered for a service.
type ServiceDeps struct {
	// Service is the service the edges are relative to.
	Service string `json:"service"`

	// Release is the release the sections were read from.
	Release string `json:"release"`

	// Inbound lists services with edges into this service.
	Inbound []string `json:"inbound"`

	// Outbound lists services this service has edges to.
	Outbound []string `json:"outbound"`

	// DataFlow carries the raw matching lines when requested.
	DataFlow []string `json:"data_flow,omitempty"`
}
