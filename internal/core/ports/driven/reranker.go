package driven

import "context"

// RerankProvider scores documents against a query with a cross-encoder.
// This is an optional service - when reranking is disabled, candidates
// keep their retrieval scores; when it is enabled and the provider is
// nil, a heuristic scorer ranks them.
type RerankProvider interface {
	// Rerank scores the documents against the query and returns the
	// indices of the topK most relevant documents with their scores,
	// most relevant first. The provider may return fewer than topK.
	Rerank(ctx context.Context, query string, documents []string, topK int) ([]RerankResult, error)

	// ModelName returns the name of the reranking model being used.
	ModelName() string
}

// RerankResult points back at an input document by index.
type RerankResult struct {
	// Index is the position of the document in the input slice.
	Index int

	// Score is the provider's cross-relevance score.
	Score float64
}
