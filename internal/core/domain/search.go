package domain

// SearchFilters narrows a query to a slice of the corpus.
type SearchFilters struct {
	// Release is an exact match on the section's release token.
	Release string

	// Service requires a case-insensitive substring match in the
	// section heading or content.
	Service string

	// DocTypes restricts results to the given document types.
	DocTypes []string
}

// SearchOptions configures a lexical search.
type SearchOptions struct {
	// Filters narrows the candidate sections before scoring.
	Filters SearchFilters

	// MaxResults caps the number of hits returned (default 5).
	MaxResults int
}

// SectionHit is a lexically scored section.
type SectionHit struct {
	// Section is the matched section.
	Section Section

	// Score is the lexical relevance score. Always positive for
	// returned hits; ties preserve source order.
	Score float64

	// MatchReasons explains which scoring rules fired.
	MatchReasons []string
}

// ChunkHit is a vector search result.
type ChunkHit struct {
	// Chunk is the matched chunk, rehydrated from the vector store.
	Chunk Chunk

	// Score is the cosine similarity to the query vector.
	Score float64
}

// RankedHit pairs a chunk hit with its rerank score.
type RankedHit struct {
	// Hit is the underlying vector search result.
	Hit ChunkHit

	// RerankScore is the cross-relevance score. When reranking is
	// disabled this is the original similarity score.
	RerankScore float64
}

// Citation points a synthesized answer back at its source section.
type Citation struct {
	// File is the source file relative to the corpus root.
	File string `json:"file"`

	// Heading is the source section heading.
	Heading string `json:"heading"`

	// LineStart and LineEnd delimit the source lines.
	LineStart int `json:"line_start"`
	LineEnd   int `json:"line_end"`

	// Snippet is the first 300 characters of the cited chunk.
	Snippet string `json:"snippet"`

	// Relevance is the rerank score of the cited chunk.
	Relevance float64 `json:"relevance"`
}

// RAGResponse is a synthesized answer with traceable citations.
type RAGResponse struct {
	// Answer is the synthesized natural-language answer.
	Answer string `json:"answer"`

	// Citations grounds the answer, most relevant first.
	Citations []Citation `json:"citations"`

	// GroundingScore estimates in [0,1] how many cited sources are
	// textually acknowledged in the answer.
	GroundingScore float64 `json:"grounding_score"`

	// InsufficientEvidence is true when the grounding score falls
	// below the confidence threshold or no hits were found.
	InsufficientEvidence bool `json:"insufficient_evidence"`

	// MissingTopics names what the corpus could not answer.
	MissingTopics []string `json:"missing_topics,omitempty"`
}
