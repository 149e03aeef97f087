package driven

import (
	"context"

	"github.com/custodia-labs/docdex/internal/core/domain"
)

// VectorFilter restricts a vector search or delete to rows matching
// every set predicate (conjunctive equality).
type VectorFilter struct {
	// Release matches the chunk's release token exactly.
	Release string

	// DocType matches the chunk's document type exactly.
	DocType string

	// Service matches the chunk's service field exactly.
	Service string

	// File matches the chunk's source file exactly.
	File string
}

// Empty reports whether no predicate is set.
func (f VectorFilter) Empty() bool {
	return f.Release == "" && f.DocType == "" && f.Service == "" && f.File == ""
}

// VectorStore persists chunk rows with their embeddings and serves
// filtered cosine-similarity search. The connection is long-lived:
// opened at first use, closed on process shutdown.
type VectorStore interface {
	// Connect opens the store and creates the collection and vector
	// index if absent.
	Connect(ctx context.Context) error

	// Upsert writes chunk rows with their embeddings. Chunks and
	// embeddings correspond by index. Content longer than the column
	// limit is truncated.
	Upsert(ctx context.Context, chunks []domain.Chunk, embeddings [][]float32) error

	// Search returns the topK nearest chunks by cosine similarity,
	// restricted by the filter.
	Search(ctx context.Context, vector []float32, topK int, filter VectorFilter) ([]domain.ChunkHit, error)

	// Delete removes rows matching the filter. At least one predicate
	// is required; an empty filter fails.
	Delete(ctx context.Context, filter VectorFilter) error

	// Count returns the number of stored rows.
	Count(ctx context.Context) (int64, error)

	// Close releases the connection.
	Close() error
}
