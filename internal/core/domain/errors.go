package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates the corpus has no matching sections.
	// Transports convert this to the DOCS_NOT_FOUND sentinel payload,
	// never to a server error.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfig indicates a required provider credential or setting is
	// absent. Operations that do not need the provider continue.
	ErrConfig = errors.New("invalid configuration")

	// ErrConflict indicates fact-level conflicts blocked a write.
	ErrConflict = errors.New("conflicting facts detected")

	// ErrProvider indicates a remote embedding, reranking or
	// generation call failed.
	ErrProvider = errors.New("provider call failed")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Vector search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the generation service is not
	// configured. Answers fall back to citation summaries.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrVectorStoreUnavailable indicates the vector store is not
	// configured or unreachable.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")

	// ErrParse indicates a corpus file could not be decoded as UTF-8.
	ErrParse = errors.New("parse failed")

	// ErrWatcherClosed indicates the file watcher has been stopped.
	ErrWatcherClosed = errors.New("watcher closed")
)
