// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): embedding, generation, reranking and the
// vector store. Services depend on these interfaces, never on concrete
// adapters.
package driven
