// Package corpus discovers and parses the Markdown corpus: recursive
// walk with ignore patterns, heading-based section splitting, and a
// fingerprinted, TTL-bounded index cache.
package corpus
