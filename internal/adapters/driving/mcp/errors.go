// Package mcp provides an MCP (Model Context Protocol) server adapter
// for docdex. It enables AI assistants to search the corpus, obtain
// grounded answers and propose documentation updates.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// ErrMissingAnswerService is returned when the answer service is not provided.
var ErrMissingAnswerService = errors.New("mcp: answer service is required")

// ErrMissingUpdateService is returned when the update service is not provided.
var ErrMissingUpdateService = errors.New("mcp: update service is required")

// ErrMissingCorpusService is returned when the corpus service is not provided.
var ErrMissingCorpusService = errors.New("mcp: corpus service is required")
