package mcp

import (
	"github.com/custodia-labs/docdex/internal/core/ports/driving"
	"github.com/custodia-labs/docdex/internal/core/services"
)

// Ports bundles the driving services the MCP server exposes.
type Ports struct {
	// Search provides lexical section search.
	Search driving.SearchService

	// Answer provides grounded answer synthesis.
	Answer driving.AnswerService

	// Update proposes and applies corpus edits.
	Update driving.UpdateService

	// Corpus provides maintenance and analysis operations.
	Corpus driving.CorpusService

	// Metrics records per-tool counters. Optional; a nil recorder
	// disables the healthz and metrics detail.
	Metrics *services.Metrics
}

// Validate checks that every required port is present.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	if p.Update == nil {
		return ErrMissingUpdateService
	}
	if p.Corpus == nil {
		return ErrMissingCorpusService
	}
	return nil
}
