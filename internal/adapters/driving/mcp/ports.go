package mcp

import (
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Retrieval gathers per-source context for a query.
	Retrieval driving.RetrievalService

	// Query composes cited answers. Optional: without it the ask tool is not registered.
	Query driving.QueryService

	// Evidence lists evidence-request rows. Optional.
	Evidence driving.EvidenceService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
