// Package tui provides an interactive terminal user interface for asking
// questions over the evidence sources.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
type Ports struct {
	// Query composes cited answers.
	Query driving.QueryService

	// Status reports per-source row counts. Optional.
	Status driving.StatusService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
