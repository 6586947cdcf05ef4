package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driven"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driving"
)

// Ensure EvidenceService implements the interface.
var _ driving.EvidenceService = (*EvidenceService)(nil)

// EvidenceService lists evidence-request rows for display.
type EvidenceService struct {
	source   driven.EvidenceSource
	maxLimit int
}

// NewEvidenceService creates an evidence service capped at maxLimit rows.
func NewEvidenceService(source driven.EvidenceSource, maxLimit int) *EvidenceService {
	if maxLimit <= 0 {
		maxLimit = domain.DefaultEvidenceLimit
	}
	return &EvidenceService{source: source, maxLimit: maxLimit}
}

// List returns up to limit rows; out-of-range limits use the cap.
func (s *EvidenceService) List(ctx context.Context, limit int) ([]domain.EvidenceRow, error) {
	if limit <= 0 || limit > s.maxLimit {
		limit = s.maxLimit
	}

	rows, err := s.source.ListEvidenceRequests(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing evidence requests: %w", err)
	}
	if rows == nil {
		rows = []domain.EvidenceRow{}
	}
	return rows, nil
}
