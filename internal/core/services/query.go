package services

import (
	"context"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driving"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// QueryService runs retrieval then answer composition.
type QueryService struct {
	retrieval driving.RetrievalService
	composer  *AnswerComposer
}

// NewQueryService creates a query service.
func NewQueryService(retrieval driving.RetrievalService, composer *AnswerComposer) *QueryService {
	return &QueryService{
		retrieval: retrieval,
		composer:  composer,
	}
}

// Ask answers query from the context retrieved for it.
func (s *QueryService) Ask(ctx context.Context, query string, topK int) (*domain.Answer, error) {
	merged, err := s.retrieval.Retrieve(ctx, query, topK)
	if err != nil {
		return nil, err
	}

	text, err := s.composer.Compose(ctx, merged.Query, merged.Text)
	if err != nil {
		return nil, err
	}

	return &domain.Answer{
		Query:   merged.Query,
		Text:    text,
		Context: merged,
	}, nil
}
