package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driven"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driving"
	"github.com/custodia-labs/evidence-rag/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService embeds a query once and searches every source concurrently.
type RetrievalService struct {
	embedder driven.EmbeddingService
	store    driven.VectorStore
	config   domain.RetrievalConfig
}

// NewRetrievalService creates a retrieval service.
func NewRetrievalService(
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	config domain.RetrievalConfig,
) *RetrievalService {
	return &RetrievalService{
		embedder: embedder,
		store:    store,
		config:   config,
	}
}

// Retrieve returns the merged per-source context for query.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, topK int) (*domain.MergedContext, error) {
	logger.Section("Retrieval")

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}

	perSource := s.config.ClampPerSource(topK)
	logger.Debug("Query: %q, topK: %d, per source: %d", query, topK, perSource)

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results := make([][]domain.RetrievedRow, len(domain.SourceTypes))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range domain.SourceTypes {
		g.Go(func() error {
			rows, err := s.store.Search(gctx, t, embedding, perSource)
			if err != nil {
				return fmt.Errorf("searching %s: %w", t, err)
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := &domain.MergedContext{
		Query:     query,
		PerSource: perSource,
		Groups:    make(map[domain.SourceType][]domain.RetrievedRow, len(domain.SourceTypes)),
	}
	for i, t := range domain.SourceTypes {
		if results[i] == nil {
			results[i] = []domain.RetrievedRow{}
		}
		merged.Groups[t] = results[i]
		logger.Debug("%s: %d rows", t.Label(), len(results[i]))
	}
	merged.Text = RenderContext(merged)

	return merged, nil
}
