package services

import (
	"context"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driven"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driving"
)

// Ensure StatusService implements the interface.
var _ driving.StatusService = (*StatusService)(nil)

// StatusService reports store contents and refresh history.
type StatusService struct {
	store     driven.VectorStore
	scheduler driven.SchedulerStore
}

// NewStatusService creates a status service. scheduler may be nil.
func NewStatusService(store driven.VectorStore, scheduler driven.SchedulerStore) *StatusService {
	return &StatusService{store: store, scheduler: scheduler}
}

// Counts returns the stored row count for every source type.
func (s *StatusService) Counts(ctx context.Context) (map[domain.SourceType]int, error) {
	counts := make(map[domain.SourceType]int, len(domain.SourceTypes))
	for _, t := range domain.SourceTypes {
		n, err := s.store.Count(ctx, t)
		if err != nil {
			return nil, err
		}
		counts[t] = n
	}
	return counts, nil
}

// RefreshHistory returns recent source-refresh runs, newest first.
func (s *StatusService) RefreshHistory(ctx context.Context, limit int) ([]domain.TaskResult, error) {
	if s.scheduler == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	return s.scheduler.GetTaskHistory(ctx, domain.TaskIDSourceRefresh, limit)
}
