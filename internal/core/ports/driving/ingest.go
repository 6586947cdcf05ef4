package driving

import (
	"context"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
)

// IngestionService runs full-refresh ingestion of every source.
type IngestionService interface {
	// Run clears each source type, then normalises, embeds and upserts every
	// source in the fixed order. Any error aborts the run.
	Run(ctx context.Context) (*domain.IngestReport, error)
}

// StatusService reports what the store currently holds.
type StatusService interface {
	// Counts returns the number of stored rows per source type.
	Counts(ctx context.Context) (map[domain.SourceType]int, error)

	// RefreshHistory returns the most recent periodic refresh runs.
	RefreshHistory(ctx context.Context, limit int) ([]domain.TaskResult, error)
}
