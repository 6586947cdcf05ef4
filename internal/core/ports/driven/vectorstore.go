package driven

import (
	"context"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
)

// VectorStore persists embedded chunks and answers per-source similarity
// queries. It exclusively owns stored rows.
type VectorStore interface {
	// Replace deletes every row of sourceType, then inserts rows.
	// An empty rows slice is a full deletion.
	Replace(ctx context.Context, sourceType domain.SourceType, rows []domain.EmbeddedChunk) error

	// Upsert inserts rows, overwriting content, metadata and embedding of any
	// row whose (source_type, source_id, chunk_index) already exists.
	Upsert(ctx context.Context, rows []domain.EmbeddedChunk) error

	// Search returns up to k rows of exactly sourceType ordered by cosine
	// similarity descending. An empty source returns an empty slice.
	Search(ctx context.Context, sourceType domain.SourceType, query []float32, k int) ([]domain.RetrievedRow, error)

	// Count returns the number of stored rows for sourceType.
	Count(ctx context.Context, sourceType domain.SourceType) (int, error)
}

// IngestLock serialises ingestion runs against one store.
type IngestLock interface {
	// Acquire takes the lease for holder. It returns
	// domain.ErrIngestionInProgress when another holder has a live lease.
	Acquire(ctx context.Context, holder string) error

	// Release drops the lease if holder still owns it.
	Release(ctx context.Context, holder string) error
}
