package driving

import (
	"context"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
)

// RetrievalService embeds a query and gathers per-source context.
type RetrievalService interface {
	// Retrieve rejects blank queries with domain.ErrEmptyQuery. A non-positive
	// topK uses the configured default.
	Retrieve(ctx context.Context, query string, topK int) (*domain.MergedContext, error)
}

// QueryService answers a question grounded on retrieved context.
type QueryService interface {
	// Ask retrieves context for query and composes a cited answer.
	Ask(ctx context.Context, query string, topK int) (*domain.Answer, error)
}

// EvidenceService lists rows of the relational evidence view.
type EvidenceService interface {
	// List returns at most limit rows. A non-positive or oversized limit is
	// clamped to the configured maximum.
	List(ctx context.Context, limit int) ([]domain.EvidenceRow, error)
}
