package driven

import (
	"context"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
)

// SourceNormaliser turns one data source into a stream of uniform chunks.
//
// The chunk channel is closed when the normaliser is done. A failure to read
// the underlying source is sent on the error channel (wrapping
// domain.ErrDataSource) before the chunk channel closes. The error channel is
// closed last.
type SourceNormaliser interface {
	// SourceType returns the source type every emitted chunk carries.
	SourceType() domain.SourceType

	// Normalise starts streaming chunks.
	Normalise(ctx context.Context) (<-chan domain.Chunk, <-chan error)
}

// Extractor turns a binary document into extracted text or markdown.
type Extractor interface {
	// Name identifies the extractor in logs.
	Name() string

	// Extract returns the text of the document. filename carries the
	// extension used to pick a format.
	Extract(ctx context.Context, filename string, content []byte) (string, error)
}

// EvidenceSource reads the relational evidence-request view.
type EvidenceSource interface {
	// ListEvidenceRequests returns rows joined with their control and audit.
	// A limit of 0 returns every row.
	ListEvidenceRequests(ctx context.Context, limit int) ([]domain.EvidenceRow, error)
}
