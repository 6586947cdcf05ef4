package services

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driven"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driving"
	"github.com/custodia-labs/evidence-rag/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// IngestionService performs full-refresh ingestion of every source.
type IngestionService struct {
	normalisers []driven.SourceNormaliser
	embedder    driven.EmbeddingService
	store       driven.VectorStore
	lock        driven.IngestLock
	batchSize   int
	now         func() time.Time
}

// NewIngestionService creates an ingestion service. Normalisers run in the
// fixed source order regardless of the order given. lock may be nil when
// the caller already guarantees a single writer.
func NewIngestionService(
	normalisers []driven.SourceNormaliser,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	lock driven.IngestLock,
	batchSize int,
) *IngestionService {
	if batchSize <= 0 {
		batchSize = domain.DefaultBatchSize
	}

	ordered := slices.Clone(normalisers)
	slices.SortStableFunc(ordered, func(a, b driven.SourceNormaliser) int {
		return cmp.Compare(sourceOrder(a.SourceType()), sourceOrder(b.SourceType()))
	})

	return &IngestionService{
		normalisers: ordered,
		embedder:    embedder,
		store:       store,
		lock:        lock,
		batchSize:   batchSize,
		now:         time.Now,
	}
}

// Run clears every source type, then streams, embeds and upserts each
// source in order. The first error aborts the run; sources already
// written stay written.
func (s *IngestionService) Run(ctx context.Context) (*domain.IngestReport, error) {
	if s.lock != nil {
		holder := "ingest-" + uuid.New().String()
		if err := s.lock.Acquire(ctx, holder); err != nil {
			return nil, err
		}
		defer func() {
			if err := s.lock.Release(context.WithoutCancel(ctx), holder); err != nil {
				logger.Warn("releasing ingestion lease: %v", err)
			}
		}()
	}

	report := domain.NewIngestReport(s.now())
	logger.Progress("Starting ingestion...")

	logger.Progress("Clearing existing embeddings...")
	for _, t := range domain.SourceTypes {
		if err := s.store.Replace(ctx, t, nil); err != nil {
			return nil, fmt.Errorf("clearing %s: %w", t, err)
		}
	}

	for _, n := range s.normalisers {
		if err := s.ingestSource(ctx, n, report); err != nil {
			return nil, err
		}
	}

	report.EndedAt = s.now()
	logger.Progress("Ingestion complete.")
	logger.Debug("Ingested %d chunks in %d batches (%s)", report.Total(), report.Batches, report.EndedAt.Sub(report.StartedAt))
	return report, nil
}

// ingestSource drains one normaliser in batches of batchSize.
func (s *IngestionService) ingestSource(ctx context.Context, n driven.SourceNormaliser, report *domain.IngestReport) error {
	sourceType := n.SourceType()
	logger.Section("Ingest " + string(sourceType))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	chunks, errs := n.Normalise(ctx)
	logger.Progress("Embedding + upserting %s...", sourceUnit(sourceType))

	batch := make([]domain.Chunk, 0, s.batchSize)
	fail := func(err error) error {
		// Unblock the producer before returning.
		cancel()
		for range chunks {
		}
		return err
	}

	for chunk := range chunks {
		if chunk.SourceType != sourceType {
			return fail(fmt.Errorf("%w: %s normaliser emitted a %s chunk", domain.ErrDataSource, sourceType, chunk.SourceType))
		}
		batch = append(batch, chunk)
		if len(batch) < s.batchSize {
			continue
		}
		if err := s.flush(ctx, batch, report); err != nil {
			return fail(err)
		}
		batch = batch[:0]
	}

	if err := <-errs; err != nil {
		return err
	}

	return s.flush(ctx, batch, report)
}

// flush embeds a batch and upserts it.
func (s *IngestionService) flush(ctx context.Context, batch []domain.Chunk, report *domain.IngestReport) error {
	if len(batch) == 0 {
		return nil
	}

	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = batch[i].Content
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding %s batch: %w", batch[0].SourceType, err)
	}
	if len(embeddings) != len(batch) {
		return fmt.Errorf("%w: embedded %d of %d texts", domain.ErrUpstream, len(embeddings), len(batch))
	}

	rows := make([]domain.EmbeddedChunk, len(batch))
	for i := range batch {
		rows[i] = domain.EmbeddedChunk{Chunk: batch[i], Embedding: embeddings[i]}
	}

	if err := s.store.Upsert(ctx, rows); err != nil {
		return fmt.Errorf("upserting %s batch: %w", batch[0].SourceType, err)
	}

	report.Chunks[batch[0].SourceType] += len(rows)
	report.Batches++
	logger.Progress("Upserted %d rows.", len(rows))
	return nil
}

// sourceOrder is the position of t in domain.SourceTypes, or past the end.
func sourceOrder(t domain.SourceType) int {
	if i := slices.Index(domain.SourceTypes, t); i >= 0 {
		return i
	}
	return len(domain.SourceTypes)
}

// sourceUnit names what a source is made of in progress output.
func sourceUnit(t domain.SourceType) string {
	switch t {
	case domain.SourceDocument:
		return "doc chunks"
	case domain.SourceReport:
		return "JSON items"
	case domain.SourceTable:
		return "DB rows"
	default:
		return string(t) + " chunks"
	}
}
