package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/evidence-rag/internal/adapters/driven/extraction/fallback"
	"github.com/custodia-labs/evidence-rag/internal/adapters/driven/extraction/plaintext"
	"github.com/custodia-labs/evidence-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/evidence-rag/internal/core/domain"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driven"
	"github.com/custodia-labs/evidence-rag/internal/logger"
	"github.com/custodia-labs/evidence-rag/internal/normalisers/document"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })
	return &buf
}

func numbered(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s passage %d", prefix, i)
	}
	return out
}

func testNormalisers() []driven.SourceNormaliser {
	// Deliberately out of order.
	return []driven.SourceNormaliser{
		&sliceNormaliser{sourceType: domain.SourceTable, chunks: textChunks(domain.SourceTable, "er-1", "evidence row")},
		&sliceNormaliser{sourceType: domain.SourceDocument, chunks: textChunks(domain.SourceDocument, "SSP.docx", numbered("ssp", 20)...)},
		&sliceNormaliser{sourceType: domain.SourceReport, chunks: textChunks(domain.SourceReport, "CVE-2024-0001", numbered("cve", 3)...)},
	}
}

func TestIngestionService_Run(t *testing.T) {
	buf := captureLog(t)
	ctx := context.Background()
	store := memory.NewVectorStore()
	embedder := newBagEmbedder()

	svc := NewIngestionService(testNormalisers(), embedder, store, memory.NewIngestLock(), 16)
	report, err := svc.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 20, report.Chunks[domain.SourceDocument])
	assert.Equal(t, 3, report.Chunks[domain.SourceReport])
	assert.Equal(t, 1, report.Chunks[domain.SourceTable])
	assert.Equal(t, 24, report.Total())
	assert.Equal(t, 4, report.Batches)
	assert.False(t, report.EndedAt.Before(report.StartedAt))

	_, batches := embedder.calls()
	assert.Equal(t, []int{16, 4, 3, 1}, batches)

	for st, want := range map[domain.SourceType]int{domain.SourceDocument: 20, domain.SourceReport: 3, domain.SourceTable: 1} {
		n, err := store.Count(ctx, st)
		require.NoError(t, err)
		assert.Equal(t, want, n, st)
	}

	want := []string{
		"Starting ingestion...",
		"Clearing existing embeddings...",
		"Embedding + upserting doc chunks...",
		"Upserted 16 rows.",
		"Upserted 4 rows.",
		"Embedding + upserting JSON items...",
		"Upserted 3 rows.",
		"Embedding + upserting DB rows...",
		"Upserted 1 rows.",
		"Ingestion complete.",
	}
	assert.Equal(t, want, strings.Split(strings.TrimSpace(buf.String()), "\n"))
}

func TestIngestionService_RunIsIdempotent(t *testing.T) {
	captureLog(t)
	ctx := context.Background()
	store := memory.NewVectorStore()

	svc := NewIngestionService(testNormalisers(), newBagEmbedder(), store, nil, 16)
	_, err := svc.Run(ctx)
	require.NoError(t, err)
	_, err = svc.Run(ctx)
	require.NoError(t, err)

	n, err := store.Count(ctx, domain.SourceDocument)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}

func TestIngestionService_ClearsStaleRows(t *testing.T) {
	captureLog(t)
	ctx := context.Background()
	store := memory.NewVectorStore()
	embedder := newBagEmbedder()

	stale := domain.EmbeddedChunk{
		Chunk:     domain.Chunk{SourceType: domain.SourceTable, SourceID: "er-gone", Content: "deleted row"},
		Embedding: embedder.vector("deleted row"),
	}
	require.NoError(t, store.Upsert(ctx, []domain.EmbeddedChunk{stale}))

	svc := NewIngestionService([]driven.SourceNormaliser{
		&sliceNormaliser{sourceType: domain.SourceTable},
	}, embedder, store, nil, 16)
	_, err := svc.Run(ctx)
	require.NoError(t, err)

	n, err := store.Count(ctx, domain.SourceTable)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIngestionService_NormaliserErrorAborts(t *testing.T) {
	captureLog(t)
	ctx := context.Background()
	store := memory.NewVectorStore()

	svc := NewIngestionService([]driven.SourceNormaliser{
		&sliceNormaliser{sourceType: domain.SourceDocument, chunks: textChunks(domain.SourceDocument, "SSP.docx", "a", "b")},
		&sliceNormaliser{sourceType: domain.SourceReport, err: fmt.Errorf("%w: read report: missing", domain.ErrDataSource)},
		&sliceNormaliser{sourceType: domain.SourceTable, chunks: textChunks(domain.SourceTable, "er-1", "row")},
	}, newBagEmbedder(), store, nil, 16)

	report, err := svc.Run(ctx)
	assert.ErrorIs(t, err, domain.ErrDataSource)
	assert.Nil(t, report)

	docs, _ := store.Count(ctx, domain.SourceDocument)
	rows, _ := store.Count(ctx, domain.SourceTable)
	assert.Equal(t, 2, docs, "earlier sources are not rolled back")
	assert.Zero(t, rows, "later sources are not ingested")
}

func TestIngestionService_EmbedErrorAborts(t *testing.T) {
	captureLog(t)
	embedder := newBagEmbedder()
	embedder.err = &domain.UpstreamError{Service: "openai embeddings", StatusCode: 429, Body: "rate limited"}

	svc := NewIngestionService(testNormalisers(), embedder, memory.NewVectorStore(), nil, 16)
	_, err := svc.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestIngestionService_RejectsForeignChunks(t *testing.T) {
	captureLog(t)
	svc := NewIngestionService([]driven.SourceNormaliser{
		&sliceNormaliser{sourceType: domain.SourceReport, chunks: textChunks(domain.SourceTable, "er-1", "row")},
	}, newBagEmbedder(), memory.NewVectorStore(), nil, 16)

	_, err := svc.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrDataSource)
}

func TestIngestionService_LeaseHeld(t *testing.T) {
	captureLog(t)
	ctx := context.Background()
	store := memory.NewVectorStore()
	embedder := newBagEmbedder()
	lock := memory.NewIngestLock()
	require.NoError(t, lock.Acquire(ctx, "someone-else"))

	existing := domain.EmbeddedChunk{
		Chunk:     domain.Chunk{SourceType: domain.SourceDocument, SourceID: "SSP.docx", Content: "kept"},
		Embedding: embedder.vector("kept"),
	}
	require.NoError(t, store.Upsert(ctx, []domain.EmbeddedChunk{existing}))

	svc := NewIngestionService(testNormalisers(), embedder, store, lock, 16)
	_, err := svc.Run(ctx)
	assert.ErrorIs(t, err, domain.ErrIngestionInProgress)

	n, _ := store.Count(ctx, domain.SourceDocument)
	assert.Equal(t, 1, n, "nothing is cleared while another run holds the lease")
}

func TestIngestionService_ReleasesLease(t *testing.T) {
	captureLog(t)
	ctx := context.Background()
	lock := memory.NewIngestLock()

	svc := NewIngestionService([]driven.SourceNormaliser{
		&sliceNormaliser{sourceType: domain.SourceReport, err: domain.ErrDataSource},
	}, newBagEmbedder(), memory.NewVectorStore(), lock, 16)
	_, err := svc.Run(ctx)
	require.Error(t, err)

	assert.NoError(t, lock.Acquire(ctx, "next-run"))
}

func TestIngestionService_DefaultBatchSize(t *testing.T) {
	svc := NewIngestionService(nil, newBagEmbedder(), memory.NewVectorStore(), nil, 0)
	assert.Equal(t, domain.DefaultBatchSize, svc.batchSize)
}

func TestIngestionService_BlankDocumentKeepsOtherSources(t *testing.T) {
	buf := captureLog(t)
	ctx := context.Background()
	store := memory.NewVectorStore()

	path := filepath.Join(t.TempDir(), "SSP.txt")
	require.NoError(t, os.WriteFile(path, []byte("   \n"), 0o600))

	sources := []driven.SourceNormaliser{
		document.New(document.Config{Path: path}, fallback.NewChain(plaintext.New())),
		&sliceNormaliser{sourceType: domain.SourceReport, chunks: textChunks(domain.SourceReport, "CVE-2024-0001", numbered("cve", 3)...)},
		&sliceNormaliser{sourceType: domain.SourceTable, chunks: textChunks(domain.SourceTable, "er-1", "evidence row")},
	}

	report, err := NewIngestionService(sources, newBagEmbedder(), store, nil, 16).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Chunks[domain.SourceDocument])
	assert.Equal(t, 3, report.Chunks[domain.SourceReport])
	assert.Equal(t, 1, report.Chunks[domain.SourceTable])
	assert.Contains(t, buf.String(), "no text extracted from SSP.txt")

	n, err := store.Count(ctx, domain.SourceReport)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
