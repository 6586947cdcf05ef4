package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/evidence-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/evidence-rag/internal/core/domain"
)

func seedStore(t *testing.T, embedder *bagEmbedder, chunks ...domain.Chunk) *memory.VectorStore {
	t.Helper()
	store := memory.NewVectorStore()
	rows := make([]domain.EmbeddedChunk, len(chunks))
	for i, c := range chunks {
		rows[i] = domain.EmbeddedChunk{Chunk: c, Embedding: embedder.vector(c.Content)}
	}
	require.NoError(t, store.Upsert(context.Background(), rows))
	return store
}

func TestRetrievalService_ClampsPerSource(t *testing.T) {
	embedder := newBagEmbedder()
	var chunks []domain.Chunk
	for _, st := range domain.SourceTypes {
		chunks = append(chunks, textChunks(st, "id", numbered("mfa", 10)...)...)
	}
	store := seedStore(t, embedder, chunks...)
	svc := NewRetrievalService(embedder, store, domain.DefaultConfig().Retrieval)

	tests := []struct {
		topK      int
		perSource int
	}{
		{1, 3},
		{4, 4},
		{20, 8},
		{0, 4},
		{-2, 4},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("topK=%d", tt.topK), func(t *testing.T) {
			merged, err := svc.Retrieve(context.Background(), "mfa passage", tt.topK)
			require.NoError(t, err)
			assert.Equal(t, tt.perSource, merged.PerSource)
			for _, st := range domain.SourceTypes {
				assert.Len(t, merged.Group(st), tt.perSource, st)
			}
		})
	}
}

func TestRetrievalService_EmptyQuery(t *testing.T) {
	embedder := newBagEmbedder()
	svc := NewRetrievalService(embedder, memory.NewVectorStore(), domain.DefaultConfig().Retrieval)

	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := svc.Retrieve(context.Background(), q, 4)
		assert.ErrorIs(t, err, domain.ErrEmptyQuery)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}

	embeds, _ := embedder.calls()
	assert.Zero(t, embeds)
}

func TestRetrievalService_GroupsAreIsolatedAndOrdered(t *testing.T) {
	embedder := newBagEmbedder()
	store := seedStore(t, embedder,
		domain.Chunk{SourceType: domain.SourceDocument, SourceID: "SSP.docx", ChunkIndex: 0, Content: "backups are nightly"},
		domain.Chunk{SourceType: domain.SourceDocument, SourceID: "SSP.docx", ChunkIndex: 1, Content: "MFA is enforced for admins"},
		domain.Chunk{SourceType: domain.SourceReport, SourceID: "CVE-2024-0001", Content: "openssl buffer overflow"},
	)
	svc := NewRetrievalService(embedder, store, domain.DefaultConfig().Retrieval)

	merged, err := svc.Retrieve(context.Background(), "  is MFA enforced  ", 4)
	require.NoError(t, err)

	assert.Equal(t, "is MFA enforced", merged.Query)
	docs := merged.Group(domain.SourceDocument)
	require.Len(t, docs, 2)
	assert.Equal(t, 1, docs[0].ChunkIndex)
	assert.GreaterOrEqual(t, docs[0].Similarity, docs[1].Similarity)

	require.Len(t, merged.Group(domain.SourceReport), 1)
	assert.Equal(t, domain.SourceReport, merged.Group(domain.SourceReport)[0].SourceType)

	assert.NotNil(t, merged.Group(domain.SourceTable))
	assert.Empty(t, merged.Group(domain.SourceTable))
	assert.Equal(t, 3, merged.Total())
	assert.Equal(t, RenderContext(merged), merged.Text)
}

func TestRetrievalService_EmbedError(t *testing.T) {
	embedder := newBagEmbedder()
	embedder.err = &domain.UpstreamError{Service: "openai embeddings", StatusCode: 401, Body: "bad key"}
	svc := NewRetrievalService(embedder, memory.NewVectorStore(), domain.DefaultConfig().Retrieval)

	_, err := svc.Retrieve(context.Background(), "mfa", 4)
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestRetrievalService_SearchError(t *testing.T) {
	embedder := newBagEmbedder()
	store := &failingSearchStore{
		VectorStore: seedStore(t, embedder, domain.Chunk{SourceType: domain.SourceDocument, SourceID: "SSP.docx", Content: "mfa"}),
		failOn:      domain.SourceReport,
		err:         fmt.Errorf("%w: disk I/O error", domain.ErrStore),
	}
	svc := NewRetrievalService(embedder, store, domain.DefaultConfig().Retrieval)

	merged, err := svc.Retrieve(context.Background(), "mfa", 4)
	assert.ErrorIs(t, err, domain.ErrStore)
	assert.Contains(t, err.Error(), "searching report")
	assert.Nil(t, merged)
}

func TestRenderContext_DocOnly(t *testing.T) {
	merged := &domain.MergedContext{
		Groups: map[domain.SourceType][]domain.RetrievedRow{
			domain.SourceDocument: {
				{StoredRow: domain.StoredRow{EmbeddedChunk: domain.EmbeddedChunk{Chunk: domain.Chunk{SourceID: "SSP.docx", Content: "MFA is required."}}}},
				{StoredRow: domain.StoredRow{EmbeddedChunk: domain.EmbeddedChunk{Chunk: domain.Chunk{SourceID: "SSP.docx", Content: "Backups run nightly."}}}},
			},
			domain.SourceReport: {},
		},
	}

	want := "=== DOC SOURCES ===\n" +
		"Source 1 (doc)\nID: SSP.docx\nContent: MFA is required.\n\n" +
		"Source 2 (doc)\nID: SSP.docx\nContent: Backups run nightly."
	assert.Equal(t, want, RenderContext(merged))
}

func TestRenderContext_AllSources(t *testing.T) {
	row := func(id, content string) domain.RetrievedRow {
		return domain.RetrievedRow{StoredRow: domain.StoredRow{EmbeddedChunk: domain.EmbeddedChunk{Chunk: domain.Chunk{SourceID: id, Content: content}}}}
	}
	merged := &domain.MergedContext{
		Groups: map[domain.SourceType][]domain.RetrievedRow{
			domain.SourceTable:    {row("er-1", "Evidence request: MFA screenshots")},
			domain.SourceReport:   {row("CVE-1", "Vulnerability: CVE-1")},
			domain.SourceDocument: {row("SSP.docx", "MFA")},
		},
	}

	want := "=== DOC SOURCES ===\nSource 1 (doc)\nID: SSP.docx\nContent: MFA\n\n" +
		"=== JSON SOURCES ===\nSource 1 (json)\nID: CVE-1\nContent: Vulnerability: CVE-1\n\n" +
		"=== DB SOURCES ===\nSource 1 (db)\nID: er-1\nContent: Evidence request: MFA screenshots"
	assert.Equal(t, want, RenderContext(merged))
}

func TestRenderContext_Empty(t *testing.T) {
	assert.Empty(t, RenderContext(&domain.MergedContext{}))
	assert.Empty(t, RenderContext(nil))
}
