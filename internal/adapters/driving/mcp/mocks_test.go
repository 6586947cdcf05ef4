package mcp

import (
	"context"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	merged   *domain.MergedContext
	err      error
	gotQuery string
	gotTopK  int
}

func (m *mockRetrievalService) Retrieve(_ context.Context, query string, topK int) (*domain.MergedContext, error) {
	m.gotQuery, m.gotTopK = query, topK
	return m.merged, m.err
}

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	answer *domain.Answer
	err    error
}

func (m *mockQueryService) Ask(_ context.Context, _ string, _ int) (*domain.Answer, error) {
	return m.answer, m.err
}

// mockEvidenceService is a mock implementation of driving.EvidenceService.
type mockEvidenceService struct {
	rows []domain.EvidenceRow
	err  error
}

func (m *mockEvidenceService) List(_ context.Context, _ int) ([]domain.EvidenceRow, error) {
	return m.rows, m.err
}

func row(t domain.SourceType, id string, index int, content string, sim float64) domain.RetrievedRow {
	var r domain.RetrievedRow
	r.SourceType = t
	r.SourceID = id
	r.ChunkIndex = index
	r.Content = content
	r.Similarity = sim
	return r
}

func sampleContext() *domain.MergedContext {
	return &domain.MergedContext{
		Query:     "Is MFA enforced?",
		PerSource: 3,
		Groups: map[domain.SourceType][]domain.RetrievedRow{
			domain.SourceDocument: {
				row(domain.SourceDocument, "SSP.docx", 4, "MFA is enforced for privileged accounts.", 0.91),
				row(domain.SourceDocument, "SSP.docx", 2, "Accounts are reviewed quarterly.", 0.55),
			},
			domain.SourceReport: {},
			domain.SourceTable: {
				row(domain.SourceTable, "er-1", 0, "Evidence request: MFA screenshots", 0.88),
			},
		},
		Text: "=== DOC SOURCES ===\n...",
	}
}
