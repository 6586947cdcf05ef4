package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
)

func TestEvidenceService_ClampsLimit(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{0, 200},
		{-1, 200},
		{50, 50},
		{200, 200},
		{1000, 200},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("limit=%d", tt.limit), func(t *testing.T) {
			source := &stubEvidence{}
			svc := NewEvidenceService(source, domain.DefaultEvidenceLimit)

			rows, err := svc.List(context.Background(), tt.limit)
			require.NoError(t, err)
			assert.NotNil(t, rows)
			assert.Equal(t, tt.want, source.gotLimit)
		})
	}
}

func TestEvidenceService_DefaultCap(t *testing.T) {
	source := &stubEvidence{}
	svc := NewEvidenceService(source, 0)

	_, err := svc.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultEvidenceLimit, source.gotLimit)
}

func TestEvidenceService_ReturnsRows(t *testing.T) {
	source := &stubEvidence{rows: []domain.EvidenceRow{{domain.EvidenceColumnID: "er-1"}, {domain.EvidenceColumnID: "er-2"}}}
	svc := NewEvidenceService(source, 1)

	rows, err := svc.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "er-1", rows[0].ID())
}

func TestEvidenceService_Error(t *testing.T) {
	source := &stubEvidence{err: fmt.Errorf("%w: no such table", domain.ErrStore)}
	svc := NewEvidenceService(source, 200)

	_, err := svc.List(context.Background(), 10)
	assert.ErrorIs(t, err, domain.ErrStore)
}
