// Package table normalises evidence-request rows, one chunk per row.
package table

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driven"
	"github.com/custodia-labs/evidence-rag/internal/logger"
	"github.com/custodia-labs/evidence-rag/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.SourceNormaliser = (*Normaliser)(nil)

const missing = "n/a"

// Normaliser reads every row of the evidence-request view.
type Normaliser struct {
	source driven.EvidenceSource
}

// New creates a table normaliser over source.
func New(source driven.EvidenceSource) *Normaliser {
	return &Normaliser{source: source}
}

// SourceType returns domain.SourceTable.
func (n *Normaliser) SourceType() domain.SourceType {
	return domain.SourceTable
}

// Normalise streams one chunk per row.
func (n *Normaliser) Normalise(ctx context.Context) (<-chan domain.Chunk, <-chan error) {
	return normalisers.Stream(ctx, n.produce)
}

func (n *Normaliser) produce(ctx context.Context, emit normalisers.EmitFunc) error {
	logger.Progress("Preparing evidence request rows...")

	rows, err := n.source.ListEvidenceRequests(ctx, 0)
	if err != nil {
		return fmt.Errorf("%w: list evidence requests: %w", domain.ErrDataSource, err)
	}

	for i, row := range rows {
		if !emit(RowChunk(i, row)) {
			return ctx.Err()
		}
	}

	logger.Debug("table produced %d chunks", len(rows))
	return nil
}

// RowChunk converts one evidence-request row into its chunk.
func RowChunk(index int, row domain.EvidenceRow) domain.Chunk {
	content := strings.Join([]string{
		"Evidence request: " + value(row, domain.EvidenceColumnDescription),
		fmt.Sprintf("Control: %s (%s)",
			value(row, domain.EvidenceColumnControlName),
			value(row, domain.EvidenceColumnControlUUID)),
		fmt.Sprintf("Audit: %s (%s)",
			value(row, domain.EvidenceColumnAuditName),
			value(row, domain.EvidenceColumnAuditUUID)),
	}, "\n")

	sourceID := row.ID()
	if sourceID == "" {
		sourceID = fmt.Sprintf("row-%d", index)
	}

	metadata := make(map[string]any, len(row))
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		metadata[k] = v
	}

	return domain.Chunk{
		SourceType: domain.SourceTable,
		SourceID:   sourceID,
		ChunkIndex: 0,
		Content:    content,
		Metadata:   metadata,
	}
}

func value(row domain.EvidenceRow, column string) string {
	if v := strings.TrimSpace(row.String(column)); v != "" {
		return v
	}
	return missing
}
