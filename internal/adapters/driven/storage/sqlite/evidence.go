package sqlite

import (
	"context"
	"fmt"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driven"
)

// evidenceSource implements driven.EvidenceSource over the
// v_evidence_requests_with_context view.
type evidenceSource struct {
	store *Store
}

var _ driven.EvidenceSource = (*evidenceSource)(nil)

// ListEvidenceRequests returns rows with every column the view exposes,
// so columns added to the view flow into chunk metadata unchanged.
func (s *evidenceSource) ListEvidenceRequests(ctx context.Context, limit int) ([]domain.EvidenceRow, error) {
	query := "SELECT * FROM v_evidence_requests_with_context"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying evidence requests: %w", domain.ErrStore, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: reading evidence columns: %w", domain.ErrStore, err)
	}

	var result []domain.EvidenceRow //nolint:prealloc // size unknown from query
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%w: scanning evidence row: %w", domain.ErrStore, err)
		}

		row := make(domain.EvidenceRow, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating evidence rows: %w", domain.ErrStore, err)
	}

	return result, nil
}
