package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driven"
)

// ingestLock implements driven.IngestLock with a single-row lease table.
// A lease past its expiry is treated as abandoned and can be taken over.
type ingestLock struct {
	store *Store
	ttl   time.Duration
	now   func() time.Time
}

var _ driven.IngestLock = (*ingestLock)(nil)

// Acquire takes the lease for holder, or renews it when holder already owns it.
func (l *ingestLock) Acquire(ctx context.Context, holder string) error {
	if holder == "" {
		return fmt.Errorf("%w: empty lease holder", domain.ErrInvalidInput)
	}

	now := l.now()
	tx, err := l.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning lease transaction: %w", domain.ErrStore, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var current string
	var expiresAt int64
	err = tx.QueryRowContext(ctx, "SELECT holder, expires_at FROM ingest_lease WHERE id = 1").Scan(&current, &expiresAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("%w: reading lease: %w", domain.ErrStore, err)
	case current != holder && expiresAt > now.UnixMilli():
		return fmt.Errorf("%w: held by %s until %s", domain.ErrIngestionInProgress,
			current, time.UnixMilli(expiresAt).Format(time.RFC3339))
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ingest_lease (id, holder, acquired_at, expires_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			holder = excluded.holder,
			acquired_at = excluded.acquired_at,
			expires_at = excluded.expires_at
	`, holder, now.UnixMilli(), now.Add(l.ttl).UnixMilli())
	if err != nil {
		return fmt.Errorf("%w: writing lease: %w", domain.ErrStore, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing lease: %w", domain.ErrStore, err)
	}
	return nil
}

// Release drops the lease if holder still owns it.
func (l *ingestLock) Release(ctx context.Context, holder string) error {
	_, err := l.store.db.ExecContext(ctx, "DELETE FROM ingest_lease WHERE id = 1 AND holder = ?", holder)
	if err != nil {
		return fmt.Errorf("%w: releasing lease: %w", domain.ErrStore, err)
	}
	return nil
}
