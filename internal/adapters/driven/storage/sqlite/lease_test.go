package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
)

func testLock(t *testing.T, store *Store, now *time.Time) *ingestLock {
	t.Helper()
	lock, ok := store.IngestLock(time.Minute).(*ingestLock)
	require.True(t, ok)
	lock.now = func() time.Time { return *now }
	return lock
}

func TestIngestLock_AcquireAndRelease(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	lock := testLock(t, store, &now)

	require.NoError(t, lock.Acquire(ctx, "cli-1"))

	err := lock.Acquire(ctx, "cli-2")
	assert.ErrorIs(t, err, domain.ErrIngestionInProgress)
	assert.Contains(t, err.Error(), "cli-1")

	require.NoError(t, lock.Release(ctx, "cli-1"))
	assert.NoError(t, lock.Acquire(ctx, "cli-2"))
}

func TestIngestLock_SameHolderRenews(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	lock := testLock(t, store, &now)

	require.NoError(t, lock.Acquire(ctx, "watcher"))
	now = now.Add(50 * time.Second)
	require.NoError(t, lock.Acquire(ctx, "watcher"))

	var expiresAt int64
	require.NoError(t, store.DB().QueryRow("SELECT expires_at FROM ingest_lease WHERE id = 1").Scan(&expiresAt))
	assert.Equal(t, now.Add(time.Minute).UnixMilli(), expiresAt)
}

func TestIngestLock_ExpiredLeaseIsTakenOver(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	lock := testLock(t, store, &now)

	require.NoError(t, lock.Acquire(ctx, "crashed"))
	now = now.Add(2 * time.Minute)
	require.NoError(t, lock.Acquire(ctx, "next"))

	var holder string
	require.NoError(t, store.DB().QueryRow("SELECT holder FROM ingest_lease WHERE id = 1").Scan(&holder))
	assert.Equal(t, "next", holder)
}

func TestIngestLock_ReleaseByOtherHolderIsNoop(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	lock := testLock(t, store, &now)

	require.NoError(t, lock.Acquire(ctx, "owner"))
	require.NoError(t, lock.Release(ctx, "intruder"))
	assert.ErrorIs(t, lock.Acquire(ctx, "intruder"), domain.ErrIngestionInProgress)
}

func TestIngestLock_EmptyHolder(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.IngestLock(0).Acquire(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
