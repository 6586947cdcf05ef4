package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
)

func TestIngestLock(t *testing.T) {
	ctx := context.Background()
	lock := NewIngestLock()

	require.NoError(t, lock.Acquire(ctx, "a"))
	require.NoError(t, lock.Acquire(ctx, "a"))
	assert.ErrorIs(t, lock.Acquire(ctx, "b"), domain.ErrIngestionInProgress)

	require.NoError(t, lock.Release(ctx, "b"))
	assert.ErrorIs(t, lock.Acquire(ctx, "b"), domain.ErrIngestionInProgress)

	require.NoError(t, lock.Release(ctx, "a"))
	assert.NoError(t, lock.Acquire(ctx, "b"))

	assert.ErrorIs(t, lock.Acquire(ctx, ""), domain.ErrInvalidInput)
}
