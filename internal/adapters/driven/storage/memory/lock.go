package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driven"
)

// Ensure IngestLock implements the interface.
var _ driven.IngestLock = (*IngestLock)(nil)

// IngestLock is a process-local driven.IngestLock. Leases never expire.
type IngestLock struct {
	mu     sync.Mutex
	holder string
}

// NewIngestLock creates a free lock.
func NewIngestLock() *IngestLock {
	return &IngestLock{}
}

// Acquire takes the lock for holder, or succeeds if holder already has it.
func (l *IngestLock) Acquire(_ context.Context, holder string) error {
	if holder == "" {
		return fmt.Errorf("%w: empty lease holder", domain.ErrInvalidInput)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holder != "" && l.holder != holder {
		return fmt.Errorf("%w: held by %s", domain.ErrIngestionInProgress, l.holder)
	}
	l.holder = holder
	return nil
}

// Release frees the lock if holder owns it.
func (l *IngestLock) Release(_ context.Context, holder string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holder == holder {
		l.holder = ""
	}
	return nil
}
