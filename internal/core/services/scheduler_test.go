package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driven"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driving"
)

// --- Mock implementations for scheduler testing ---

// mockSchedulerStore implements driven.SchedulerStore for testing.
type mockSchedulerStore struct {
	mu       sync.RWMutex
	tasks    map[string]*domain.ScheduledTask
	results  map[string][]domain.TaskResult
	saveErr  error
	listErr  error
	getErr   error
	pruneErr error
}

func newMockSchedulerStore() *mockSchedulerStore {
	return &mockSchedulerStore{
		tasks:   make(map[string]*domain.ScheduledTask),
		results: make(map[string][]domain.TaskResult),
	}
}

func (m *mockSchedulerStore) GetTask(_ context.Context, taskID string) (*domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	task, exists := m.tasks[taskID]
	if !exists {
		return nil, nil
	}
	// Return a copy
	taskCopy := *task
	return &taskCopy, nil
}

func (m *mockSchedulerStore) ListTasks(_ context.Context) ([]domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	tasks := make([]domain.ScheduledTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, *t)
	}
	return tasks, nil
}

func (m *mockSchedulerStore) SaveTask(_ context.Context, task *domain.ScheduledTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if task == nil {
		return domain.ErrInvalidInput
	}
	taskCopy := *task
	m.tasks[task.ID] = &taskCopy
	return nil
}

func (m *mockSchedulerStore) RecordResult(_ context.Context, result *domain.TaskResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if result == nil {
		return domain.ErrInvalidInput
	}
	m.results[result.TaskID] = append(m.results[result.TaskID], *result)
	return nil
}

func (m *mockSchedulerStore) GetTaskHistory(_ context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	results := m.results[taskID]
	if len(results) > limit {
		results = results[len(results)-limit:]
	}
	return results, nil
}

func (m *mockSchedulerStore) PruneHistory(_ context.Context, _ int) error {
	return m.pruneErr
}

// mockIngestion implements driving.IngestionService for testing.
type mockIngestion struct {
	mu     sync.Mutex
	calls  int
	report *domain.IngestReport
	err    error
	block  chan struct{}
}

func (m *mockIngestion) Run(ctx context.Context) (*domain.IngestReport, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.report != nil {
		return m.report, nil
	}
	return domain.NewIngestReport(time.Now()), nil
}

func (m *mockIngestion) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockSchedulerStore) history(taskID string) []domain.TaskResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.TaskResult(nil), m.results[taskID]...)
}

// Ensure mocks implement interfaces
var _ driven.SchedulerStore = (*mockSchedulerStore)(nil)
var _ driving.IngestionService = (*mockIngestion)(nil)

// ==================== Scheduler Tests ====================

func TestNewScheduler(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		wantTick time.Duration
	}{
		{"hourly", time.Hour, time.Minute},
		{"sub-minute", 10 * time.Second, 10 * time.Second},
		{"disabled", 0, time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scheduler := NewScheduler(tt.interval, newMockSchedulerStore(), &mockIngestion{})
			require.NotNil(t, scheduler)
			assert.Equal(t, tt.interval, scheduler.interval)
			assert.Equal(t, tt.wantTick, scheduler.tick)
		})
	}
}

func TestScheduler_StartStop(t *testing.T) {
	scheduler := NewScheduler(time.Hour, newMockSchedulerStore(), &mockIngestion{})

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = scheduler.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)

	cancel()
	require.NoError(t, scheduler.Stop())

	wg.Wait()
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	scheduler := NewScheduler(time.Hour, newMockSchedulerStore(), nil)
	require.NoError(t, scheduler.Stop())
}

func TestScheduler_DoubleStart(t *testing.T) {
	scheduler := NewScheduler(time.Hour, newMockSchedulerStore(), &mockIngestion{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = scheduler.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)

	// Second start should return immediately (already running)
	assert.NoError(t, scheduler.Start(context.Background()))

	cancel()
	scheduler.Stop() //nolint:errcheck
	wg.Wait()
}

func TestScheduler_InitialiseTasks(t *testing.T) {
	store := newMockSchedulerStore()
	scheduler := NewScheduler(time.Hour, store, &mockIngestion{})

	ctx := context.Background()
	require.NoError(t, scheduler.initialiseTasks(ctx))

	task, err := store.GetTask(ctx, domain.TaskIDSourceRefresh)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, "Source Refresh", task.Name)
	assert.True(t, task.Enabled)
	assert.Equal(t, time.Hour, task.Interval)
	assert.True(t, task.NextRun.After(time.Now()))
}

func TestScheduler_InitialiseTasks_Disabled(t *testing.T) {
	store := newMockSchedulerStore()
	scheduler := NewScheduler(0, store, &mockIngestion{})

	ctx := context.Background()
	require.NoError(t, scheduler.initialiseTasks(ctx))

	task, err := store.GetTask(ctx, domain.TaskIDSourceRefresh)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.False(t, task.Enabled)
	assert.False(t, task.IsDue(time.Now().Add(24*time.Hour)))
}

func TestScheduler_EnsureTask_UpdateInterval(t *testing.T) {
	store := newMockSchedulerStore()
	scheduler := NewScheduler(time.Hour, store, &mockIngestion{})
	ctx := context.Background()

	require.NoError(t, scheduler.ensureTask(ctx, "test-task", "Test Task", time.Hour))
	require.NoError(t, scheduler.ensureTask(ctx, "test-task", "Test Task", 2*time.Hour))

	task, err := store.GetTask(ctx, "test-task")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, task.Interval)
}

func TestScheduler_RunSourceRefresh(t *testing.T) {
	report := domain.NewIngestReport(time.Now())
	report.Chunks[domain.SourceDocument] = 5
	report.Chunks[domain.SourceTable] = 2
	ingest := &mockIngestion{report: report}

	scheduler := NewScheduler(time.Hour, newMockSchedulerStore(), ingest)

	n, err := scheduler.runSourceRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, 1, ingest.Calls())
}

func TestScheduler_RunSourceRefresh_NilIngestion(t *testing.T) {
	scheduler := NewScheduler(time.Hour, newMockSchedulerStore(), nil)

	n, err := scheduler.runSourceRefresh(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestScheduler_CheckAndRunDueTasks(t *testing.T) {
	store := newMockSchedulerStore()
	ingest := &mockIngestion{}
	scheduler := NewScheduler(time.Hour, store, ingest)
	ctx := context.Background()

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:       domain.TaskIDSourceRefresh,
		Name:     "Source Refresh",
		Interval: time.Hour,
		NextRun:  time.Now().Add(-time.Minute),
		Enabled:  true,
	}))

	scheduler.checkAndRunDueTasks(ctx)
	scheduler.wg.Wait()

	assert.Equal(t, 1, ingest.Calls())

	task, err := store.GetTask(ctx, domain.TaskIDSourceRefresh)
	require.NoError(t, err)
	assert.True(t, task.NextRun.After(time.Now()))
	assert.False(t, task.LastSuccess.IsZero())

	history := store.history(domain.TaskIDSourceRefresh)
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
}

func TestScheduler_FailedRunIsRecorded(t *testing.T) {
	store := newMockSchedulerStore()
	ingest := &mockIngestion{err: domain.ErrIngestionInProgress}
	scheduler := NewScheduler(time.Hour, store, ingest)
	ctx := context.Background()

	task := &domain.ScheduledTask{ID: domain.TaskIDSourceRefresh, Interval: time.Hour, Enabled: true}
	scheduler.runTask(ctx, task)
	scheduler.wg.Wait()

	history := store.history(domain.TaskIDSourceRefresh)
	require.Len(t, history, 1)
	assert.False(t, history[0].Success)
	assert.Contains(t, history[0].Error, "ingestion in progress")

	saved, err := store.GetTask(ctx, domain.TaskIDSourceRefresh)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.LastError)
}

func TestScheduler_SkipsOverlappingRun(t *testing.T) {
	store := newMockSchedulerStore()
	ingest := &mockIngestion{block: make(chan struct{})}
	scheduler := NewScheduler(time.Hour, store, ingest)
	ctx := context.Background()

	task := domain.ScheduledTask{ID: domain.TaskIDSourceRefresh, Interval: time.Hour, Enabled: true}
	first, second := task, task
	scheduler.runTask(ctx, &first)
	assert.Eventually(t, func() bool { return ingest.Calls() == 1 }, time.Second, 5*time.Millisecond)

	scheduler.runTask(ctx, &second)
	close(ingest.block)
	scheduler.wg.Wait()

	assert.Equal(t, 1, ingest.Calls())
}

func TestScheduler_RunTask_UnknownTaskID(t *testing.T) {
	scheduler := NewScheduler(time.Hour, newMockSchedulerStore(), nil)

	task := &domain.ScheduledTask{
		ID:      "unknown-task",
		Name:    "Unknown",
		Enabled: true,
	}

	// This should just log and return, not panic
	scheduler.runTask(context.Background(), task)
	scheduler.wg.Wait()
}
