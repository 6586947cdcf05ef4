package driven

import (
	"context"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
)

// SchedulerStore persists periodic refresh state so a restarted server
// resumes the schedule instead of re-ingesting immediately.
type SchedulerStore interface {
	// GetTask retrieves a scheduled task by ID.
	// Returns nil and no error if the task does not exist.
	GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error)

	// ListTasks returns all scheduled tasks.
	ListTasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// SaveTask creates or updates a task keyed by ID.
	SaveTask(ctx context.Context, task *domain.ScheduledTask) error

	// RecordResult appends a run to the task history.
	RecordResult(ctx context.Context, result *domain.TaskResult) error

	// GetTaskHistory returns the most recent runs first.
	GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)

	// PruneHistory keeps only the newest keep results per task.
	PruneHistory(ctx context.Context, keep int) error
}
