package driven

import (
	"context"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

// SchedulerStore keeps maintenance task state and run history so the
// schedule survives restarts.
type SchedulerStore interface {
	// GetTask returns nil, nil for an unknown task.
	GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error)

	// ListTasks returns every task ordered by ID.
	ListTasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// SaveTask inserts or replaces a task.
	SaveTask(ctx context.Context, task *domain.ScheduledTask) error

	RecordResult(ctx context.Context, result *domain.TaskResult) error

	// RecentResults returns up to limit runs of a task, newest first.
	RecentResults(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)

	// PruneHistory keeps the newest keep runs per task.
	PruneHistory(ctx context.Context, keep int) error
}
