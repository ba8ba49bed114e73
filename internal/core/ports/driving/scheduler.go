package driving

import (
	"context"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

// Scheduler runs the periodic integrity sweep, auto-repair and trash reap.
type Scheduler interface {
	// Start blocks until ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop waits for in-flight tasks to finish.
	Stop() error

	// Status lists every task with up to recent past runs each.
	Status(ctx context.Context, recent int) ([]domain.TaskStatus, error)
}
