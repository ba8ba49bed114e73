package driven

import (
	"time"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

// Metrics receives operational measurements from the core.
type Metrics interface {
	// ObserveDeletion records the terminal state and latency of a deletion.
	ObserveDeletion(state domain.DeletionState, elapsed time.Duration)

	// ObserveRollback records a rollback attempt.
	ObserveRollback(success bool)

	// ObserveIntegrity records the result of an integrity check.
	ObserveIntegrity(report *domain.IntegrityReport)

	// ObserveRepair records the actions taken by a repair pass.
	ObserveRepair(report *domain.RepairReport)
}
