package driven

import (
	"context"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

// AuditStore is the append-only audit trail.
// Records are never updated once written.
type AuditStore interface {
	// RecordDeletion appends a deletion audit record.
	RecordDeletion(ctx context.Context, audit *domain.DeletionAudit) error

	// ListDeletions returns deletion records, most recent first.
	ListDeletions(ctx context.Context, filter domain.AuditFilter) ([]domain.DeletionAudit, error)

	// RecordRepair appends a repair action record.
	RecordRepair(ctx context.Context, action *domain.RepairAction) error

	// ListRepairs returns repair records, most recent first.
	// A limit of zero returns all records.
	ListRepairs(ctx context.Context, limit int) ([]domain.RepairAction, error)
}
