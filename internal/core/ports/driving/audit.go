package driving

import (
	"context"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

// AuditService reads the append-only audit trail.
type AuditService interface {
	ListDeletions(ctx context.Context, filter domain.AuditFilter) ([]domain.DeletionAudit, error)
	ListRepairs(ctx context.Context, limit int) ([]domain.RepairAction, error)
}
