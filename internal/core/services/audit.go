package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driving"
)

// Ensure AuditService implements the interface.
var _ driving.AuditService = (*AuditService)(nil)

// AuditService exposes the audit trail read-only.
type AuditService struct {
	store driven.AuditStore
}

// NewAuditService creates a new audit service.
func NewAuditService(store driven.AuditStore) *AuditService {
	return &AuditService{store: store}
}

// ListDeletions returns deletion audit records, most recent first.
func (s *AuditService) ListDeletions(ctx context.Context, filter domain.AuditFilter) ([]domain.DeletionAudit, error) {
	if filter.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidInput)
	}
	return s.store.ListDeletions(ctx, filter)
}

// ListRepairs returns repair audit records, most recent first.
func (s *AuditService) ListRepairs(ctx context.Context, limit int) ([]domain.RepairAction, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidInput)
	}
	return s.store.ListRepairs(ctx, limit)
}
