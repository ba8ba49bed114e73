package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driven"
)

// Ensure AuditStore implements the interface.
var _ driven.AuditStore = (*AuditStore)(nil)

// AuditStore is an in-memory append-only audit trail.
type AuditStore struct {
	mu        sync.RWMutex
	deletions []domain.DeletionAudit
	repairs   []domain.RepairAction
}

// NewAuditStore creates a new in-memory audit store.
func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

// RecordDeletion appends a deletion audit record.
func (s *AuditStore) RecordDeletion(_ context.Context, audit *domain.DeletionAudit) error {
	if audit == nil {
		return domain.ErrInvalidInput
	}
	s.appendDeletion(audit)
	return nil
}

func (s *AuditStore) appendDeletion(audit *domain.DeletionAudit) {
	entry := *audit
	entry.Phases = append([]domain.PhaseOutcome(nil), audit.Phases...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletions = append(s.deletions, entry)
}

// ListDeletions returns deletion records, most recent first.
func (s *AuditStore) ListDeletions(_ context.Context, filter domain.AuditFilter) ([]domain.DeletionAudit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.DeletionAudit, 0)
	for i := len(s.deletions) - 1; i >= 0; i-- {
		a := s.deletions[i]
		if filter.DocumentID != "" && a.DocumentID != filter.DocumentID {
			continue
		}
		if filter.ManualOnly && !a.RequiresManualIntervention {
			continue
		}
		result = append(result, a)
		if filter.Limit > 0 && len(result) == filter.Limit {
			break
		}
	}
	return result, nil
}

// RecordRepair appends a repair action record.
func (s *AuditStore) RecordRepair(_ context.Context, action *domain.RepairAction) error {
	if action == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repairs = append(s.repairs, *action)
	return nil
}

// ListRepairs returns repair records, most recent first.
func (s *AuditStore) ListRepairs(_ context.Context, limit int) ([]domain.RepairAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.RepairAction, 0, len(s.repairs))
	for i := len(s.repairs) - 1; i >= 0; i-- {
		result = append(result, s.repairs[i])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}
