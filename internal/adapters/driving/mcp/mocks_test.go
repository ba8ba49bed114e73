package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

// mockDeletionService is a mock implementation of driving.DeletionService.
type mockDeletionService struct {
	outcome *domain.DeletionOutcome
	err     error
	lastReq domain.DeletionRequest
}

func (m *mockDeletionService) DeleteDocument(
	_ context.Context,
	req domain.DeletionRequest,
) (*domain.DeletionOutcome, error) {
	m.lastReq = req
	return m.outcome, m.err
}

// mockIntegrityService is a mock implementation of driving.IntegrityService.
type mockIntegrityService struct {
	report *domain.IntegrityReport
	err    error
}

func (m *mockIntegrityService) RunIntegrityCheck(_ context.Context) (*domain.IntegrityReport, error) {
	return m.report, m.err
}

// mockRepairService is a mock implementation of driving.RepairService.
type mockRepairService struct {
	report *domain.RepairReport
	err    error
}

func (m *mockRepairService) RunAutoRepair(_ context.Context) (*domain.RepairReport, error) {
	return m.report, m.err
}

// mockAuditService is a mock implementation of driving.AuditService.
type mockAuditService struct {
	deletions  []domain.DeletionAudit
	repairs    []domain.RepairAction
	err        error
	lastFilter domain.AuditFilter
	lastLimit  int
}

func (m *mockAuditService) ListDeletions(
	_ context.Context,
	filter domain.AuditFilter,
) ([]domain.DeletionAudit, error) {
	m.lastFilter = filter
	return m.deletions, m.err
}

func (m *mockAuditService) ListRepairs(_ context.Context, limit int) ([]domain.RepairAction, error) {
	m.lastLimit = limit
	return m.repairs, m.err
}

func requiredPorts() *Ports {
	return &Ports{
		Deletion:  &mockDeletionService{},
		Integrity: &mockIntegrityService{},
	}
}
