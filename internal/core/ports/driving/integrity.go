package driving

import (
	"context"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

// IntegrityService detects drift between the relational store and the
// derived indices. It never mutates anything.
type IntegrityService interface {
	RunIntegrityCheck(ctx context.Context) (*domain.IntegrityReport, error)
}

// RepairService fixes drift found by the integrity check.
type RepairService interface {
	// RunAutoRepair requeues indexed documents missing derived ids and
	// fails documents stuck in flight. Safe to run repeatedly.
	RunAutoRepair(ctx context.Context) (*domain.RepairReport, error)
}
