// Package tui provides an interactive operator console for sercha-integrity.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driving"
)

// Ports aggregates the driving ports the console uses.
type Ports struct {
	// Integrity runs the read-only integrity check.
	Integrity driving.IntegrityService

	// Audit reads the deletion audit trail.
	Audit driving.AuditService

	// Repair runs the auto-repairer. Optional.
	Repair driving.RepairService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Integrity == nil {
		return ErrMissingIntegrityService
	}
	if p.Audit == nil {
		return ErrMissingAuditService
	}
	return nil
}
