package mcp

import (
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Deletion removes documents from every store.
	Deletion driving.DeletionService

	// Integrity runs the read-only integrity check.
	Integrity driving.IntegrityService

	// Repair runs auto-repair. Optional; the tool is omitted without it.
	Repair driving.RepairService

	// Audit reads the audit trail. Optional; resources serve empty lists without it.
	Audit driving.AuditService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Deletion == nil {
		return ErrMissingDeletionService
	}
	if p.Integrity == nil {
		return ErrMissingIntegrityService
	}
	return nil
}
