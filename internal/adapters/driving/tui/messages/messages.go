// Package messages defines Bubbletea message types for the console.
package messages

import (
	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewDashboard shows the latest integrity report.
	ViewDashboard ViewType = iota
	// ViewAudit lists deletion attempts.
	ViewAudit
	// ViewAuditDetail shows the phases of one deletion attempt.
	ViewAuditDetail
	// ViewHelp is the keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewDashboard:
		return "dashboard"
	case ViewAudit:
		return "audit"
	case ViewAuditDetail:
		return "audit_detail"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// IntegrityChecked carries the result of an integrity check.
type IntegrityChecked struct {
	Report *domain.IntegrityReport
	Err    error
}

// RepairCompleted carries the result of an auto-repair pass.
// Report may be set alongside Err when some documents failed.
type RepairCompleted struct {
	Report *domain.RepairReport
	Err    error
}

// AuditsLoaded carries deletion audit records.
type AuditsLoaded struct {
	Audits []domain.DeletionAudit
	Err    error
}

// AuditSelected opens one deletion attempt in the detail view.
type AuditSelected struct {
	Audit domain.DeletionAudit
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
