package domain

import "time"

// RepairActionType names what the auto-repairer did to a document.
type RepairActionType string

// Repair actions.
const (
	// RepairRequeued resets an indexed document missing derived ids to
	// pending and resubmits it to ingestion.
	RepairRequeued RepairActionType = "requeued"

	// RepairMarkedFailed fails a document stuck in an in-flight status.
	RepairMarkedFailed RepairActionType = "marked_failed"
)

// RepairAction is the append-only record of one auto-repair action.
type RepairAction struct {
	ID             string           `json:"id"`
	DocumentID     string           `json:"document_id"`
	TenantID       string           `json:"tenant_id"`
	Action         RepairActionType `json:"action"`
	PreviousStatus DocumentStatus   `json:"previous_status"`
	Reason         string           `json:"reason"`
	At             time.Time        `json:"at"`
}

// RepairReport is the result of an auto-repair pass.
type RepairReport struct {
	// Requeued lists documents reset to pending and resubmitted.
	Requeued []string `json:"requeued"`

	// MarkedFailed lists documents moved to failed after being stuck.
	MarkedFailed []string `json:"marked_failed"`

	// Errors lists per-document failures that did not stop the pass.
	Errors []string `json:"errors,omitempty"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// Total returns the number of documents acted on.
func (r *RepairReport) Total() int {
	return len(r.Requeued) + len(r.MarkedFailed)
}
