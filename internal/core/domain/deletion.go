package domain

import "time"

// DeletionPhase names a step of the deletion protocol.
type DeletionPhase string

// Deletion phases, in execution order.
const (
	PhaseFetch    DeletionPhase = "fetch"
	PhasePrepare  DeletionPhase = "prepare"
	PhaseCommit   DeletionPhase = "commit"
	PhaseFinalize DeletionPhase = "finalize"
	PhaseRollback DeletionPhase = "rollback"
)

// DeletionState is the terminal state of one deletion attempt.
type DeletionState string

// Deletion states. A successful attempt ends Finalized; a failed one ends
// RolledBack or RollbackFailed. PrepareFailed is only reached with strict
// prepare enabled, before any store is mutated.
const (
	StateFetched        DeletionState = "fetched"
	StatePrepared       DeletionState = "prepared"
	StatePrepareFailed  DeletionState = "prepare_failed"
	StateCommitted      DeletionState = "committed"
	StateFinalized      DeletionState = "finalized"
	StateCommitFailed   DeletionState = "commit_failed"
	StateFinalizeFailed DeletionState = "finalize_failed"
	StateRolledBack     DeletionState = "rolled_back"
	StateRollbackFailed DeletionState = "rollback_failed"
)

// AuditStatus is the final status recorded for a deletion attempt.
type AuditStatus string

// Audit statuses.
const (
	AuditSuccess        AuditStatus = "success"
	AuditFailed         AuditStatus = "failed"
	AuditRollbackFailed AuditStatus = "rollback_failed"
)

// Store identifies one of the stores a document lives in.
type Store string

// Stores touched by deletion, in commit order after the relational store.
const (
	StoreRelational Store = "relational"
	StoreSearch     Store = "search"
	StoreVector     Store = "vector"
	StoreLocalBlob  Store = "local_blob"
	StoreRemoteBlob Store = "remote_blob"
)

// CommitOrder is the fixed order in which derived stores are deleted.
func CommitOrder() []Store {
	return []Store{StoreSearch, StoreVector, StoreLocalBlob, StoreRemoteBlob}
}

// PhaseOutcome records what happened to one store during one phase.
type PhaseOutcome struct {
	Phase   DeletionPhase `json:"phase"`
	Store   Store         `json:"store,omitempty"`
	Success bool          `json:"success"`
	Skipped bool          `json:"skipped,omitempty"`
	Warning string        `json:"warning,omitempty"`
	Error   string        `json:"error,omitempty"`
	At      time.Time     `json:"at"`
}

// DeletionRequest asks for one document to be removed from every store.
type DeletionRequest struct {
	DocumentID string
	TenantID   string

	// Actor identifies who requested the deletion, for the audit trail.
	Actor string
}

// DeletionAudit is the append-only record of one deletion attempt.
type DeletionAudit struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"document_id"`
	TenantID   string         `json:"tenant_id"`
	Filename   string         `json:"filename"`
	Actor      string         `json:"actor"`
	Phases     []PhaseOutcome `json:"phases"`
	Status     AuditStatus    `json:"status"`

	// RequiresManualIntervention marks an attempt whose rollback failed.
	RequiresManualIntervention bool `json:"requires_manual_intervention"`

	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// DeletionOutcome is returned to the caller of a deletion.
type DeletionOutcome struct {
	State DeletionState  `json:"state"`
	Audit *DeletionAudit `json:"audit,omitempty"`
}

// AuditFilter narrows a deletion audit listing.
type AuditFilter struct {
	// DocumentID restricts results to one document. Empty matches all.
	DocumentID string

	// ManualOnly restricts results to attempts requiring manual intervention.
	ManualOnly bool

	// Limit caps the number of results. Zero means no limit.
	Limit int
}
