package domain

import (
	"path"
	"time"
)

// DocumentStatus is the ingestion state of a document in the relational store.
// It is the single source of truth the derived stores must eventually match.
type DocumentStatus string

// Document statuses.
const (
	StatusPending          DocumentStatus = "pending"
	StatusProcessing       DocumentStatus = "processing"
	StatusStored           DocumentStatus = "stored"
	StatusIndexed          DocumentStatus = "indexed"
	StatusFailed           DocumentStatus = "failed"
	StatusPartiallyIndexed DocumentStatus = "partially_indexed"
)

// IsValid returns true if the status is recognised.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusStored, StatusIndexed,
		StatusFailed, StatusPartiallyIndexed:
		return true
	default:
		return false
	}
}

// IsInFlight returns true for statuses owned by a running ingestion.
func (s DocumentStatus) IsInFlight() bool {
	return s == StatusPending || s == StatusProcessing
}

// IsTerminalFailure returns true for statuses that are never auto-retried.
func (s DocumentStatus) IsTerminalFailure() bool {
	return s == StatusFailed || s == StatusPartiallyIndexed
}

// ExpectsSearchEntry returns true if a document in this status must have
// a search index entry.
func (s DocumentStatus) ExpectsSearchEntry() bool {
	return s == StatusIndexed || s == StatusStored
}

// ExpectsVectorEntry returns true if a document in this status must have
// a vector index entry.
func (s DocumentStatus) ExpectsVectorEntry() bool {
	return s == StatusIndexed
}

// String returns the string representation.
func (s DocumentStatus) String() string {
	return string(s)
}

// AllStatuses returns every known document status.
func AllStatuses() []DocumentStatus {
	return []DocumentStatus{
		StatusPending,
		StatusProcessing,
		StatusStored,
		StatusIndexed,
		StatusFailed,
		StatusPartiallyIndexed,
	}
}

// DocumentRecord is the authoritative metadata row for an ingested document.
// Ingestion owns it; the consistency core reads it, updates its status
// during repair and removes it on deletion.
type DocumentRecord struct {
	// ID is the document UUID.
	ID string `json:"id"`

	// TenantID scopes the document. Lookups with another tenant see nothing.
	TenantID string `json:"tenant_id"`

	// Filename is the original upload filename.
	Filename string `json:"filename"`

	// ContentHash is the hex digest of the content bytes.
	ContentHash string `json:"content_hash"`

	// LocalPath is the blob key in local storage, empty if never written locally.
	LocalPath string `json:"local_path,omitempty"`

	// RemoteKey is the blob key in remote storage, empty if never uploaded.
	RemoteKey string `json:"remote_key,omitempty"`

	// Status is the ingestion state.
	Status DocumentStatus `json:"status"`

	// SearchIndexID identifies the search entry. Empty when not indexed.
	SearchIndexID string `json:"search_index_id,omitempty"`

	// VectorIndexID identifies the vector entry. Empty when not indexed.
	VectorIndexID string `json:"vector_index_id,omitempty"`

	// ErrorMessage describes the last ingestion or repair failure.
	ErrorMessage string `json:"error_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MissingDerivedIDs returns true if the record is indexed but lacks
// either derived store identifier.
func (d *DocumentRecord) MissingDerivedIDs() bool {
	return d.Status == StatusIndexed && (d.SearchIndexID == "" || d.VectorIndexID == "")
}

// BlobKey returns the tenant-scoped blob key for a document's content.
func BlobKey(tenantID, documentID, filename string) string {
	return path.Join("tenants", tenantID, "documents", documentID, path.Base(filename))
}

// DocumentFilter narrows a document listing.
type DocumentFilter struct {
	// TenantID restricts results to one tenant. Empty matches all.
	TenantID string

	// Statuses restricts results to the given statuses. Empty matches all.
	Statuses []DocumentStatus

	// UpdatedBefore restricts results to records last updated before this time.
	UpdatedBefore time.Time

	// MissingDerivedIDs restricts results to records lacking a search or
	// vector index id.
	MissingDerivedIDs bool

	// Limit caps the number of results. Zero means no limit.
	Limit int
}
