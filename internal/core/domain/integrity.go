package domain

import "time"

// IntegrityStatus summarises an integrity check.
type IntegrityStatus string

// Integrity statuses.
const (
	IntegrityHealthy       IntegrityStatus = "healthy"
	IntegrityStatusWarning IntegrityStatus = "warning"
	IntegrityUnhealthy     IntegrityStatus = "unhealthy"
)

// Warning types reported by the integrity check.
const (
	WarningMissingSearchID = "missing_search_id"
	WarningMissingVectorID = "missing_vector_id"
	WarningStaleProcessing = "stale_processing"
)

// Issue types reported by the integrity check.
const (
	IssueSearchCountMismatch = "search_count_mismatch"
	IssueVectorCountMismatch = "vector_count_mismatch"
)

// StatusCounts holds the relational store's document counts.
type StatusCounts struct {
	Total    int `json:"total"`
	Indexed  int `json:"indexed"`
	Stored   int `json:"stored"`
	InFlight int `json:"in_flight"`
	Failed   int `json:"failed"`
}

// StatusCountsFrom folds a per-status count map into StatusCounts.
func StatusCountsFrom(byStatus map[DocumentStatus]int) StatusCounts {
	var c StatusCounts
	for status, n := range byStatus {
		c.Total += n
		switch {
		case status == StatusIndexed:
			c.Indexed += n
		case status == StatusStored:
			c.Stored += n
		case status.IsInFlight():
			c.InFlight += n
		case status.IsTerminalFailure():
			c.Failed += n
		}
	}
	return c
}

// ExpectedSearchEntries is the number of search entries the relational
// store implies.
func (c StatusCounts) ExpectedSearchEntries() int {
	return c.Indexed + c.Stored
}

// ExpectedVectorEntries is the number of vector entries the relational
// store implies.
func (c StatusCounts) ExpectedVectorEntries() int {
	return c.Indexed
}

// IntegrityIssue is a count mismatch between the relational store and
// a derived store.
type IntegrityIssue struct {
	Type     string `json:"type"`
	Store    Store  `json:"store"`
	Expected int    `json:"expected"`
	Actual   int    `json:"actual"`
	Message  string `json:"message"`
}

// IntegrityWarning flags one document that needs attention.
type IntegrityWarning struct {
	Type       string         `json:"type"`
	DocumentID string         `json:"document_id"`
	TenantID   string         `json:"tenant_id"`
	Status     DocumentStatus `json:"status"`
	Message    string         `json:"message"`
}

// IntegrityReport is the result of a read-only integrity check.
type IntegrityReport struct {
	Status      IntegrityStatus    `json:"status"`
	Counts      StatusCounts       `json:"counts"`
	SearchCount int                `json:"search_count"`
	VectorCount int                `json:"vector_count"`
	Issues      []IntegrityIssue   `json:"issues"`
	Warnings    []IntegrityWarning `json:"warnings"`
	CheckedAt   time.Time          `json:"checked_at"`
	Duration    time.Duration      `json:"duration_ns"`
}

// Evaluate derives the report status from its issues and warnings.
func (r *IntegrityReport) Evaluate() IntegrityStatus {
	switch {
	case len(r.Issues) > 0:
		return IntegrityUnhealthy
	case len(r.Warnings) > 0:
		return IntegrityStatusWarning
	default:
		return IntegrityHealthy
	}
}
