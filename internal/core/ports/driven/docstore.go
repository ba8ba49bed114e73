package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

// DocumentStore is the relational store of record.
// It is the only transactional store and the source of truth for status.
type DocumentStore interface {
	// GetDocument retrieves a document scoped to a tenant.
	// Returns domain.ErrNotFound if the document does not exist or
	// belongs to a different tenant.
	GetDocument(ctx context.Context, tenantID, id string) (*domain.DocumentRecord, error)

	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.DocumentRecord) error

	// ListDocuments returns documents matching the filter, oldest first.
	ListDocuments(ctx context.Context, filter domain.DocumentFilter) ([]domain.DocumentRecord, error)

	// CountByStatus returns the number of documents in each status.
	CountByStatus(ctx context.Context) (map[domain.DocumentStatus]int, error)

	// ResetForReprocessing moves an indexed document to pending and clears
	// both derived ids. Returns false if the document was no longer indexed.
	ResetForReprocessing(ctx context.Context, id string) (bool, error)

	// MarkFailed moves an in-flight document last updated before cutoff to
	// failed with the given message. Returns false if the document had
	// already moved on.
	MarkFailed(ctx context.Context, id, message string, cutoff time.Time) (bool, error)

	// FinalizeDeletion inserts the audit record and deletes the document
	// in one transaction. Returns domain.ErrNotFound, with nothing written,
	// if the document is already gone.
	FinalizeDeletion(ctx context.Context, audit *domain.DeletionAudit) error
}
