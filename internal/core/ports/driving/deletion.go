package driving

import (
	"context"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

// DeletionService removes a document from every store atomically.
type DeletionService interface {
	// DeleteDocument deletes one document across the relational store,
	// search index, vector index and blob stores, or reverts every change.
	//
	// The outcome is returned whenever an attempt was made, including on
	// error. Errors:
	//   - domain.ErrNotFound: no such document for the tenant
	//   - domain.ErrDeletionInProgress: another deletion holds the lock
	//   - domain.ErrCommitFailed: a delete failed and was rolled back
	//   - domain.ErrRollbackFailed: rollback failed, manual intervention needed
	DeleteDocument(ctx context.Context, req domain.DeletionRequest) (*domain.DeletionOutcome, error)
}
