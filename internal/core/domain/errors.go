package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist,
	// or exists but belongs to a different tenant.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown adapter backend.
	ErrUnsupportedType = errors.New("unsupported type")

	// Consistency Errors.

	// ErrAdapterUnavailable indicates a store call failed or timed out.
	// Retryable by the caller; never retried internally.
	ErrAdapterUnavailable = errors.New("adapter unavailable")

	// ErrCommitFailed indicates a commit-phase delete failed and rollback ran.
	ErrCommitFailed = errors.New("commit failed")

	// ErrFinalizeFailed indicates the relational finalize transaction failed.
	// It matches ErrCommitFailed because both trigger the same rollback.
	ErrFinalizeFailed = fmt.Errorf("finalize failed: %w", ErrCommitFailed)

	// ErrRollbackFailed indicates a compensating step failed.
	// The stores are in a partial state that requires manual intervention.
	ErrRollbackFailed = errors.New("rollback failed: requires manual intervention")

	// ErrDeletionInProgress indicates another deletion holds the document lock.
	ErrDeletionInProgress = errors.New("deletion in progress")

	// ErrRestoreUnsupported indicates a store cannot restore deleted content.
	ErrRestoreUnsupported = errors.New("restore unsupported")
)
