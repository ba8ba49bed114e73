package driven

import "context"

// DocumentLocker serialises deletions of the same document.
type DocumentLocker interface {
	// TryLock acquires the lock for a document without waiting.
	// Returns domain.ErrDeletionInProgress if another holder has it.
	TryLock(ctx context.Context, documentID string) (Lease, error)
}

// Lease is a held document lock.
type Lease interface {
	// Release gives up the lock. Releasing twice is not an error.
	Release(ctx context.Context) error
}
