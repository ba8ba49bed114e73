package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

// BlobStore holds document content bytes addressed by blob key.
// Implemented by local disk and by object storage.
type BlobStore interface {
	// Exists reports whether a blob is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Stat returns blob metadata. Returns domain.ErrNotFound if absent.
	Stat(ctx context.Context, key string) (*domain.BlobInfo, error)

	// Get reads a blob's content. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes a blob, replacing any existing content.
	Put(ctx context.Context, key string, data []byte) error

	// Delete removes a blob. Deleting an absent blob is not an error.
	Delete(ctx context.Context, key string) error
}

// BlobRestorer is implemented by blob stores that can undo a Delete.
type BlobRestorer interface {
	// Restore brings back the most recently deleted blob for key.
	// Returns domain.ErrRestoreUnsupported when deletes are permanent.
	Restore(ctx context.Context, key string) error
}

// TrashReaper is implemented by blob stores that keep deleted content aside.
type TrashReaper interface {
	// Reap permanently removes trashed blobs older than grace.
	// Returns the number of blobs removed.
	Reap(ctx context.Context, grace time.Duration) (int, error)
}
