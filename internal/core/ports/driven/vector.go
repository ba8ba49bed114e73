package driven

import (
	"context"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

// VectorIndex holds embedding entries for indexed documents.
type VectorIndex interface {
	// Exists reports whether an entry with the given id is present.
	Exists(ctx context.Context, id string) (bool, error)

	// Get retrieves an entry with its vector and payload.
	// Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.VectorEntry, error)

	// Upsert creates or replaces an entry.
	Upsert(ctx context.Context, entry *domain.VectorEntry) error

	// Delete removes an entry. Deleting an absent entry is not an error.
	Delete(ctx context.Context, id string) error

	// Count returns the number of entries.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
