package driven

import (
	"context"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

// SearchIndex holds full-text entries for stored and indexed documents.
type SearchIndex interface {
	// Exists reports whether an entry with the given id is present.
	Exists(ctx context.Context, id string) (bool, error)

	// Get retrieves an entry. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.SearchEntry, error)

	// Index creates or replaces an entry. Source is stored byte-for-byte.
	Index(ctx context.Context, entry *domain.SearchEntry) error

	// Delete removes an entry. Deleting an absent entry is not an error.
	Delete(ctx context.Context, id string) error

	// Count returns the number of entries.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
