package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driven"
)

// Ensure Requeuer implements the interface.
var _ driven.Requeuer = (*Requeuer)(nil)

// Requeuer pushes document ids onto <prefix>requeue. Ingestion workers
// pop from the other end with BRPOP.
type Requeuer struct {
	client redis.UniversalClient
	key    string
}

// NewRequeuer creates a requeuer writing to the prefixed list.
func NewRequeuer(client redis.UniversalClient, prefix string) *Requeuer {
	return &Requeuer{client: client, key: keyspace(prefix + "requeue").key()}
}

// Key returns the list key.
func (r *Requeuer) Key() string { return r.key }

// Requeue appends a document id to the list.
func (r *Requeuer) Requeue(ctx context.Context, documentID string) error {
	if err := r.client.LPush(ctx, r.key, documentID).Err(); err != nil {
		return fmt.Errorf("requeueing %s: %w", documentID, err)
	}
	return nil
}
