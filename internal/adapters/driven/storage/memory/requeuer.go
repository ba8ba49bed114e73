package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driven"
)

// Ensure Requeuer implements the interface.
var _ driven.Requeuer = (*Requeuer)(nil)

// Requeuer collects requeued document ids in order.
type Requeuer struct {
	mu      sync.Mutex
	pending []string
}

// NewRequeuer creates a new in-memory requeuer.
func NewRequeuer() *Requeuer {
	return &Requeuer{}
}

// Requeue records a document for reprocessing.
func (r *Requeuer) Requeue(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, documentID)
	return nil
}

// Drain returns and clears the queued ids.
func (r *Requeuer) Drain() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.pending
	r.pending = nil
	return out
}
