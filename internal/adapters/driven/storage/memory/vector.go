package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory implementation of driven.VectorIndex.
type VectorIndex struct {
	mu      sync.RWMutex
	entries map[string]domain.VectorEntry
}

// NewVectorIndex creates a new in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{entries: make(map[string]domain.VectorEntry)}
}

// Exists reports whether an entry is present.
func (v *VectorIndex) Exists(_ context.Context, id string) (bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.entries[id]
	return ok, nil
}

// Get retrieves an entry.
func (v *VectorIndex) Get(_ context.Context, id string) (*domain.VectorEntry, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	entry, ok := v.entries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	entry.Vector = append([]float32(nil), entry.Vector...)
	return &entry, nil
}

// Upsert creates or replaces an entry.
func (v *VectorIndex) Upsert(_ context.Context, entry *domain.VectorEntry) error {
	if entry == nil || entry.ID == "" {
		return domain.ErrInvalidInput
	}
	saved := *entry
	saved.Vector = append([]float32(nil), entry.Vector...)
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries[entry.ID] = saved
	return nil
}

// Delete removes an entry.
func (v *VectorIndex) Delete(_ context.Context, id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.entries, id)
	return nil
}

// Count returns the number of entries.
func (v *VectorIndex) Count(_ context.Context) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries), nil
}

// Close is a no-op.
func (v *VectorIndex) Close() error {
	return nil
}
