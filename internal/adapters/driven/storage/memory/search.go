package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driven"
)

// Ensure SearchIndex implements the interface.
var _ driven.SearchIndex = (*SearchIndex)(nil)

// SearchIndex is an in-memory implementation of driven.SearchIndex.
type SearchIndex struct {
	mu      sync.RWMutex
	entries map[string]domain.SearchEntry
}

// NewSearchIndex creates a new in-memory search index.
func NewSearchIndex() *SearchIndex {
	return &SearchIndex{entries: make(map[string]domain.SearchEntry)}
}

// Exists reports whether an entry is present.
func (s *SearchIndex) Exists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[id]
	return ok, nil
}

// Get retrieves an entry.
func (s *SearchIndex) Get(_ context.Context, id string) (*domain.SearchEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	entry.Source = append([]byte(nil), entry.Source...)
	return &entry, nil
}

// Index creates or replaces an entry.
func (s *SearchIndex) Index(_ context.Context, entry *domain.SearchEntry) error {
	if entry == nil || entry.ID == "" {
		return domain.ErrInvalidInput
	}
	saved := *entry
	saved.Source = append([]byte(nil), entry.Source...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = saved
	return nil
}

// Delete removes an entry.
func (s *SearchIndex) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// Count returns the number of entries.
func (s *SearchIndex) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Close is a no-op.
func (s *SearchIndex) Close() error {
	return nil
}
