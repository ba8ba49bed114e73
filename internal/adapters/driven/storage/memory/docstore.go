package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// FinalizeDeletion writes to the paired AuditStore under the store lock,
// which gives it the same all-or-nothing behaviour as the SQLite store.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.DocumentRecord
	audit     *AuditStore
	now       func() time.Time
}

// NewDocumentStore creates a new in-memory document store.
// audit receives the record written by FinalizeDeletion.
func NewDocumentStore(audit *AuditStore) *DocumentStore {
	if audit == nil {
		audit = NewAuditStore()
	}
	return &DocumentStore{
		documents: make(map[string]domain.DocumentRecord),
		audit:     audit,
		now:       time.Now,
	}
}

// GetDocument retrieves a document scoped to a tenant.
func (s *DocumentStore) GetDocument(_ context.Context, tenantID, id string) (*domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok || doc.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.DocumentRecord) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := *doc
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = s.now()
	}
	if saved.UpdatedAt.IsZero() {
		saved.UpdatedAt = saved.CreatedAt
	}
	s.documents[doc.ID] = saved
	return nil
}

// ListDocuments returns documents matching the filter, oldest first.
func (s *DocumentStore) ListDocuments(_ context.Context, filter domain.DocumentFilter) ([]domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.DocumentRecord, 0)
	for id := range s.documents {
		doc := s.documents[id]
		if matches(&doc, filter) {
			result = append(result, doc)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].UpdatedAt.Before(result[j].UpdatedAt)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func matches(doc *domain.DocumentRecord, filter domain.DocumentFilter) bool {
	if filter.TenantID != "" && doc.TenantID != filter.TenantID {
		return false
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, st := range filter.Statuses {
			if doc.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !filter.UpdatedBefore.IsZero() && !doc.UpdatedAt.Before(filter.UpdatedBefore) {
		return false
	}
	if filter.MissingDerivedIDs && doc.SearchIndexID != "" && doc.VectorIndexID != "" {
		return false
	}
	return true
}

// CountByStatus returns the number of documents in each status.
func (s *DocumentStore) CountByStatus(_ context.Context) (map[domain.DocumentStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[domain.DocumentStatus]int)
	for id := range s.documents {
		counts[s.documents[id].Status]++
	}
	return counts, nil
}

// ResetForReprocessing moves an indexed document back to pending.
func (s *DocumentStore) ResetForReprocessing(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok || doc.Status != domain.StatusIndexed {
		return false, nil
	}
	doc.Status = domain.StatusPending
	doc.SearchIndexID = ""
	doc.VectorIndexID = ""
	doc.ErrorMessage = ""
	doc.UpdatedAt = s.now()
	s.documents[id] = doc
	return true, nil
}

// MarkFailed moves a stuck in-flight document to failed.
func (s *DocumentStore) MarkFailed(_ context.Context, id, message string, cutoff time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok || !doc.Status.IsInFlight() || !doc.UpdatedAt.Before(cutoff) {
		return false, nil
	}
	doc.Status = domain.StatusFailed
	doc.ErrorMessage = message
	doc.UpdatedAt = s.now()
	s.documents[id] = doc
	return true, nil
}

// FinalizeDeletion records the audit and removes the document atomically.
func (s *DocumentStore) FinalizeDeletion(_ context.Context, audit *domain.DeletionAudit) error {
	if audit == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[audit.DocumentID]
	if !ok || doc.TenantID != audit.TenantID {
		return domain.ErrNotFound
	}
	s.audit.appendDeletion(audit)
	delete(s.documents, audit.DocumentID)
	return nil
}
