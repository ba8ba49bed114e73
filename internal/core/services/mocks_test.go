package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driven"
)

// --- Fault injection shared by the store mocks ---

// faults records calls by operation name and injects errors or hangs.
type faults struct {
	mu    sync.Mutex
	errs  map[string]error
	hangs map[string]bool
	calls []string
}

func (f *faults) hit(ctx context.Context, op string) error {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	err := f.errs[op]
	hang := f.hangs[op]
	f.mu.Unlock()

	if hang {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (f *faults) fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errs == nil {
		f.errs = make(map[string]error)
	}
	f.errs[op] = err
}

func (f *faults) hang(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hangs == nil {
		f.hangs = make(map[string]bool)
	}
	f.hangs[op] = true
}

func (f *faults) called(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (f *faults) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// --- mockDocStore ---

type mockDocStore struct {
	faults
	dataMu    sync.Mutex
	docs      map[string]domain.DocumentRecord
	finalized []domain.DeletionAudit
}

func newMockDocStore(docs ...domain.DocumentRecord) *mockDocStore {
	m := &mockDocStore{docs: make(map[string]domain.DocumentRecord)}
	for _, d := range docs {
		m.docs[d.ID] = d
	}
	return m
}

func (m *mockDocStore) GetDocument(ctx context.Context, tenantID, id string) (*domain.DocumentRecord, error) {
	if err := m.hit(ctx, "get"); err != nil {
		return nil, err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	doc, ok := m.docs[id]
	if !ok || doc.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

func (m *mockDocStore) SaveDocument(ctx context.Context, doc *domain.DocumentRecord) error {
	if err := m.hit(ctx, "save"); err != nil {
		return err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.docs[doc.ID] = *doc
	return nil
}

func (m *mockDocStore) ListDocuments(ctx context.Context, filter domain.DocumentFilter) ([]domain.DocumentRecord, error) {
	if err := m.hit(ctx, "list"); err != nil {
		return nil, err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()

	var out []domain.DocumentRecord
	for _, doc := range m.docs {
		if filter.TenantID != "" && doc.TenantID != filter.TenantID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, doc.Status) {
			continue
		}
		if !filter.UpdatedBefore.IsZero() && !doc.UpdatedAt.Before(filter.UpdatedBefore) {
			continue
		}
		if filter.MissingDerivedIDs && doc.SearchIndexID != "" && doc.VectorIndexID != "" {
			continue
		}
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *mockDocStore) CountByStatus(ctx context.Context) (map[domain.DocumentStatus]int, error) {
	if err := m.hit(ctx, "count"); err != nil {
		return nil, err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	counts := make(map[domain.DocumentStatus]int)
	for _, doc := range m.docs {
		counts[doc.Status]++
	}
	return counts, nil
}

func (m *mockDocStore) ResetForReprocessing(ctx context.Context, id string) (bool, error) {
	if err := m.hit(ctx, "reset"); err != nil {
		return false, err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	doc, ok := m.docs[id]
	if !ok || doc.Status != domain.StatusIndexed {
		return false, nil
	}
	doc.Status = domain.StatusPending
	doc.SearchIndexID = ""
	doc.VectorIndexID = ""
	doc.UpdatedAt = time.Now()
	m.docs[id] = doc
	return true, nil
}

func (m *mockDocStore) MarkFailed(ctx context.Context, id, message string, cutoff time.Time) (bool, error) {
	if err := m.hit(ctx, "mark_failed"); err != nil {
		return false, err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	doc, ok := m.docs[id]
	if !ok || !doc.Status.IsInFlight() || !doc.UpdatedAt.Before(cutoff) {
		return false, nil
	}
	doc.Status = domain.StatusFailed
	doc.ErrorMessage = message
	doc.UpdatedAt = time.Now()
	m.docs[id] = doc
	return true, nil
}

func (m *mockDocStore) FinalizeDeletion(ctx context.Context, audit *domain.DeletionAudit) error {
	if err := m.hit(ctx, "finalize"); err != nil {
		return err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	doc, ok := m.docs[audit.DocumentID]
	if !ok || doc.TenantID != audit.TenantID {
		return domain.ErrNotFound
	}
	delete(m.docs, audit.DocumentID)
	m.finalized = append(m.finalized, *audit)
	return nil
}

func (m *mockDocStore) doc(id string) (domain.DocumentRecord, bool) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	doc, ok := m.docs[id]
	return doc, ok
}

func containsStatus(statuses []domain.DocumentStatus, s domain.DocumentStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

// --- mockAuditStore ---

type mockAuditStore struct {
	faults
	dataMu    sync.Mutex
	deletions []domain.DeletionAudit
	repairs   []domain.RepairAction
}

func (m *mockAuditStore) RecordDeletion(ctx context.Context, audit *domain.DeletionAudit) error {
	if err := m.hit(ctx, "record_deletion"); err != nil {
		return err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.deletions = append(m.deletions, *audit)
	return nil
}

func (m *mockAuditStore) ListDeletions(ctx context.Context, filter domain.AuditFilter) ([]domain.DeletionAudit, error) {
	if err := m.hit(ctx, "list_deletions"); err != nil {
		return nil, err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	var out []domain.DeletionAudit
	for _, a := range m.deletions {
		if filter.ManualOnly && !a.RequiresManualIntervention {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *mockAuditStore) RecordRepair(ctx context.Context, action *domain.RepairAction) error {
	if err := m.hit(ctx, "record_repair"); err != nil {
		return err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.repairs = append(m.repairs, *action)
	return nil
}

func (m *mockAuditStore) ListRepairs(ctx context.Context, limit int) ([]domain.RepairAction, error) {
	if err := m.hit(ctx, "list_repairs"); err != nil {
		return nil, err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	out := append([]domain.RepairAction(nil), m.repairs...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- mockSearchIndex ---

type mockSearchIndex struct {
	faults
	dataMu  sync.Mutex
	entries map[string]domain.SearchEntry
}

func newMockSearchIndex(entries ...domain.SearchEntry) *mockSearchIndex {
	m := &mockSearchIndex{entries: make(map[string]domain.SearchEntry)}
	for _, e := range entries {
		m.entries[e.ID] = e
	}
	return m
}

func (m *mockSearchIndex) Exists(ctx context.Context, id string) (bool, error) {
	if err := m.hit(ctx, "exists"); err != nil {
		return false, err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	_, ok := m.entries[id]
	return ok, nil
}

func (m *mockSearchIndex) Get(ctx context.Context, id string) (*domain.SearchEntry, error) {
	if err := m.hit(ctx, "get"); err != nil {
		return nil, err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	e.Source = append([]byte(nil), e.Source...)
	return &e, nil
}

func (m *mockSearchIndex) Index(ctx context.Context, entry *domain.SearchEntry) error {
	if err := m.hit(ctx, "index"); err != nil {
		return err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	e := *entry
	e.Source = append([]byte(nil), entry.Source...)
	m.entries[e.ID] = e
	return nil
}

func (m *mockSearchIndex) Delete(ctx context.Context, id string) error {
	if err := m.hit(ctx, "delete"); err != nil {
		return err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	delete(m.entries, id)
	return nil
}

func (m *mockSearchIndex) Count(ctx context.Context) (int, error) {
	if err := m.hit(ctx, "count"); err != nil {
		return 0, err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	return len(m.entries), nil
}

func (m *mockSearchIndex) Close() error { return nil }

func (m *mockSearchIndex) entry(id string) (domain.SearchEntry, bool) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	e, ok := m.entries[id]
	return e, ok
}

// --- mockVectorIndex ---

type mockVectorIndex struct {
	faults
	dataMu  sync.Mutex
	entries map[string]domain.VectorEntry
}

func newMockVectorIndex(entries ...domain.VectorEntry) *mockVectorIndex {
	m := &mockVectorIndex{entries: make(map[string]domain.VectorEntry)}
	for _, e := range entries {
		m.entries[e.ID] = e
	}
	return m
}

func (m *mockVectorIndex) Exists(ctx context.Context, id string) (bool, error) {
	if err := m.hit(ctx, "exists"); err != nil {
		return false, err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	_, ok := m.entries[id]
	return ok, nil
}

func (m *mockVectorIndex) Get(ctx context.Context, id string) (*domain.VectorEntry, error) {
	if err := m.hit(ctx, "get"); err != nil {
		return nil, err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	e.Vector = append([]float32(nil), e.Vector...)
	return &e, nil
}

func (m *mockVectorIndex) Upsert(ctx context.Context, entry *domain.VectorEntry) error {
	if err := m.hit(ctx, "upsert"); err != nil {
		return err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.entries[entry.ID] = *entry
	return nil
}

func (m *mockVectorIndex) Delete(ctx context.Context, id string) error {
	if err := m.hit(ctx, "delete"); err != nil {
		return err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	delete(m.entries, id)
	return nil
}

func (m *mockVectorIndex) Count(ctx context.Context) (int, error) {
	if err := m.hit(ctx, "count"); err != nil {
		return 0, err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	return len(m.entries), nil
}

func (m *mockVectorIndex) Close() error { return nil }

func (m *mockVectorIndex) entry(id string) (domain.VectorEntry, bool) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	e, ok := m.entries[id]
	return e, ok
}

// --- mockBlobStore ---

// mockBlobStore deletes permanently. Wrap it in mockTrashBlobStore for
// restore support.
type mockBlobStore struct {
	faults
	dataMu sync.Mutex
	blobs  map[string][]byte
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{blobs: make(map[string][]byte)}
}

func (m *mockBlobStore) put(key string, data []byte) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.blobs[key] = append([]byte(nil), data...)
}

func (m *mockBlobStore) blob(key string) ([]byte, bool) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	b, ok := m.blobs[key]
	return b, ok
}

func (m *mockBlobStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := m.hit(ctx, "exists"); err != nil {
		return false, err
	}
	_, ok := m.blob(key)
	return ok, nil
}

func (m *mockBlobStore) Stat(ctx context.Context, key string) (*domain.BlobInfo, error) {
	if err := m.hit(ctx, "stat"); err != nil {
		return nil, err
	}
	b, ok := m.blob(key)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.BlobInfo{Key: key, Size: int64(len(b))}, nil
}

func (m *mockBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := m.hit(ctx, "get"); err != nil {
		return nil, err
	}
	b, ok := m.blob(key)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (m *mockBlobStore) Put(ctx context.Context, key string, data []byte) error {
	if err := m.hit(ctx, "put"); err != nil {
		return err
	}
	m.put(key, data)
	return nil
}

func (m *mockBlobStore) Delete(ctx context.Context, key string) error {
	if err := m.hit(ctx, "delete"); err != nil {
		return err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	delete(m.blobs, key)
	return nil
}

// mockTrashBlobStore moves deleted blobs aside so they can be restored.
type mockTrashBlobStore struct {
	*mockBlobStore
	trash map[string][]byte
}

var _ driven.BlobRestorer = (*mockTrashBlobStore)(nil)

func newMockTrashBlobStore() *mockTrashBlobStore {
	return &mockTrashBlobStore{mockBlobStore: newMockBlobStore(), trash: make(map[string][]byte)}
}

func (m *mockTrashBlobStore) Delete(ctx context.Context, key string) error {
	if err := m.hit(ctx, "delete"); err != nil {
		return err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	if b, ok := m.blobs[key]; ok {
		m.trash[key] = b
		delete(m.blobs, key)
	}
	return nil
}

func (m *mockTrashBlobStore) Restore(ctx context.Context, key string) error {
	if err := m.hit(ctx, "restore"); err != nil {
		return err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	b, ok := m.trash[key]
	if !ok {
		return domain.ErrNotFound
	}
	m.blobs[key] = b
	delete(m.trash, key)
	return nil
}

// --- mockLocker ---

type mockLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMockLocker() *mockLocker {
	return &mockLocker{held: make(map[string]bool)}
}

func (m *mockLocker) TryLock(_ context.Context, documentID string) (driven.Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[documentID] {
		return nil, domain.ErrDeletionInProgress
	}
	m.held[documentID] = true
	return &mockLease{locker: m, id: documentID}, nil
}

func (m *mockLocker) isHeld(documentID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held[documentID]
}

type mockLease struct {
	locker *mockLocker
	id     string
}

func (l *mockLease) Release(_ context.Context) error {
	l.locker.mu.Lock()
	defer l.locker.mu.Unlock()
	delete(l.locker.held, l.id)
	return nil
}

// --- mockRequeuer ---

type mockRequeuer struct {
	faults
	dataMu   sync.Mutex
	requeued []string
}

func (m *mockRequeuer) Requeue(ctx context.Context, documentID string) error {
	if err := m.hit(ctx, "requeue"); err != nil {
		return err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.requeued = append(m.requeued, documentID)
	return nil
}

// --- recordingMetrics ---

type recordingMetrics struct {
	mu         sync.Mutex
	deletions  []domain.DeletionState
	rollbacks  []bool
	integrity  []domain.IntegrityStatus
	repairRuns int
}

func (m *recordingMetrics) ObserveDeletion(state domain.DeletionState, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletions = append(m.deletions, state)
}

func (m *recordingMetrics) ObserveRollback(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollbacks = append(m.rollbacks, success)
}

func (m *recordingMetrics) ObserveIntegrity(report *domain.IntegrityReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.integrity = append(m.integrity, report.Status)
}

func (m *recordingMetrics) ObserveRepair(_ *domain.RepairReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repairRuns++
}

// Ensure mocks implement interfaces
var (
	_ driven.DocumentStore  = (*mockDocStore)(nil)
	_ driven.AuditStore     = (*mockAuditStore)(nil)
	_ driven.SearchIndex    = (*mockSearchIndex)(nil)
	_ driven.VectorIndex    = (*mockVectorIndex)(nil)
	_ driven.BlobStore      = (*mockBlobStore)(nil)
	_ driven.BlobStore      = (*mockTrashBlobStore)(nil)
	_ driven.DocumentLocker = (*mockLocker)(nil)
	_ driven.Requeuer       = (*mockRequeuer)(nil)
	_ driven.Metrics        = (*recordingMetrics)(nil)
)
