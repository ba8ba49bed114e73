package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

// corpus builds n indexed documents with matching derived entries.
func corpus(n int) ([]domain.DocumentRecord, *mockSearchIndex, *mockVectorIndex) {
	search := newMockSearchIndex()
	vector := newMockVectorIndex()
	docs := make([]domain.DocumentRecord, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("doc-%02d", i)
		doc := domain.DocumentRecord{
			ID:            id,
			TenantID:      testTenant,
			Filename:      id + ".txt",
			Status:        domain.StatusIndexed,
			SearchIndexID: "s-" + id,
			VectorIndexID: "v-" + id,
			UpdatedAt:     time.Now().Add(-24 * time.Hour),
		}
		docs = append(docs, doc)
		search.entries[doc.SearchIndexID] = domain.SearchEntry{ID: doc.SearchIndexID, DocumentID: id}
		vector.entries[doc.VectorIndexID] = domain.VectorEntry{ID: doc.VectorIndexID}
	}
	return docs, search, vector
}

func newTestIntegrityService(docs *mockDocStore, search *mockSearchIndex, vector *mockVectorIndex) *IntegrityService {
	return NewIntegrityService(docs, search, vector, nil, domain.IntegritySettings{StaleAfter: 30 * time.Minute})
}

func TestRunIntegrityCheck_Healthy(t *testing.T) {
	docs, search, vector := corpus(5)
	stored := domain.DocumentRecord{ID: "stored-1", TenantID: testTenant, Status: domain.StatusStored, SearchIndexID: "s-stored"}
	failed := domain.DocumentRecord{ID: "failed-1", TenantID: testTenant, Status: domain.StatusFailed}
	search.entries["s-stored"] = domain.SearchEntry{ID: "s-stored"}
	store := newMockDocStore(append(docs, stored, failed)...)

	report, err := newTestIntegrityService(store, search, vector).RunIntegrityCheck(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.IntegrityHealthy, report.Status)
	assert.Equal(t, 7, report.Counts.Total)
	assert.Equal(t, 5, report.Counts.Indexed)
	assert.Equal(t, 1, report.Counts.Stored)
	assert.Equal(t, 1, report.Counts.Failed)
	assert.Equal(t, 6, report.SearchCount)
	assert.Equal(t, 5, report.VectorCount)
	assert.Empty(t, report.Issues)
	assert.Empty(t, report.Warnings)
}

func TestRunIntegrityCheck_MissingVectorIDs(t *testing.T) {
	docs, search, vector := corpus(10)
	for _, i := range []int{3, 7} {
		delete(vector.entries, docs[i].VectorIndexID)
		docs[i].VectorIndexID = ""
	}
	store := newMockDocStore(docs...)

	report, err := newTestIntegrityService(store, search, vector).RunIntegrityCheck(context.Background())

	require.NoError(t, err)
	require.Len(t, report.Warnings, 2)
	for _, w := range report.Warnings {
		assert.Equal(t, domain.WarningMissingVectorID, w.Type)
		assert.Equal(t, domain.StatusIndexed, w.Status)
	}
	assert.ElementsMatch(t, []string{"doc-03", "doc-07"},
		[]string{report.Warnings[0].DocumentID, report.Warnings[1].DocumentID})

	// 10 indexed documents imply 10 vector entries; only 8 exist
	require.Len(t, report.Issues, 1)
	assert.Equal(t, domain.IssueVectorCountMismatch, report.Issues[0].Type)
	assert.Equal(t, 10, report.Issues[0].Expected)
	assert.Equal(t, 8, report.Issues[0].Actual)
	assert.Equal(t, domain.IntegrityUnhealthy, report.Status)
}

func TestRunIntegrityCheck_MissingBothIDs(t *testing.T) {
	docs, search, vector := corpus(1)
	docs[0].SearchIndexID = ""
	docs[0].VectorIndexID = ""
	store := newMockDocStore(docs...)

	report, err := newTestIntegrityService(store, search, vector).RunIntegrityCheck(context.Background())

	require.NoError(t, err)
	require.Len(t, report.Warnings, 2)
	assert.Equal(t, domain.WarningMissingSearchID, report.Warnings[0].Type)
	assert.Equal(t, domain.WarningMissingVectorID, report.Warnings[1].Type)
	assert.Equal(t, domain.IntegrityStatusWarning, report.Status)
}

func TestRunIntegrityCheck_StaleProcessing(t *testing.T) {
	store := newMockDocStore(
		domain.DocumentRecord{ID: "stuck", TenantID: testTenant, Status: domain.StatusProcessing,
			UpdatedAt: time.Now().Add(-45 * time.Minute)},
		domain.DocumentRecord{ID: "fresh", TenantID: testTenant, Status: domain.StatusPending,
			UpdatedAt: time.Now().Add(-5 * time.Minute)},
	)

	report, err := newTestIntegrityService(store, newMockSearchIndex(), newMockVectorIndex()).
		RunIntegrityCheck(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, report.Counts.InFlight)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, domain.WarningStaleProcessing, report.Warnings[0].Type)
	assert.Equal(t, "stuck", report.Warnings[0].DocumentID)
	assert.Equal(t, domain.IntegrityStatusWarning, report.Status)
}

func TestRunIntegrityCheck_SearchCountMismatch(t *testing.T) {
	docs, search, vector := corpus(3)
	search.entries["orphan"] = domain.SearchEntry{ID: "orphan"}
	store := newMockDocStore(docs...)

	report, err := newTestIntegrityService(store, search, vector).RunIntegrityCheck(context.Background())

	require.NoError(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, domain.IssueSearchCountMismatch, report.Issues[0].Type)
	assert.Equal(t, domain.StoreSearch, report.Issues[0].Store)
	assert.Equal(t, domain.IntegrityUnhealthy, report.Status)
}

func TestRunIntegrityCheck_ReadOnly(t *testing.T) {
	docs, search, vector := corpus(3)
	docs[0].VectorIndexID = ""
	store := newMockDocStore(docs...)

	_, err := newTestIntegrityService(store, search, vector).RunIntegrityCheck(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, store.called("reset"))
	assert.Equal(t, 0, store.called("mark_failed"))
	assert.Equal(t, 0, store.called("save"))
	assert.Equal(t, 0, search.called("delete")+search.called("index"))
	assert.Equal(t, 0, vector.called("delete")+vector.called("upsert"))
}

func TestRunIntegrityCheck_CountFailure(t *testing.T) {
	docs, search, vector := corpus(2)
	vector.fail("count", errors.New("connection refused"))
	store := newMockDocStore(docs...)

	report, err := newTestIntegrityService(store, search, vector).RunIntegrityCheck(context.Background())

	assert.Nil(t, report)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count vector entries")
}

func TestRunIntegrityCheck_ObservesMetrics(t *testing.T) {
	docs, search, vector := corpus(2)
	metrics := &recordingMetrics{}
	service := NewIntegrityService(newMockDocStore(docs...), search, vector, metrics,
		domain.IntegritySettings{StaleAfter: time.Minute})

	_, err := service.RunIntegrityCheck(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []domain.IntegrityStatus{domain.IntegrityHealthy}, metrics.integrity)
}
