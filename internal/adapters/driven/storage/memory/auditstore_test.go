package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

func TestAuditStore_Deletions(t *testing.T) {
	store := NewAuditStore()
	ctx := context.Background()

	require.NoError(t, store.RecordDeletion(ctx, &domain.DeletionAudit{ID: "a1", DocumentID: "doc-1", Status: domain.AuditSuccess}))
	require.NoError(t, store.RecordDeletion(ctx, &domain.DeletionAudit{
		ID: "a2", DocumentID: "doc-2", Status: domain.AuditRollbackFailed, RequiresManualIntervention: true,
	}))
	require.NoError(t, store.RecordDeletion(ctx, &domain.DeletionAudit{ID: "a3", DocumentID: "doc-1", Status: domain.AuditFailed}))

	all, err := store.ListDeletions(ctx, domain.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a3", all[0].ID, "most recent first")

	byDoc, err := store.ListDeletions(ctx, domain.AuditFilter{DocumentID: "doc-1"})
	require.NoError(t, err)
	assert.Len(t, byDoc, 2)

	manual, err := store.ListDeletions(ctx, domain.AuditFilter{ManualOnly: true})
	require.NoError(t, err)
	require.Len(t, manual, 1)
	assert.Equal(t, "a2", manual[0].ID)

	limited, err := store.ListDeletions(ctx, domain.AuditFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestAuditStore_RecordDeletion_CopiesPhases(t *testing.T) {
	store := NewAuditStore()
	ctx := context.Background()
	audit := &domain.DeletionAudit{ID: "a1", Phases: []domain.PhaseOutcome{{Phase: domain.PhaseCommit, Success: true}}}

	require.NoError(t, store.RecordDeletion(ctx, audit))
	audit.Phases[0].Success = false

	records, err := store.ListDeletions(ctx, domain.AuditFilter{})
	require.NoError(t, err)
	assert.True(t, records[0].Phases[0].Success)
}

func TestAuditStore_Repairs(t *testing.T) {
	store := NewAuditStore()
	ctx := context.Background()

	require.NoError(t, store.RecordRepair(ctx, &domain.RepairAction{ID: "r1", Action: domain.RepairRequeued}))
	require.NoError(t, store.RecordRepair(ctx, &domain.RepairAction{ID: "r2", Action: domain.RepairMarkedFailed}))

	all, err := store.ListRepairs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "r2", all[0].ID)

	one, err := store.ListRepairs(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
}

func TestAuditStore_NilRecords(t *testing.T) {
	store := NewAuditStore()

	assert.ErrorIs(t, store.RecordDeletion(context.Background(), nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.RecordRepair(context.Background(), nil), domain.ErrInvalidInput)
}
