package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutbox_RequeueAndClaim(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	outbox := store.Outbox()

	for _, id := range []string{"doc-1", "doc-2", "doc-3"} {
		require.NoError(t, outbox.Requeue(ctx, id))
	}

	pending, err := outbox.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, pending)

	claimed, err := outbox.Claim(ctx, 2)
	require.NoError(t, err)
	require.Len(t, claimed, 2)
	assert.Equal(t, "doc-1", claimed[0].DocumentID)
	assert.Equal(t, "doc-2", claimed[1].DocumentID)
	assert.False(t, claimed[0].EnqueuedAt.IsZero())

	rest, err := outbox.Claim(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "doc-3", rest[0].DocumentID)

	pending, err = outbox.Pending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestOutbox_ClaimEmpty(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	claimed, err := store.Outbox().Claim(context.Background(), 5)

	require.NoError(t, err)
	assert.Empty(t, claimed)
}
