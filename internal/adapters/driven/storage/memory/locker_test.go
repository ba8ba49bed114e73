package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

func TestLocker_TryLock(t *testing.T) {
	locker := NewLocker()
	ctx := context.Background()

	lease, err := locker.TryLock(ctx, "doc-1")
	require.NoError(t, err)
	assert.True(t, locker.Held("doc-1"))

	_, err = locker.TryLock(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrDeletionInProgress)

	other, err := locker.TryLock(ctx, "doc-2")
	require.NoError(t, err)
	require.NoError(t, other.Release(ctx))

	require.NoError(t, lease.Release(ctx))
	require.NoError(t, lease.Release(ctx), "releasing twice is fine")
	assert.False(t, locker.Held("doc-1"))

	again, err := locker.TryLock(ctx, "doc-1")
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestLocker_StaleReleaseDoesNotFreeNewHolder(t *testing.T) {
	locker := NewLocker()
	ctx := context.Background()

	first, err := locker.TryLock(ctx, "doc-1")
	require.NoError(t, err)
	require.NoError(t, first.Release(ctx))
	second, err := locker.TryLock(ctx, "doc-1")
	require.NoError(t, err)

	require.NoError(t, first.Release(ctx))

	assert.True(t, locker.Held("doc-1"))
	require.NoError(t, second.Release(ctx))
}

func TestLocker_ConcurrentTryLock(t *testing.T) {
	locker := NewLocker()
	ctx := context.Background()
	var wins atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := locker.TryLock(ctx, "doc-1"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}
