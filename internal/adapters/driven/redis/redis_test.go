package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

// setupTestClient connects to SERCHA_TEST_REDIS_ADDR and returns a unique
// key prefix so parallel runs do not collide.
func setupTestClient(t *testing.T) (*redis.Client, string) {
	t.Helper()
	addr := os.Getenv("SERCHA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SERCHA_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client, err := NewClient(ctx, domain.RedisSettings{Addr: addr})
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	prefix := "sercha-test-" + uuid.NewString()[:8] + ":"
	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		_ = client.Close()
	})
	return client, prefix
}

func TestKeyspace(t *testing.T) {
	assert.Equal(t, "sercha:vec:abc", keyspace("sercha:vec").key("abc"))
	assert.Equal(t, "sercha:requeue", keyspace("sercha:requeue").key())
}

func TestEncodeVector(t *testing.T) {
	vec := []float32{0.25, -1.5, 3}

	encoded := encodeVector(vec)

	assert.Len(t, encoded, 12)
	assert.Equal(t, vec, decodeVector(encoded))
	assert.Nil(t, decodeVector(nil))
}

func TestNewClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewClient(ctx, domain.RedisSettings{Addr: "127.0.0.1:1"})

	assert.Error(t, err)
}

func TestVectorIndex(t *testing.T) {
	client, prefix := setupTestClient(t)
	idx := NewVectorIndex(client, prefix)
	ctx := context.Background()

	entry := &domain.VectorEntry{
		ID:     "v1",
		Vector: []float32{1, 2, 3},
		Payload: domain.VectorPayload{
			DocumentID: "doc-1",
			TenantID:   "t1",
			Preview:    "hello",
		},
	}
	require.NoError(t, idx.Upsert(ctx, entry))

	ok, err := idx.Exists(ctx, "v1")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := idx.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, entry, got)

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, idx.Delete(ctx, "v1"))
	require.NoError(t, idx.Delete(ctx, "v1"))

	_, err = idx.Get(ctx, "v1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	n, err = idx.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestVectorIndex_KeysDoNotCollide(t *testing.T) {
	idx := NewVectorIndex(nil, "sercha:")

	assert.Equal(t, "sercha:vec:ids", idx.entryKey("ids"))
	assert.Equal(t, "sercha:vecidx", idx.idsKey())
	assert.NotEqual(t, idx.idsKey(), idx.entryKey("ids"))
	assert.NotEqual(t, idx.idsKey(), idx.entryKey(""))
}

func TestVectorIndex_EntryNamedIds(t *testing.T) {
	client, prefix := setupTestClient(t)
	idx := NewVectorIndex(client, prefix)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, &domain.VectorEntry{ID: "ids", Vector: []float32{1}}))
	require.NoError(t, idx.Upsert(ctx, &domain.VectorEntry{ID: "v2", Vector: []float32{2}}))

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := idx.Get(ctx, "ids")
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, got.Vector)

	require.NoError(t, idx.Delete(ctx, "ids"))
	n, err = idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestVectorIndex_UpsertInvalid(t *testing.T) {
	idx := NewVectorIndex(nil, "x:")

	assert.ErrorIs(t, idx.Upsert(context.Background(), &domain.VectorEntry{}), domain.ErrInvalidInput)
	assert.ErrorIs(t, idx.Upsert(context.Background(), nil), domain.ErrInvalidInput)
}

func TestLocker(t *testing.T) {
	client, prefix := setupTestClient(t)
	locker := NewLocker(client, prefix, time.Minute)
	ctx := context.Background()

	lease, err := locker.TryLock(ctx, "doc-1")
	require.NoError(t, err)

	_, err = locker.TryLock(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrDeletionInProgress)

	other, err := locker.TryLock(ctx, "doc-2")
	require.NoError(t, err)
	require.NoError(t, other.Release(ctx))

	require.NoError(t, lease.Release(ctx))
	require.NoError(t, lease.Release(ctx))

	again, err := locker.TryLock(ctx, "doc-1")
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestLocker_StaleLeaseDoesNotReleaseSuccessor(t *testing.T) {
	client, prefix := setupTestClient(t)
	locker := NewLocker(client, prefix, 50*time.Millisecond)
	ctx := context.Background()

	stale, err := locker.TryLock(ctx, "doc-1")
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	current, err := locker.TryLock(ctx, "doc-1")
	require.NoError(t, err)

	require.NoError(t, stale.Release(ctx))
	_, err = locker.TryLock(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrDeletionInProgress)

	require.NoError(t, current.Release(ctx))
}

func TestLocker_EmptyID(t *testing.T) {
	locker := NewLocker(nil, "x:", 0)

	_, err := locker.TryLock(context.Background(), "")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRequeuer(t *testing.T) {
	client, prefix := setupTestClient(t)
	rq := NewRequeuer(client, prefix)
	ctx := context.Background()

	require.NoError(t, rq.Requeue(ctx, "doc-1"))
	require.NoError(t, rq.Requeue(ctx, "doc-2"))

	first, err := client.RPop(ctx, rq.Key()).Result()
	require.NoError(t, err)
	assert.Equal(t, "doc-1", first)
	assert.Equal(t, prefix+"requeue", rq.Key())
}
