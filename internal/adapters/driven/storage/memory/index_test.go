package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

func TestSearchIndex_Lifecycle(t *testing.T) {
	idx := NewSearchIndex()
	ctx := context.Background()
	source := []byte(`{"title":"Quarterly report","body":"…"}`)

	require.NoError(t, idx.Index(ctx, &domain.SearchEntry{ID: "s1", DocumentID: "doc-1", Source: source}))

	ok, err := idx.Exists(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok)

	entry, err := idx.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, source, entry.Source)

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, idx.Delete(ctx, "s1"))
	require.NoError(t, idx.Delete(ctx, "s1"), "deleting twice is fine")

	_, err = idx.Get(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, idx.Close())
}

func TestSearchIndex_IndexCopiesSource(t *testing.T) {
	idx := NewSearchIndex()
	ctx := context.Background()
	source := []byte("original")

	require.NoError(t, idx.Index(ctx, &domain.SearchEntry{ID: "s1", Source: source}))
	source[0] = 'X'

	entry, err := idx.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "original", string(entry.Source))
}

func TestSearchIndex_Invalid(t *testing.T) {
	idx := NewSearchIndex()

	assert.ErrorIs(t, idx.Index(context.Background(), &domain.SearchEntry{}), domain.ErrInvalidInput)
}

func TestVectorIndex_Lifecycle(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()
	entry := &domain.VectorEntry{
		ID:      "v1",
		Vector:  []float32{0.1, 0.2, 0.3},
		Payload: domain.VectorPayload{DocumentID: "doc-1", TenantID: "t", Preview: "hello"},
	}

	require.NoError(t, idx.Upsert(ctx, entry))

	got, err := idx.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, entry.Vector, got.Vector)
	assert.Equal(t, entry.Payload, got.Payload)

	ok, err := idx.Exists(ctx, "v1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, idx.Delete(ctx, "v1"))
	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = idx.Get(ctx, "v1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, idx.Close())
}

func TestVectorIndex_Invalid(t *testing.T) {
	idx := NewVectorIndex()

	assert.ErrorIs(t, idx.Upsert(context.Background(), nil), domain.ErrInvalidInput)
}
