package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driven"
)

// Ensure BlobStore implements the interfaces.
var (
	_ driven.BlobStore    = (*BlobStore)(nil)
	_ driven.BlobRestorer = (*BlobStore)(nil)
	_ driven.TrashReaper  = (*BlobStore)(nil)
)

type memBlob struct {
	data    []byte
	modTime time.Time
}

type trashedBlob struct {
	memBlob
	deletedAt time.Time
}

// BlobStore is an in-memory blob store. Deleted blobs are kept in a trash
// list until reaped so they can be restored.
type BlobStore struct {
	mu    sync.RWMutex
	blobs map[string]memBlob
	trash map[string][]trashedBlob
	now   func() time.Time
}

// NewBlobStore creates a new in-memory blob store.
func NewBlobStore() *BlobStore {
	return &BlobStore{
		blobs: make(map[string]memBlob),
		trash: make(map[string][]trashedBlob),
		now:   time.Now,
	}
}

// Exists reports whether a blob is present.
func (b *BlobStore) Exists(_ context.Context, key string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.blobs[key]
	return ok, nil
}

// Stat returns blob metadata.
func (b *BlobStore) Stat(_ context.Context, key string) (*domain.BlobInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	blob, ok := b.blobs[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.BlobInfo{Key: key, Size: int64(len(blob.data)), ModTime: blob.modTime}, nil
}

// Get reads a blob's content.
func (b *BlobStore) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	blob, ok := b.blobs[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), blob.data...), nil
}

// Put writes a blob.
func (b *BlobStore) Put(_ context.Context, key string, data []byte) error {
	if key == "" {
		return domain.ErrInvalidInput
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[key] = memBlob{data: append([]byte(nil), data...), modTime: b.now()}
	return nil
}

// Delete moves a blob to the trash.
func (b *BlobStore) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	blob, ok := b.blobs[key]
	if !ok {
		return nil
	}
	b.trash[key] = append(b.trash[key], trashedBlob{memBlob: blob, deletedAt: b.now()})
	delete(b.blobs, key)
	return nil
}

// Restore brings back the most recently deleted blob for key.
func (b *BlobStore) Restore(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	versions := b.trash[key]
	if len(versions) == 0 {
		return domain.ErrNotFound
	}
	last := versions[len(versions)-1]
	b.blobs[key] = last.memBlob
	if len(versions) == 1 {
		delete(b.trash, key)
	} else {
		b.trash[key] = versions[:len(versions)-1]
	}
	return nil
}

// Reap drops trashed blobs deleted more than grace ago.
func (b *BlobStore) Reap(_ context.Context, grace time.Duration) (int, error) {
	cutoff := b.now().Add(-grace)
	b.mu.Lock()
	defer b.mu.Unlock()
	reaped := 0
	for key, versions := range b.trash {
		kept := versions[:0]
		for _, v := range versions {
			if v.deletedAt.Before(cutoff) {
				reaped++
				continue
			}
			kept = append(kept, v)
		}
		if len(kept) == 0 {
			delete(b.trash, key)
		} else {
			b.trash[key] = kept
		}
	}
	return reaped, nil
}
