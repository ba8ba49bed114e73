package redis

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driven"
)

// Field names in the entry hash.
const (
	fieldVector     = "vector"
	fieldDocumentID = "document_id"
	fieldTenantID   = "tenant_id"
	fieldPayload    = "payload"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex stores each entry as a hash under <prefix>vec:<id> and tracks
// ids in the set <prefix>vecidx so Count is a single SCARD. The set lives
// outside the entry namespace, so any id is a valid entry id.
type VectorIndex struct {
	client redis.UniversalClient
	keys   keyspace
	ids    string
}

// NewVectorIndex creates a vector index over client.
func NewVectorIndex(client redis.UniversalClient, prefix string) *VectorIndex {
	return &VectorIndex{
		client: client,
		keys:   keyspace(prefix + "vec"),
		ids:    keyspace(prefix + "vecidx").key(),
	}
}

func (v *VectorIndex) entryKey(id string) string { return v.keys.key(id) }
func (v *VectorIndex) idsKey() string            { return v.ids }

// Exists reports whether an entry is present.
func (v *VectorIndex) Exists(ctx context.Context, id string) (bool, error) {
	n, err := v.client.Exists(ctx, v.entryKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("checking vector entry: %w", err)
	}
	return n > 0, nil
}

// Get retrieves an entry.
func (v *VectorIndex) Get(ctx context.Context, id string) (*domain.VectorEntry, error) {
	fields, err := v.client.HGetAll(ctx, v.entryKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting vector entry: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrNotFound
	}

	entry := &domain.VectorEntry{
		ID:     id,
		Vector: decodeVector([]byte(fields[fieldVector])),
	}
	if raw := fields[fieldPayload]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &entry.Payload); err != nil {
			return nil, fmt.Errorf("unmarshalling vector payload: %w", err)
		}
	}
	return entry, nil
}

// Upsert creates or replaces an entry.
func (v *VectorIndex) Upsert(ctx context.Context, entry *domain.VectorEntry) error {
	if entry == nil || entry.ID == "" {
		return domain.ErrInvalidInput
	}
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("marshalling vector payload: %w", err)
	}

	key := v.entryKey(entry.ID)
	_, err = v.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			fieldVector, encodeVector(entry.Vector),
			fieldDocumentID, entry.Payload.DocumentID,
			fieldTenantID, entry.Payload.TenantID,
			fieldPayload, payload,
		)
		pipe.SAdd(ctx, v.idsKey(), entry.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("upserting vector entry: %w", err)
	}
	return nil
}

// Delete removes an entry.
func (v *VectorIndex) Delete(ctx context.Context, id string) error {
	_, err := v.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, v.entryKey(id))
		pipe.SRem(ctx, v.idsKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting vector entry: %w", err)
	}
	return nil
}

// Count returns the number of entries.
func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	n, err := v.client.SCard(ctx, v.idsKey()).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("counting vector entries: %w", err)
	}
	return int(n), nil
}

// Close is a no-op; the caller owns the client.
func (v *VectorIndex) Close() error { return nil }

// encodeVector packs a vector as little-endian float32s.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) []float32 {
	if len(data) < 4 {
		return nil
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec
}
