package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driven"
)

// ==================== Search Index ====================

// searchIndex implements driven.SearchIndex over the search_entries table.
type searchIndex struct {
	store *Store
}

var _ driven.SearchIndex = (*searchIndex)(nil)

func (s *searchIndex) Exists(ctx context.Context, id string) (bool, error) {
	return rowExists(ctx, s.store.db, "SELECT 1 FROM search_entries WHERE id = ?", id)
}

func (s *searchIndex) Get(ctx context.Context, id string) (*domain.SearchEntry, error) {
	var e domain.SearchEntry
	err := s.store.db.QueryRowContext(ctx,
		"SELECT id, document_id, tenant_id, source FROM search_entries WHERE id = ?", id).
		Scan(&e.ID, &e.DocumentID, &e.TenantID, &e.Source)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting search entry: %w", err)
	}
	return &e, nil
}

func (s *searchIndex) Index(ctx context.Context, entry *domain.SearchEntry) error {
	if entry == nil || entry.ID == "" {
		return domain.ErrInvalidInput
	}
	source := entry.Source
	if source == nil {
		source = []byte{}
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO search_entries (id, document_id, tenant_id, source) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			tenant_id = excluded.tenant_id,
			source = excluded.source
	`, entry.ID, entry.DocumentID, entry.TenantID, source)
	if err != nil {
		return fmt.Errorf("indexing search entry: %w", err)
	}
	return nil
}

func (s *searchIndex) Delete(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM search_entries WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting search entry: %w", err)
	}
	return nil
}

func (s *searchIndex) Count(ctx context.Context) (int, error) {
	return countRows(ctx, s.store.db, "search_entries")
}

// Close is a no-op; the Store owns the connection.
func (s *searchIndex) Close() error { return nil }

// ==================== Vector Index ====================

// vectorIndex implements driven.VectorIndex over the vector_entries table.
// Embeddings are stored as little-endian float32 blobs.
type vectorIndex struct {
	store *Store
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

func (v *vectorIndex) Exists(ctx context.Context, id string) (bool, error) {
	return rowExists(ctx, v.store.db, "SELECT 1 FROM vector_entries WHERE id = ?", id)
}

func (v *vectorIndex) Get(ctx context.Context, id string) (*domain.VectorEntry, error) {
	var e domain.VectorEntry
	var embedding []byte
	var payload string
	err := v.store.db.QueryRowContext(ctx,
		"SELECT id, embedding, payload FROM vector_entries WHERE id = ?", id).
		Scan(&e.ID, &embedding, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting vector entry: %w", err)
	}
	e.Vector = bytesToFloat32Slice(embedding)
	if err := json.Unmarshal([]byte(payload), &e.Payload); err != nil {
		return nil, fmt.Errorf("unmarshalling vector payload: %w", err)
	}
	return &e, nil
}

func (v *vectorIndex) Upsert(ctx context.Context, entry *domain.VectorEntry) error {
	if entry == nil || entry.ID == "" {
		return domain.ErrInvalidInput
	}
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("marshalling vector payload: %w", err)
	}
	_, err = v.store.db.ExecContext(ctx, `
		INSERT INTO vector_entries (id, document_id, tenant_id, embedding, payload) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			tenant_id = excluded.tenant_id,
			embedding = excluded.embedding,
			payload = excluded.payload
	`, entry.ID, entry.Payload.DocumentID, entry.Payload.TenantID,
		float32SliceToBytes(entry.Vector), string(payload))
	if err != nil {
		return fmt.Errorf("upserting vector entry: %w", err)
	}
	return nil
}

func (v *vectorIndex) Delete(ctx context.Context, id string) error {
	if _, err := v.store.db.ExecContext(ctx, "DELETE FROM vector_entries WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting vector entry: %w", err)
	}
	return nil
}

func (v *vectorIndex) Count(ctx context.Context) (int, error) {
	return countRows(ctx, v.store.db, "vector_entries")
}

// Close is a no-op; the Store owns the connection.
func (v *vectorIndex) Close() error { return nil }

func rowExists(ctx context.Context, db *sql.DB, query string, args ...any) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking existence: %w", err)
	}
	return true, nil
}

// countRows counts a table. table is always a constant from this package.
func countRows(ctx context.Context, db *sql.DB, table string) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil { //nolint:gosec // constant table name
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	return n, nil
}
