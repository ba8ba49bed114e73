package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `id, tenant_id, filename, content_hash, local_path, remote_key, status,
	search_index_id, vector_index_id, error_message, created_at, updated_at`

// GetDocument retrieves a document scoped to a tenant.
func (s *documentStore) GetDocument(ctx context.Context, tenantID, id string) (*domain.DocumentRecord, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = ? AND tenant_id = ?", id, tenantID)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

// SaveDocument stores or updates a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.DocumentRecord) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	created := doc.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	updated := doc.UpdatedAt
	if updated.IsZero() {
		updated = created
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tenant_id = excluded.tenant_id,
			filename = excluded.filename,
			content_hash = excluded.content_hash,
			local_path = excluded.local_path,
			remote_key = excluded.remote_key,
			status = excluded.status,
			search_index_id = excluded.search_index_id,
			vector_index_id = excluded.vector_index_id,
			error_message = excluded.error_message,
			updated_at = excluded.updated_at
	`, doc.ID, doc.TenantID, doc.Filename, doc.ContentHash,
		nullString(doc.LocalPath), nullString(doc.RemoteKey), string(doc.Status),
		nullString(doc.SearchIndexID), nullString(doc.VectorIndexID), nullString(doc.ErrorMessage),
		formatTime(created), formatTime(updated))
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// ListDocuments returns documents matching the filter, oldest first.
func (s *documentStore) ListDocuments(ctx context.Context, filter domain.DocumentFilter) ([]domain.DocumentRecord, error) {
	var where []string
	var args []any

	if filter.TenantID != "" {
		where = append(where, "tenant_id = ?")
		args = append(args, filter.TenantID)
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, string(st))
		}
		where = append(where, "status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if !filter.UpdatedBefore.IsZero() {
		where = append(where, "updated_at < ?")
		args = append(args, formatTime(filter.UpdatedBefore))
	}
	if filter.MissingDerivedIDs {
		where = append(where, "(COALESCE(search_index_id, '') = '' OR COALESCE(vector_index_id, '') = '')")
	}

	query := "SELECT " + documentColumns + " FROM documents"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY updated_at, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := make([]domain.DocumentRecord, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// CountByStatus returns the number of documents in each status.
func (s *documentStore) CountByStatus(ctx context.Context) (map[domain.DocumentStatus]int, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM documents GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("counting documents: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.DocumentStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		counts[domain.DocumentStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating status counts: %w", err)
	}
	return counts, nil
}

// ResetForReprocessing moves an indexed document back to pending.
func (s *documentStore) ResetForReprocessing(ctx context.Context, id string) (bool, error) {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE documents
		SET status = ?, search_index_id = NULL, vector_index_id = NULL,
			error_message = NULL, updated_at = ?
		WHERE id = ? AND status = ?
	`, string(domain.StatusPending), formatTime(time.Now()), id, string(domain.StatusIndexed))
	if err != nil {
		return false, fmt.Errorf("resetting document: %w", err)
	}
	return affected(res)
}

// MarkFailed moves a stuck in-flight document to failed.
func (s *documentStore) MarkFailed(ctx context.Context, id, message string, cutoff time.Time) (bool, error) {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE documents
		SET status = ?, error_message = ?, updated_at = ?
		WHERE id = ? AND status IN (?, ?) AND updated_at < ?
	`, string(domain.StatusFailed), message, formatTime(time.Now()), id,
		string(domain.StatusPending), string(domain.StatusProcessing), formatTime(cutoff))
	if err != nil {
		return false, fmt.Errorf("marking document failed: %w", err)
	}
	return affected(res)
}

// FinalizeDeletion inserts the audit row and deletes the document in one
// transaction.
func (s *documentStore) FinalizeDeletion(ctx context.Context, audit *domain.DeletionAudit) error {
	if audit == nil {
		return domain.ErrInvalidInput
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning finalize: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ? AND tenant_id = ?",
		audit.DocumentID, audit.TenantID)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	deleted, err := affected(res)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}

	if err := insertDeletionAudit(ctx, tx, audit); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing finalize: %w", err)
	}
	return nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}
	return n > 0, nil
}

func scanDocument(row rowScanner) (*domain.DocumentRecord, error) {
	var doc domain.DocumentRecord
	var status, createdAt, updatedAt string
	var localPath, remoteKey, searchID, vectorID, errMsg sql.NullString

	if err := row.Scan(&doc.ID, &doc.TenantID, &doc.Filename, &doc.ContentHash,
		&localPath, &remoteKey, &status, &searchID, &vectorID, &errMsg,
		&createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.LocalPath = localPath.String
	doc.RemoteKey = remoteKey.String
	doc.Status = domain.DocumentStatus(status)
	doc.SearchIndexID = searchID.String
	doc.VectorIndexID = vectorID.String
	doc.ErrorMessage = errMsg.String
	doc.CreatedAt = parseTime(createdAt)
	doc.UpdatedAt = parseTime(updatedAt)
	return &doc, nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertDeletionAudit(ctx context.Context, db execer, audit *domain.DeletionAudit) error {
	phases, err := json.Marshal(audit.Phases)
	if err != nil {
		return fmt.Errorf("marshalling phases: %w", err)
	}
	if audit.Phases == nil {
		phases = []byte("[]")
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO deletion_audit (id, document_id, tenant_id, filename, actor, phases, status,
			requires_manual_intervention, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, audit.ID, audit.DocumentID, audit.TenantID, audit.Filename, audit.Actor, string(phases),
		string(audit.Status), boolToInt(audit.RequiresManualIntervention), nullString(audit.Error),
		formatTime(audit.StartedAt), formatTime(audit.CompletedAt))
	if err != nil {
		return fmt.Errorf("inserting deletion audit: %w", err)
	}
	return nil
}
