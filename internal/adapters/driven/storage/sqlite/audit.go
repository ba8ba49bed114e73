package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driven"
)

// auditStore implements driven.AuditStore.
type auditStore struct {
	store *Store
}

var _ driven.AuditStore = (*auditStore)(nil)

// RecordDeletion appends a deletion audit record.
func (s *auditStore) RecordDeletion(ctx context.Context, audit *domain.DeletionAudit) error {
	if audit == nil {
		return domain.ErrInvalidInput
	}
	return insertDeletionAudit(ctx, s.store.db, audit)
}

// ListDeletions returns deletion records, most recent first.
func (s *auditStore) ListDeletions(ctx context.Context, filter domain.AuditFilter) ([]domain.DeletionAudit, error) {
	var where []string
	var args []any
	if filter.DocumentID != "" {
		where = append(where, "document_id = ?")
		args = append(args, filter.DocumentID)
	}
	if filter.ManualOnly {
		where = append(where, "requires_manual_intervention = 1")
	}

	query := `SELECT id, document_id, tenant_id, filename, actor, phases, status,
		requires_manual_intervention, error, started_at, completed_at FROM deletion_audit`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY completed_at DESC, rowid DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying deletion audit: %w", err)
	}
	defer rows.Close()

	records := make([]domain.DeletionAudit, 0)
	for rows.Next() {
		var a domain.DeletionAudit
		var phases, status, startedAt, completedAt string
		var manual int
		var errMsg sql.NullString
		if err := rows.Scan(&a.ID, &a.DocumentID, &a.TenantID, &a.Filename, &a.Actor, &phases,
			&status, &manual, &errMsg, &startedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("scanning deletion audit: %w", err)
		}
		if err := json.Unmarshal([]byte(phases), &a.Phases); err != nil {
			return nil, fmt.Errorf("unmarshalling phases of %s: %w", a.ID, err)
		}
		a.Status = domain.AuditStatus(status)
		a.RequiresManualIntervention = manual == 1
		a.Error = errMsg.String
		a.StartedAt = parseTime(startedAt)
		a.CompletedAt = parseTime(completedAt)
		records = append(records, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating deletion audit: %w", err)
	}
	return records, nil
}

// RecordRepair appends a repair action record.
func (s *auditStore) RecordRepair(ctx context.Context, action *domain.RepairAction) error {
	if action == nil {
		return domain.ErrInvalidInput
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO repair_audit (id, document_id, tenant_id, action, previous_status, reason, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, action.ID, action.DocumentID, action.TenantID, string(action.Action),
		string(action.PreviousStatus), action.Reason, formatTime(action.At))
	if err != nil {
		return fmt.Errorf("inserting repair audit: %w", err)
	}
	return nil
}

// ListRepairs returns repair records, most recent first.
func (s *auditStore) ListRepairs(ctx context.Context, limit int) ([]domain.RepairAction, error) {
	query := `SELECT id, document_id, tenant_id, action, previous_status, reason, at
		FROM repair_audit ORDER BY at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying repair audit: %w", err)
	}
	defer rows.Close()

	actions := make([]domain.RepairAction, 0)
	for rows.Next() {
		var a domain.RepairAction
		var action, previous, at string
		if err := rows.Scan(&a.ID, &a.DocumentID, &a.TenantID, &action, &previous, &a.Reason, &at); err != nil {
			return nil, fmt.Errorf("scanning repair audit: %w", err)
		}
		a.Action = domain.RepairActionType(action)
		a.PreviousStatus = domain.DocumentStatus(previous)
		a.At = parseTime(at)
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating repair audit: %w", err)
	}
	return actions, nil
}
