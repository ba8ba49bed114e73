package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driven"
)

// Outbox is the requeue hand-off table. Auto-repair writes rows; the
// ingestion worker claims them in order.
type Outbox struct {
	store *Store
}

var _ driven.Requeuer = (*Outbox)(nil)

// OutboxEntry is one requeue request.
type OutboxEntry struct {
	ID         int64
	DocumentID string
	EnqueuedAt time.Time
}

// Requeue appends a document to the outbox.
func (o *Outbox) Requeue(ctx context.Context, documentID string) error {
	_, err := o.store.db.ExecContext(ctx,
		"INSERT INTO requeue_outbox (document_id, enqueued_at) VALUES (?, ?)",
		documentID, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("enqueueing %s: %w", documentID, err)
	}
	return nil
}

// Claim marks up to limit unclaimed entries as claimed and returns them,
// oldest first.
func (o *Outbox) Claim(ctx context.Context, limit int) ([]OutboxEntry, error) {
	tx, err := o.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning claim: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	rows, err := tx.QueryContext(ctx, `
		SELECT id, document_id, enqueued_at FROM requeue_outbox
		WHERE claimed_at IS NULL ORDER BY id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying outbox: %w", err)
	}
	entries := make([]OutboxEntry, 0)
	for rows.Next() {
		var e OutboxEntry
		var enqueuedAt string
		if err := rows.Scan(&e.ID, &e.DocumentID, &enqueuedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning outbox entry: %w", err)
		}
		e.EnqueuedAt = parseTime(enqueuedAt)
		entries = append(entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating outbox: %w", err)
	}

	claimedAt := formatTime(time.Now())
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx,
			"UPDATE requeue_outbox SET claimed_at = ? WHERE id = ?", claimedAt, e.ID); err != nil {
			return nil, fmt.Errorf("claiming outbox entry %d: %w", e.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing claim: %w", err)
	}
	return entries, nil
}

// Pending returns the number of unclaimed entries.
func (o *Outbox) Pending(ctx context.Context) (int, error) {
	var n int
	err := o.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM requeue_outbox WHERE claimed_at IS NULL").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting outbox: %w", err)
	}
	return n, nil
}
