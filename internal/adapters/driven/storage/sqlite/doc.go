// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. One database file holds:
//
//   - DocumentStore: the relational store of record
//   - AuditStore: deletion and repair audit trail
//   - SearchIndex and VectorIndex: derived stores for single-node deployments
//   - Outbox: requeue hand-off to ingestion
//   - SchedulerStore: scheduled task state and history
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Transactions
//
// FinalizeDeletion inserts the deletion audit row and deletes the document
// row in one transaction. Repair updates are conditional on the observed
// status so concurrent repair passes cannot double-apply.
package sqlite
