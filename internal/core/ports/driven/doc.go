// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentStore: The relational store of record
//   - AuditStore: Append-only deletion and repair audit trail
//   - SearchIndex: Full-text search entries derived from indexed documents
//   - VectorIndex: Embedding entries derived from indexed documents
//   - BlobStore (local): Content bytes on disk
//   - DocumentLocker: Per-document advisory lock for deletion
//   - Requeuer: Re-submission hook back into ingestion
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - BlobStore (remote): Object storage. Without it, deletion skips the remote blob step.
//   - Metrics: Operational counters. Without it, nothing is exported.
//   - SchedulerStore: Task state and run history for the scheduler.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
