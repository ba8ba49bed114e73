// Package domain defines the core business entities for Sercha Integrity.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - DocumentRecord: The authoritative metadata row in the relational store
//   - SearchEntry, VectorEntry, BlobInfo: Derived store entries
//   - DeletionAudit, RepairAction: Append-only audit trail records
//   - IntegrityReport, RepairReport: Operator-facing reports
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
