// Package driving defines the interfaces that external actors use to
// invoke the core.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
// The CLI, the MCP admin surface and the scheduler call through these
// interfaces; services implement them.
//
//   - DeletionService: Atomic multi-store document deletion
//   - IntegrityService: Read-only drift detection
//   - RepairService: Automatic drift repair
//   - AuditService: Read access to the audit trail
//   - SettingsService: Runtime configuration
//   - Scheduler: Periodic maintenance tasks
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driving
