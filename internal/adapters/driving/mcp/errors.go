// Package mcp provides an MCP (Model Context Protocol) admin surface for
// sercha-integrity. Assistants can delete documents, run the integrity
// check and auto-repair, and read the audit trail.
package mcp

import "errors"

// ErrMissingDeletionService is returned when the deletion service is not provided.
var ErrMissingDeletionService = errors.New("mcp: deletion service is required")

// ErrMissingIntegrityService is returned when the integrity service is not provided.
var ErrMissingIntegrityService = errors.New("mcp: integrity service is required")
