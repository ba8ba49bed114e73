package tui

import "errors"

// ErrMissingIntegrityService is returned when the integrity service is not provided.
var ErrMissingIntegrityService = errors.New("tui: integrity service is required")

// ErrMissingAuditService is returned when the audit service is not provided.
var ErrMissingAuditService = errors.New("tui: audit service is required")
