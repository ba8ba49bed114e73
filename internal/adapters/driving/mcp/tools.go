package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

// DeleteInput is the input schema for the delete_document tool.
type DeleteInput struct {
	DocumentID string `json:"document_id" jsonschema:"id of the document to delete"`
	TenantID   string `json:"tenant_id" jsonschema:"tenant that owns the document"`
	Actor      string `json:"actor,omitempty" jsonschema:"who requested the deletion, recorded in the audit trail"`
}

// PhaseOutput is one phase/store step of a deletion.
type PhaseOutput struct {
	Phase   string `json:"phase"`
	Store   string `json:"store,omitempty"`
	Success bool   `json:"success"`
	Skipped bool   `json:"skipped,omitempty"`
	Warning string `json:"warning,omitempty"`
	Error   string `json:"error,omitempty"`
}

// DeleteOutput is the output schema for the delete_document tool.
type DeleteOutput struct {
	DocumentID                 string        `json:"document_id"`
	State                      string        `json:"state"`
	AuditStatus                string        `json:"audit_status,omitempty"`
	RequiresManualIntervention bool          `json:"requires_manual_intervention"`
	Error                      string        `json:"error,omitempty"`
	Phases                     []PhaseOutput `json:"phases"`
}

// IntegrityInput is the input schema for the run_integrity_check tool.
type IntegrityInput struct{}

// CountsOutput mirrors domain.StatusCounts.
type CountsOutput struct {
	Total    int `json:"total"`
	Indexed  int `json:"indexed"`
	Stored   int `json:"stored"`
	InFlight int `json:"in_flight"`
	Failed   int `json:"failed"`
}

// IssueOutput is one count mismatch.
type IssueOutput struct {
	Type     string `json:"type"`
	Store    string `json:"store"`
	Expected int    `json:"expected"`
	Actual   int    `json:"actual"`
	Message  string `json:"message"`
}

// WarningOutput is one per-document warning.
type WarningOutput struct {
	Type       string `json:"type"`
	DocumentID string `json:"document_id"`
	TenantID   string `json:"tenant_id"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

// IntegrityOutput is the output schema for the run_integrity_check tool.
type IntegrityOutput struct {
	Status      string          `json:"status"`
	Counts      CountsOutput    `json:"counts"`
	SearchCount int             `json:"search_count"`
	VectorCount int             `json:"vector_count"`
	Issues      []IssueOutput   `json:"issues"`
	Warnings    []WarningOutput `json:"warnings"`
	CheckedAt   string          `json:"checked_at"`
	DurationMS  int64           `json:"duration_ms"`
}

// RepairInput is the input schema for the run_auto_repair tool.
type RepairInput struct{}

// RepairOutput is the output schema for the run_auto_repair tool.
type RepairOutput struct {
	Requeued     []string `json:"requeued"`
	MarkedFailed []string `json:"marked_failed"`
	Errors       []string `json:"errors"`
	Total        int      `json:"total"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "delete_document",
		Description: "Delete a document from the relational store, search index, vector index " +
			"and blob stores atomically. Every change is reverted if any store fails.",
	}, s.handleDelete)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "run_integrity_check",
		Description: "Compare document counts against the search and vector indices and flag documents needing attention. Read-only.",
	}, s.handleIntegrityCheck)

	if s.ports.Repair != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "run_auto_repair",
			Description: "Requeue indexed documents missing index ids and fail documents stuck in processing.",
		}, s.handleAutoRepair)
	}
}

// handleDelete handles the delete_document tool invocation. A deletion
// that was attempted but failed is reported as a tool error carrying the
// outcome, so the caller sees which stores were reverted.
func (s *Server) handleDelete(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteInput,
) (*mcp.CallToolResult, DeleteOutput, error) {
	if input.DocumentID == "" || input.TenantID == "" {
		return nil, DeleteOutput{}, errors.New("document_id and tenant_id are required")
	}
	actor := input.Actor
	if actor == "" {
		actor = "mcp"
	}

	outcome, err := s.ports.Deletion.DeleteDocument(ctx, domain.DeletionRequest{
		DocumentID: input.DocumentID,
		TenantID:   input.TenantID,
		Actor:      actor,
	})
	if outcome == nil {
		return nil, DeleteOutput{}, err
	}

	output := deleteOutput(input.DocumentID, outcome)
	if err != nil {
		output.Error = err.Error()
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		}, output, nil
	}
	return nil, output, nil
}

func deleteOutput(documentID string, outcome *domain.DeletionOutcome) DeleteOutput {
	output := DeleteOutput{
		DocumentID: documentID,
		State:      string(outcome.State),
		Phases:     []PhaseOutput{},
	}
	if outcome.Audit == nil {
		return output
	}
	output.AuditStatus = string(outcome.Audit.Status)
	output.RequiresManualIntervention = outcome.Audit.RequiresManualIntervention
	for _, p := range outcome.Audit.Phases {
		output.Phases = append(output.Phases, PhaseOutput{
			Phase:   string(p.Phase),
			Store:   string(p.Store),
			Success: p.Success,
			Skipped: p.Skipped,
			Warning: p.Warning,
			Error:   p.Error,
		})
	}
	return output
}

// handleIntegrityCheck handles the run_integrity_check tool invocation.
func (s *Server) handleIntegrityCheck(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ IntegrityInput,
) (*mcp.CallToolResult, IntegrityOutput, error) {
	report, err := s.ports.Integrity.RunIntegrityCheck(ctx)
	if err != nil {
		return nil, IntegrityOutput{}, err
	}

	output := IntegrityOutput{
		Status: string(report.Status),
		Counts: CountsOutput{
			Total:    report.Counts.Total,
			Indexed:  report.Counts.Indexed,
			Stored:   report.Counts.Stored,
			InFlight: report.Counts.InFlight,
			Failed:   report.Counts.Failed,
		},
		SearchCount: report.SearchCount,
		VectorCount: report.VectorCount,
		Issues:      make([]IssueOutput, 0, len(report.Issues)),
		Warnings:    make([]WarningOutput, 0, len(report.Warnings)),
		CheckedAt:   report.CheckedAt.UTC().Format(time.RFC3339),
		DurationMS:  report.Duration.Milliseconds(),
	}
	for _, issue := range report.Issues {
		output.Issues = append(output.Issues, IssueOutput{
			Type:     issue.Type,
			Store:    string(issue.Store),
			Expected: issue.Expected,
			Actual:   issue.Actual,
			Message:  issue.Message,
		})
	}
	for _, w := range report.Warnings {
		output.Warnings = append(output.Warnings, WarningOutput{
			Type:       w.Type,
			DocumentID: w.DocumentID,
			TenantID:   w.TenantID,
			Status:     string(w.Status),
			Message:    w.Message,
		})
	}
	return nil, output, nil
}

// handleAutoRepair handles the run_auto_repair tool invocation.
// Per-document failures are reported in the output, not as a tool error.
func (s *Server) handleAutoRepair(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ RepairInput,
) (*mcp.CallToolResult, RepairOutput, error) {
	report, err := s.ports.Repair.RunAutoRepair(ctx)
	if report == nil {
		return nil, RepairOutput{}, err
	}

	output := RepairOutput{
		Requeued:     append([]string{}, report.Requeued...),
		MarkedFailed: append([]string{}, report.MarkedFailed...),
		Errors:       append([]string{}, report.Errors...),
		Total:        report.Total(),
	}
	return nil, output, nil
}
