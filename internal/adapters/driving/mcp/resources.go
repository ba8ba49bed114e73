package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for audit resources.
	uriScheme = "sercha-integrity://"

	// resourceLimit caps list resources.
	resourceLimit = 100
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "audit/deletions",
		Name:        "deletion-audit",
		Description: "Most recent deletion attempts",
		MIMEType:    "application/json",
	}, s.handleDeletionsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "audit/manual",
		Name:        "manual-intervention",
		Description: "Deletions whose rollback failed and need manual intervention",
		MIMEType:    "application/json",
	}, s.handleDeletionsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "audit/deletions/{documentId}",
		Name:        "document-deletion-audit",
		Description: "Deletion attempts for one document",
		MIMEType:    "application/json",
	}, s.handleDeletionsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "audit/repairs",
		Name:        "repair-audit",
		Description: "Most recent auto-repair actions",
		MIMEType:    "application/json",
	}, s.handleRepairsResource)
}

// handleDeletionsResource serves every deletion audit resource. The
// filter is derived from the URI.
func (s *Server) handleDeletionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	filter, ok := deletionFilter(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if s.ports.Audit == nil {
		return jsonResource(req.Params.URI, []domain.DeletionAudit{})
	}

	audits, err := s.ports.Audit.ListDeletions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing deletions: %w", err)
	}
	if audits == nil {
		audits = []domain.DeletionAudit{}
	}
	return jsonResource(req.Params.URI, audits)
}

// handleRepairsResource returns recent repair actions.
func (s *Server) handleRepairsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Audit == nil {
		return jsonResource(req.Params.URI, []domain.RepairAction{})
	}

	actions, err := s.ports.Audit.ListRepairs(ctx, resourceLimit)
	if err != nil {
		return nil, fmt.Errorf("listing repairs: %w", err)
	}
	if actions == nil {
		actions = []domain.RepairAction{}
	}
	return jsonResource(req.Params.URI, actions)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// deletionFilter maps a deletion audit URI onto a filter.
func deletionFilter(uri string) (domain.AuditFilter, bool) {
	filter := domain.AuditFilter{Limit: resourceLimit}
	switch uri {
	case uriScheme + "audit/deletions":
		return filter, true
	case uriScheme + "audit/manual":
		filter.ManualOnly = true
		return filter, true
	}

	id := extractDocumentID(uri)
	if id == "" {
		return domain.AuditFilter{}, false
	}
	filter.DocumentID = id
	return filter, true
}

// extractDocumentID extracts the document ID from a URI like
// sercha-integrity://audit/deletions/{documentId}.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "audit/deletions/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
