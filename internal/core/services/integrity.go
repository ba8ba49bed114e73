package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-integrity/internal/logger"
)

// Ensure IntegrityService implements the interface.
var _ driving.IntegrityService = (*IntegrityService)(nil)

// IntegrityService compares the relational store against the derived
// indices. It is read-only.
type IntegrityService struct {
	docs       driven.DocumentStore
	search     driven.SearchIndex
	vector     driven.VectorIndex
	metrics    driven.Metrics
	staleAfter time.Duration
	now        func() time.Time
}

// NewIntegrityService creates a new integrity service.
// metrics may be nil.
func NewIntegrityService(
	docs driven.DocumentStore,
	search driven.SearchIndex,
	vector driven.VectorIndex,
	metrics driven.Metrics,
	cfg domain.IntegritySettings,
) *IntegrityService {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &IntegrityService{
		docs:       docs,
		search:     search,
		vector:     vector,
		metrics:    metrics,
		staleAfter: cfg.StaleAfter,
		now:        time.Now,
	}
}

// RunIntegrityCheck counts documents by status and entries per derived
// store, then flags mismatches and documents needing attention.
func (s *IntegrityService) RunIntegrityCheck(ctx context.Context) (*domain.IntegrityReport, error) {
	started := s.now()
	report := &domain.IntegrityReport{
		Issues:    []domain.IntegrityIssue{},
		Warnings:  []domain.IntegrityWarning{},
		CheckedAt: started,
	}

	var byStatus map[domain.DocumentStatus]int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byStatus, err = s.docs.CountByStatus(gctx)
		if err != nil {
			return fmt.Errorf("count documents: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		report.SearchCount, err = s.search.Count(gctx)
		if err != nil {
			return fmt.Errorf("count search entries: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		report.VectorCount, err = s.vector.Count(gctx)
		if err != nil {
			return fmt.Errorf("count vector entries: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("integrity check: %w", err)
	}

	report.Counts = domain.StatusCountsFrom(byStatus)
	if want := report.Counts.ExpectedSearchEntries(); want != report.SearchCount {
		report.Issues = append(report.Issues, domain.IntegrityIssue{
			Type:     domain.IssueSearchCountMismatch,
			Store:    domain.StoreSearch,
			Expected: want,
			Actual:   report.SearchCount,
			Message:  fmt.Sprintf("search index has %d entries, expected %d (indexed + stored)", report.SearchCount, want),
		})
	}
	if want := report.Counts.ExpectedVectorEntries(); want != report.VectorCount {
		report.Issues = append(report.Issues, domain.IntegrityIssue{
			Type:     domain.IssueVectorCountMismatch,
			Store:    domain.StoreVector,
			Expected: want,
			Actual:   report.VectorCount,
			Message:  fmt.Sprintf("vector index has %d entries, expected %d (indexed)", report.VectorCount, want),
		})
	}

	missing, err := s.docs.ListDocuments(ctx, domain.DocumentFilter{
		Statuses:          []domain.DocumentStatus{domain.StatusIndexed},
		MissingDerivedIDs: true,
	})
	if err != nil {
		return nil, fmt.Errorf("integrity check: list indexed documents: %w", err)
	}
	for i := range missing {
		doc := &missing[i]
		if doc.SearchIndexID == "" {
			report.Warnings = append(report.Warnings, warningFor(doc, domain.WarningMissingSearchID,
				"indexed document has no search index id"))
		}
		if doc.VectorIndexID == "" {
			report.Warnings = append(report.Warnings, warningFor(doc, domain.WarningMissingVectorID,
				"indexed document has no vector index id"))
		}
	}

	stale, err := s.docs.ListDocuments(ctx, domain.DocumentFilter{
		Statuses:      []domain.DocumentStatus{domain.StatusPending, domain.StatusProcessing},
		UpdatedBefore: started.Add(-s.staleAfter),
	})
	if err != nil {
		return nil, fmt.Errorf("integrity check: list in-flight documents: %w", err)
	}
	for i := range stale {
		doc := &stale[i]
		report.Warnings = append(report.Warnings, warningFor(doc, domain.WarningStaleProcessing,
			fmt.Sprintf("%s since %s", doc.Status, doc.UpdatedAt.UTC().Format(time.RFC3339))))
	}

	report.Status = report.Evaluate()
	report.Duration = s.now().Sub(started)
	logger.Info("integrity check: %s (%d issues, %d warnings)", report.Status, len(report.Issues), len(report.Warnings))
	s.metrics.ObserveIntegrity(report)
	return report, nil
}

func warningFor(doc *domain.DocumentRecord, kind, message string) domain.IntegrityWarning {
	return domain.IntegrityWarning{
		Type:       kind,
		DocumentID: doc.ID,
		TenantID:   doc.TenantID,
		Status:     doc.Status,
		Message:    message,
	}
}
