package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-integrity/internal/logger"
)

// Ensure RepairService implements the interface.
var _ driving.RepairService = (*RepairService)(nil)

// RepairService fixes drift between the relational store and the derived
// indices. Every mutation is conditional on the status it observed, so
// repeated or overlapping passes converge.
type RepairService struct {
	docs       driven.DocumentStore
	audit      driven.AuditStore
	requeuer   driven.Requeuer
	metrics    driven.Metrics
	stuckAfter time.Duration
	limiter    *rate.Limiter
	now        func() time.Time
}

// NewRepairService creates a new repair service.
// metrics may be nil. A requeue rate of zero is unlimited.
func NewRepairService(
	docs driven.DocumentStore,
	audit driven.AuditStore,
	requeuer driven.Requeuer,
	metrics driven.Metrics,
	repairCfg domain.RepairSettings,
	requeueCfg domain.RequeueSettings,
) *RepairService {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	limit := rate.Inf
	if requeueCfg.Rate > 0 && !math.IsInf(requeueCfg.Rate, 1) {
		limit = rate.Limit(requeueCfg.Rate)
	}
	return &RepairService{
		docs:       docs,
		audit:      audit,
		requeuer:   requeuer,
		metrics:    metrics,
		stuckAfter: repairCfg.StuckAfter,
		limiter:    rate.NewLimiter(limit, 1),
		now:        time.Now,
	}
}

// RunAutoRepair requeues indexed documents missing a derived id and fails
// documents stuck in flight. Per-document failures do not stop the pass;
// they are listed in the report and returned joined.
func (s *RepairService) RunAutoRepair(ctx context.Context) (*domain.RepairReport, error) {
	report := &domain.RepairReport{
		Requeued:     []string{},
		MarkedFailed: []string{},
		StartedAt:    s.now(),
	}
	var errs []error
	fail := func(docID string, err error) {
		logger.Warn("auto-repair %s: %v", docID, err)
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", docID, err))
		errs = append(errs, fmt.Errorf("document %s: %w", docID, err))
	}

	missing, err := s.docs.ListDocuments(ctx, domain.DocumentFilter{
		Statuses:          []domain.DocumentStatus{domain.StatusIndexed},
		MissingDerivedIDs: true,
	})
	if err != nil {
		return nil, fmt.Errorf("auto-repair: list indexed documents: %w", err)
	}
	for i := range missing {
		doc := &missing[i]
		if err := s.limiter.Wait(ctx); err != nil {
			return report, errors.Join(append(errs, err)...)
		}
		changed, err := s.requeue(ctx, doc)
		if err != nil {
			fail(doc.ID, err)
			continue
		}
		if changed {
			report.Requeued = append(report.Requeued, doc.ID)
		}
	}

	cutoff := report.StartedAt.Add(-s.stuckAfter)
	stuck, err := s.docs.ListDocuments(ctx, domain.DocumentFilter{
		Statuses:      []domain.DocumentStatus{domain.StatusPending, domain.StatusProcessing},
		UpdatedBefore: cutoff,
	})
	if err != nil {
		return report, errors.Join(append(errs, fmt.Errorf("auto-repair: list in-flight documents: %w", err))...)
	}
	for i := range stuck {
		doc := &stuck[i]
		changed, err := s.markFailed(ctx, doc, cutoff)
		if err != nil {
			fail(doc.ID, err)
			continue
		}
		if changed {
			report.MarkedFailed = append(report.MarkedFailed, doc.ID)
		}
	}

	report.CompletedAt = s.now()
	logger.Info("auto-repair: requeued %d, marked failed %d, errors %d",
		len(report.Requeued), len(report.MarkedFailed), len(report.Errors))
	s.metrics.ObserveRepair(report)
	return report, errors.Join(errs...)
}

// requeue resets an indexed document to pending and resubmits it.
// A document that left indexed since it was listed is left alone.
func (s *RepairService) requeue(ctx context.Context, doc *domain.DocumentRecord) (bool, error) {
	changed, err := s.docs.ResetForReprocessing(ctx, doc.ID)
	if err != nil {
		return false, fmt.Errorf("reset: %w", err)
	}
	if !changed {
		logger.Debug("auto-repair %s: no longer indexed, skipping", doc.ID)
		return false, nil
	}

	reason := "indexed without search or vector index id"
	switch {
	case doc.SearchIndexID == "" && doc.VectorIndexID == "":
		reason = "indexed without search and vector index ids"
	case doc.SearchIndexID == "":
		reason = "indexed without search index id"
	case doc.VectorIndexID == "":
		reason = "indexed without vector index id"
	}
	s.recordAction(ctx, doc, domain.RepairRequeued, reason)

	// The document stays pending if requeue fails; a later pass fails it
	// once it has been stuck long enough.
	if err := s.requeuer.Requeue(ctx, doc.ID); err != nil {
		return false, fmt.Errorf("requeue: %w", err)
	}
	return true, nil
}

func (s *RepairService) markFailed(ctx context.Context, doc *domain.DocumentRecord, cutoff time.Time) (bool, error) {
	message := fmt.Sprintf("timed out: %s for more than %s, marked failed by auto-repair", doc.Status, s.stuckAfter)
	changed, err := s.docs.MarkFailed(ctx, doc.ID, message, cutoff)
	if err != nil {
		return false, fmt.Errorf("mark failed: %w", err)
	}
	if changed {
		s.recordAction(ctx, doc, domain.RepairMarkedFailed, message)
	}
	return changed, nil
}

// recordAction appends to the repair audit trail. A write failure is
// logged; the repair itself has already been applied.
func (s *RepairService) recordAction(
	ctx context.Context,
	doc *domain.DocumentRecord,
	action domain.RepairActionType,
	reason string,
) {
	entry := &domain.RepairAction{
		ID:             uuid.NewString(),
		DocumentID:     doc.ID,
		TenantID:       doc.TenantID,
		Action:         action,
		PreviousStatus: doc.Status,
		Reason:         reason,
		At:             s.now(),
	}
	if err := s.audit.RecordRepair(ctx, entry); err != nil {
		logger.Error("auto-repair %s: failed to record %s action: %v", doc.ID, action, err)
	}
}
