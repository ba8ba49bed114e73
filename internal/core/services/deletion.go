package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-integrity/internal/logger"
	"github.com/custodia-labs/sercha-integrity/internal/snapshot"
)

// Ensure DeletionService implements the interface.
var _ driving.DeletionService = (*DeletionService)(nil)

// DeletionStores groups the adapters a deletion touches.
// RemoteBlob, Locker and Metrics may be nil.
type DeletionStores struct {
	Documents  driven.DocumentStore
	Audit      driven.AuditStore
	Search     driven.SearchIndex
	Vector     driven.VectorIndex
	LocalBlob  driven.BlobStore
	RemoteBlob driven.BlobStore
	Locker     driven.DocumentLocker
	Metrics    driven.Metrics
}

// DeletionService removes a document from every store in three phases.
//
// Prepare reads each store and captures what is needed to recreate it.
// Commit deletes the derived entries in a fixed order. Finalize deletes the
// relational record and writes the audit record in one transaction. If
// Commit or Finalize fails, the captured entries are written back.
//
// The service holds no per-call state; concurrent deletions of different
// documents share nothing but adapter clients.
type DeletionService struct {
	docs    driven.DocumentStore
	audit   driven.AuditStore
	search  driven.SearchIndex
	vector  driven.VectorIndex
	local   driven.BlobStore
	remote  driven.BlobStore
	locker  driven.DocumentLocker
	metrics driven.Metrics
	cfg     domain.DeletionSettings
	now     func() time.Time
}

// NewDeletionService creates a new deletion service.
func NewDeletionService(stores DeletionStores, cfg domain.DeletionSettings) *DeletionService {
	metrics := stores.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &DeletionService{
		docs:    stores.Documents,
		audit:   stores.Audit,
		search:  stores.Search,
		vector:  stores.Vector,
		local:   stores.LocalBlob,
		remote:  stores.RemoteBlob,
		locker:  stores.Locker,
		metrics: metrics,
		cfg:     cfg,
		now:     time.Now,
	}
}

// deletionPlan is the rollback material captured by Prepare and threaded
// through Commit, Finalize and Rollback. A nil entry means the store had
// nothing to delete.
type deletionPlan struct {
	doc   *domain.DocumentRecord
	audit *domain.DeletionAudit

	search *domain.SearchEntry
	vector *domain.VectorEntry

	localKey  string
	localInfo *domain.BlobInfo

	remoteKey string
	remote    *snapshot.Blob

	// attempted holds stores whose delete was issued, deleted those whose
	// delete returned without error.
	attempted map[domain.Store]bool
	deleted   map[domain.Store]bool
}

func (p *deletionPlan) record(phase domain.DeletionPhase, store domain.Store, at time.Time, err error) {
	outcome := domain.PhaseOutcome{Phase: phase, Store: store, Success: err == nil, At: at}
	if err != nil {
		outcome.Error = err.Error()
	}
	p.audit.Phases = append(p.audit.Phases, outcome)
}

func (p *deletionPlan) skip(phase domain.DeletionPhase, store domain.Store, at time.Time) {
	p.audit.Phases = append(p.audit.Phases, domain.PhaseOutcome{
		Phase: phase, Store: store, Success: true, Skipped: true, At: at,
	})
}

func (p *deletionPlan) warn(phase domain.DeletionPhase, store domain.Store, at time.Time, warning string) {
	p.audit.Phases = append(p.audit.Phases, domain.PhaseOutcome{
		Phase: phase, Store: store, Success: true, Warning: warning, At: at,
	})
}

// DeleteDocument deletes one document from every store or reverts.
func (s *DeletionService) DeleteDocument(
	ctx context.Context,
	req domain.DeletionRequest,
) (*domain.DeletionOutcome, error) {
	if req.DocumentID == "" || req.TenantID == "" {
		return nil, fmt.Errorf("%w: document id and tenant id are required", domain.ErrInvalidInput)
	}

	started := s.now()

	if s.locker != nil {
		var lease driven.Lease
		err := s.call(ctx, "lock", "acquire", func(c context.Context) error {
			var lockErr error
			lease, lockErr = s.locker.TryLock(c, req.DocumentID)
			return lockErr
		})
		if err != nil {
			return nil, err
		}
		defer s.release(ctx, req.DocumentID, lease)
	}

	// Fetch
	var doc *domain.DocumentRecord
	err := s.call(ctx, domain.StoreRelational, "get", func(c context.Context) error {
		var getErr error
		doc, getErr = s.docs.GetDocument(c, req.TenantID, req.DocumentID)
		return getErr
	})
	if err != nil {
		return nil, err
	}

	audit := &domain.DeletionAudit{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		TenantID:   doc.TenantID,
		Filename:   doc.Filename,
		Actor:      req.Actor,
		StartedAt:  started,
	}
	logger.Section("Delete " + doc.ID)

	plan, err := s.prepare(ctx, doc, audit)
	if err != nil {
		return s.abort(ctx, plan, err)
	}

	// Once Commit begins the protocol runs to completion.
	ctx = context.WithoutCancel(ctx)

	if err := s.commit(ctx, plan); err != nil {
		return s.rollback(ctx, plan, domain.StateCommitFailed, fmt.Errorf("%w: %w", domain.ErrCommitFailed, err))
	}

	if err := s.finalize(ctx, plan); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.finalizedElsewhere(ctx, plan, err)
		}
		return s.rollback(ctx, plan, domain.StateFinalizeFailed, fmt.Errorf("%w: %w", domain.ErrFinalizeFailed, err))
	}

	logger.Info("delete %s: finalized in %s", doc.ID, audit.CompletedAt.Sub(started))
	s.metrics.ObserveDeletion(domain.StateFinalized, audit.CompletedAt.Sub(started))
	return &domain.DeletionOutcome{State: domain.StateFinalized, Audit: audit}, nil
}

// prepare captures the state of every store without mutating anything.
// Check failures are treated as "absent" unless strict prepare is on.
func (s *DeletionService) prepare(
	ctx context.Context,
	doc *domain.DocumentRecord,
	audit *domain.DeletionAudit,
) (*deletionPlan, error) {
	plan := &deletionPlan{
		doc:       doc,
		audit:     audit,
		localKey:  doc.LocalPath,
		remoteKey: doc.RemoteKey,
		attempted: make(map[domain.Store]bool),
		deleted:   make(map[domain.Store]bool),
	}
	if plan.localKey == "" {
		plan.localKey = domain.BlobKey(doc.TenantID, doc.ID, doc.Filename)
	}
	if plan.remoteKey == "" {
		plan.remoteKey = domain.BlobKey(doc.TenantID, doc.ID, doc.Filename)
	}
	plan.record(domain.PhaseFetch, domain.StoreRelational, s.now(), nil)

	var failures []error
	checked := func(store domain.Store, err error) {
		switch {
		case err == nil, errors.Is(err, domain.ErrNotFound):
			plan.record(domain.PhasePrepare, store, s.now(), nil)
		default:
			logger.Warn("prepare %s: %s check failed, assuming absent: %v", doc.ID, store, err)
			plan.warn(domain.PhasePrepare, store, s.now(), "check failed, assumed absent: "+err.Error())
			failures = append(failures, err)
		}
	}

	if doc.SearchIndexID == "" {
		plan.skip(domain.PhasePrepare, domain.StoreSearch, s.now())
	} else {
		checked(domain.StoreSearch, s.call(ctx, domain.StoreSearch, "get", func(c context.Context) error {
			entry, err := s.search.Get(c, doc.SearchIndexID)
			plan.search = entry
			return err
		}))
	}

	if doc.VectorIndexID == "" {
		plan.skip(domain.PhasePrepare, domain.StoreVector, s.now())
	} else {
		checked(domain.StoreVector, s.call(ctx, domain.StoreVector, "get", func(c context.Context) error {
			entry, err := s.vector.Get(c, doc.VectorIndexID)
			plan.vector = entry
			return err
		}))
	}

	if s.local == nil {
		plan.skip(domain.PhasePrepare, domain.StoreLocalBlob, s.now())
	} else {
		checked(domain.StoreLocalBlob, s.call(ctx, domain.StoreLocalBlob, "stat", func(c context.Context) error {
			info, err := s.local.Stat(c, plan.localKey)
			plan.localInfo = info
			return err
		}))
	}

	if s.remote == nil {
		plan.skip(domain.PhasePrepare, domain.StoreRemoteBlob, s.now())
	} else {
		checked(domain.StoreRemoteBlob, s.call(ctx, domain.StoreRemoteBlob, "get", func(c context.Context) error {
			data, err := s.remote.Get(c, plan.remoteKey)
			if err != nil {
				return err
			}
			blob, err := snapshot.Capture(plan.remoteKey, data)
			plan.remote = blob
			return err
		}))
	}

	if len(failures) > 0 && s.cfg.StrictPrepare {
		return plan, fmt.Errorf("prepare: %w", errors.Join(failures...))
	}

	logger.Debug("prepare %s: search=%t vector=%t local=%t remote=%t", doc.ID,
		plan.search != nil, plan.vector != nil, plan.localInfo != nil, plan.remote != nil)
	return plan, nil
}

// commit deletes derived entries in fixed order, stopping at the first
// failure. A remote blob failure is only a warning.
func (s *DeletionService) commit(ctx context.Context, plan *deletionPlan) error {
	steps := []struct {
		store  domain.Store
		exists bool
		del    func(context.Context) error
	}{
		{domain.StoreSearch, plan.search != nil, func(c context.Context) error {
			return s.search.Delete(c, plan.search.ID)
		}},
		{domain.StoreVector, plan.vector != nil, func(c context.Context) error {
			return s.vector.Delete(c, plan.vector.ID)
		}},
		{domain.StoreLocalBlob, plan.localInfo != nil, func(c context.Context) error {
			return s.local.Delete(c, plan.localKey)
		}},
		{domain.StoreRemoteBlob, plan.remote != nil, func(c context.Context) error {
			return s.remote.Delete(c, plan.remoteKey)
		}},
	}

	for _, step := range steps {
		if !step.exists {
			plan.skip(domain.PhaseCommit, step.store, s.now())
			continue
		}
		plan.attempted[step.store] = true
		err := s.call(ctx, step.store, "delete", step.del)
		if err == nil {
			plan.deleted[step.store] = true
			plan.record(domain.PhaseCommit, step.store, s.now(), nil)
			continue
		}
		if step.store == domain.StoreRemoteBlob {
			logger.Warn("commit %s: remote blob delete failed, continuing: %v", plan.doc.ID, err)
			plan.warn(domain.PhaseCommit, step.store, s.now(), err.Error())
			continue
		}
		plan.record(domain.PhaseCommit, step.store, s.now(), err)
		return err
	}
	return nil
}

// finalize writes the success audit and deletes the record in one
// relational transaction.
func (s *DeletionService) finalize(ctx context.Context, plan *deletionPlan) error {
	audit := plan.audit
	completed := s.now()
	audit.Status = domain.AuditSuccess
	audit.CompletedAt = completed
	plan.record(domain.PhaseFinalize, domain.StoreRelational, completed, nil)

	err := s.call(ctx, domain.StoreRelational, "finalize", func(c context.Context) error {
		return s.docs.FinalizeDeletion(c, audit)
	})
	if err != nil {
		audit.Phases = audit.Phases[:len(audit.Phases)-1]
		audit.Status = ""
		audit.CompletedAt = time.Time{}
		plan.record(domain.PhaseFinalize, domain.StoreRelational, s.now(), err)
		return err
	}
	return nil
}

// finalizedElsewhere handles a record another deleter removed between fetch
// and finalize. Derived deletes are kept and the attempt is audited as a
// success with a finalize warning.
func (s *DeletionService) finalizedElsewhere(
	ctx context.Context,
	plan *deletionPlan,
	cause error,
) (*domain.DeletionOutcome, error) {
	audit := plan.audit
	audit.Phases = audit.Phases[:len(audit.Phases)-1]
	audit.Status = domain.AuditSuccess
	audit.CompletedAt = s.now()
	plan.warn(domain.PhaseFinalize, domain.StoreRelational, audit.CompletedAt,
		"record already deleted: "+cause.Error())
	logger.Warn("delete %s: record removed concurrently, keeping derived deletes", audit.DocumentID)

	s.recordAudit(ctx, audit)
	s.metrics.ObserveDeletion(domain.StateFinalized, audit.CompletedAt.Sub(audit.StartedAt))
	return &domain.DeletionOutcome{State: domain.StateFinalized, Audit: audit}, nil
}

// abort ends an attempt that failed before any mutation.
func (s *DeletionService) abort(
	ctx context.Context,
	plan *deletionPlan,
	cause error,
) (*domain.DeletionOutcome, error) {
	audit := plan.audit
	audit.Status = domain.AuditFailed
	audit.Error = cause.Error()
	audit.CompletedAt = s.now()
	logger.Warn("delete %s: aborted before commit: %v", audit.DocumentID, cause)

	s.recordAudit(context.WithoutCancel(ctx), audit)
	s.metrics.ObserveDeletion(domain.StatePrepareFailed, audit.CompletedAt.Sub(audit.StartedAt))
	return &domain.DeletionOutcome{State: domain.StatePrepareFailed, Audit: audit}, cause
}

// rollback recreates every entry whose delete was attempted. Steps are not
// retried; any failure is recorded for manual intervention.
func (s *DeletionService) rollback(
	ctx context.Context,
	plan *deletionPlan,
	failed domain.DeletionState,
	cause error,
) (*domain.DeletionOutcome, error) {
	audit := plan.audit
	logger.Warn("delete %s: %s, rolling back: %v", audit.DocumentID, failed, cause)

	var errs []error
	step := func(store domain.Store, op string, fn func(context.Context) error) {
		err := s.call(ctx, store, op, fn)
		plan.record(domain.PhaseRollback, store, s.now(), err)
		if err != nil {
			errs = append(errs, err)
		}
	}

	if plan.attempted[domain.StoreRemoteBlob] {
		step(domain.StoreRemoteBlob, "put", func(c context.Context) error {
			data, err := plan.remote.Bytes()
			if err != nil {
				return err
			}
			return s.remote.Put(c, plan.remoteKey, data)
		})
	}

	if plan.deleted[domain.StoreLocalBlob] {
		if err := s.restoreLocal(ctx, plan); err != nil {
			errs = append(errs, err)
		}
	}

	if plan.attempted[domain.StoreVector] {
		step(domain.StoreVector, "upsert", func(c context.Context) error {
			return s.vector.Upsert(c, plan.vector)
		})
	}

	if plan.attempted[domain.StoreSearch] {
		step(domain.StoreSearch, "index", func(c context.Context) error {
			return s.search.Index(c, plan.search)
		})
	}

	audit.CompletedAt = s.now()
	audit.Error = cause.Error()
	elapsed := audit.CompletedAt.Sub(audit.StartedAt)

	if len(errs) == 0 {
		audit.Status = domain.AuditFailed
		s.recordAudit(ctx, audit)
		s.metrics.ObserveRollback(true)
		s.metrics.ObserveDeletion(domain.StateRolledBack, elapsed)
		logger.Info("delete %s: rolled back", audit.DocumentID)
		return &domain.DeletionOutcome{State: domain.StateRolledBack, Audit: audit}, cause
	}

	rollbackErr := errors.Join(errs...)
	audit.Status = domain.AuditRollbackFailed
	audit.RequiresManualIntervention = true
	audit.Error = fmt.Sprintf("%v; rollback: %v", cause, rollbackErr)
	logger.Error("delete %s: rollback failed, requires_manual_intervention=true: %v",
		audit.DocumentID, rollbackErr)

	err := fmt.Errorf("%w: %w: %w", domain.ErrRollbackFailed, cause, rollbackErr)
	if recErr := s.recordAudit(ctx, audit); recErr != nil {
		err = errors.Join(err, recErr)
	}
	s.metrics.ObserveRollback(false)
	s.metrics.ObserveDeletion(domain.StateRollbackFailed, elapsed)
	return &domain.DeletionOutcome{State: domain.StateRollbackFailed, Audit: audit}, err
}

// restoreLocal brings back a trashed local blob. Stores without restore
// support leave a gap that is logged, not counted as a rollback failure.
func (s *DeletionService) restoreLocal(ctx context.Context, plan *deletionPlan) error {
	err := domain.ErrRestoreUnsupported
	if restorer, ok := s.local.(driven.BlobRestorer); ok {
		err = s.call(ctx, domain.StoreLocalBlob, "restore", func(c context.Context) error {
			return restorer.Restore(c, plan.localKey)
		})
	}
	if errors.Is(err, domain.ErrRestoreUnsupported) {
		logger.Warn("rollback %s: local blob %s cannot be restored", plan.doc.ID, plan.localKey)
		plan.warn(domain.PhaseRollback, domain.StoreLocalBlob, s.now(), "local blob deleted permanently, restore unsupported")
		return nil
	}
	plan.record(domain.PhaseRollback, domain.StoreLocalBlob, s.now(), err)
	return err
}

// recordAudit appends an audit record outside the finalize transaction.
func (s *DeletionService) recordAudit(ctx context.Context, audit *domain.DeletionAudit) error {
	err := s.call(ctx, domain.StoreRelational, "audit", func(c context.Context) error {
		return s.audit.RecordDeletion(c, audit)
	})
	if err != nil {
		logger.Error("delete %s: failed to record %s audit %s: %v", audit.DocumentID, audit.Status, audit.ID, err)
	}
	return err
}

func (s *DeletionService) release(ctx context.Context, documentID string, lease driven.Lease) {
	err := s.call(context.WithoutCancel(ctx), "lock", "release", lease.Release)
	if err != nil {
		logger.Warn("delete %s: failed to release lock: %v", documentID, err)
	}
}

// call runs one adapter call under the per-call timeout. Failures other than
// not-found, lock contention and unsupported restore are reported as
// domain.ErrAdapterUnavailable.
func (s *DeletionService) call(
	ctx context.Context,
	store domain.Store,
	op string,
	fn func(context.Context) error,
) error {
	if s.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CallTimeout)
		defer cancel()
	}
	err := fn(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrDeletionInProgress),
		errors.Is(err, domain.ErrRestoreUnsupported),
		errors.Is(err, domain.ErrAdapterUnavailable):
		return fmt.Errorf("%s %s: %w", store, op, err)
	default:
		return fmt.Errorf("%s %s: %w: %w", store, op, domain.ErrAdapterUnavailable, err)
	}
}
