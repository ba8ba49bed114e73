// Package prometheus exports consistency metrics in the Prometheus format.
package prometheus

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driven"
)

const namespace = "sercha_integrity"

// Ensure Metrics implements the interface.
var _ driven.Metrics = (*Metrics)(nil)

// Metrics records core measurements on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	deletions        *prometheus.CounterVec
	deletionLatency  prometheus.Histogram
	rollbacks        *prometheus.CounterVec
	integrityStatus  *prometheus.GaugeVec
	documents        *prometheus.GaugeVec
	indexEntries     *prometheus.GaugeVec
	integrityIssues  prometheus.Gauge
	integrityWarns   prometheus.Gauge
	repairActions    *prometheus.CounterVec
	repairErrors     prometheus.Counter
	lastIntegrityRun prometheus.Gauge
}

// New creates and registers every collector.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		deletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deletions_total",
			Help:      "Deletion attempts by terminal state.",
		}, []string{"state"}),
		deletionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "deletion_duration_seconds",
			Help:      "Wall time of deletion attempts.",
			Buckets:   prometheus.DefBuckets,
		}),
		rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollbacks_total",
			Help:      "Rollback attempts by outcome.",
		}, []string{"outcome"}),
		integrityStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "integrity_status",
			Help:      "1 for the status reported by the last integrity check.",
		}, []string{"status"}),
		documents: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "documents",
			Help:      "Documents by status group at the last integrity check.",
		}, []string{"status"}),
		indexEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_entries",
			Help:      "Entries per derived index at the last integrity check.",
		}, []string{"store"}),
		integrityIssues: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "integrity_issues",
			Help:      "Count mismatches found by the last integrity check.",
		}),
		integrityWarns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "integrity_warnings",
			Help:      "Per-document warnings found by the last integrity check.",
		}),
		repairActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repair_actions_total",
			Help:      "Documents acted on by auto-repair.",
		}, []string{"action"}),
		repairErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repair_errors_total",
			Help:      "Per-document auto-repair failures.",
		}),
		lastIntegrityRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "integrity_last_run_timestamp_seconds",
			Help:      "Unix time of the last integrity check.",
		}),
	}

	m.registry.MustRegister(
		m.deletions,
		m.deletionLatency,
		m.rollbacks,
		m.integrityStatus,
		m.documents,
		m.indexEntries,
		m.integrityIssues,
		m.integrityWarns,
		m.repairActions,
		m.repairErrors,
		m.lastIntegrityRun,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveDeletion records a deletion outcome.
func (m *Metrics) ObserveDeletion(state domain.DeletionState, elapsed time.Duration) {
	m.deletions.WithLabelValues(string(state)).Inc()
	m.deletionLatency.Observe(elapsed.Seconds())
}

// ObserveRollback records a rollback attempt.
func (m *Metrics) ObserveRollback(success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.rollbacks.WithLabelValues(outcome).Inc()
}

// ObserveIntegrity replaces the integrity gauges with the report's values.
func (m *Metrics) ObserveIntegrity(report *domain.IntegrityReport) {
	if report == nil {
		return
	}
	m.integrityStatus.Reset()
	m.integrityStatus.WithLabelValues(string(report.Status)).Set(1)

	c := report.Counts
	m.documents.WithLabelValues("total").Set(float64(c.Total))
	m.documents.WithLabelValues(string(domain.StatusIndexed)).Set(float64(c.Indexed))
	m.documents.WithLabelValues(string(domain.StatusStored)).Set(float64(c.Stored))
	m.documents.WithLabelValues("in_flight").Set(float64(c.InFlight))
	m.documents.WithLabelValues(string(domain.StatusFailed)).Set(float64(c.Failed))

	m.indexEntries.WithLabelValues(string(domain.StoreSearch)).Set(float64(report.SearchCount))
	m.indexEntries.WithLabelValues(string(domain.StoreVector)).Set(float64(report.VectorCount))
	m.integrityIssues.Set(float64(len(report.Issues)))
	m.integrityWarns.Set(float64(len(report.Warnings)))
	m.lastIntegrityRun.Set(float64(report.CheckedAt.Unix()))
}

// ObserveRepair counts the actions in a repair report.
func (m *Metrics) ObserveRepair(report *domain.RepairReport) {
	if report == nil {
		return
	}
	m.repairActions.WithLabelValues(string(domain.RepairRequeued)).Add(float64(len(report.Requeued)))
	m.repairActions.WithLabelValues(string(domain.RepairMarkedFailed)).Add(float64(len(report.MarkedFailed)))
	m.repairErrors.Add(float64(len(report.Errors)))
}

// Handler serves the registry in the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
