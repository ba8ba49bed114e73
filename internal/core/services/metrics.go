package services

import (
	"time"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driven"
)

var _ driven.Metrics = nopMetrics{}

// nopMetrics discards measurements when no metrics adapter is configured.
type nopMetrics struct{}

func (nopMetrics) ObserveDeletion(domain.DeletionState, time.Duration) {}
func (nopMetrics) ObserveRollback(bool)                                {}
func (nopMetrics) ObserveIntegrity(*domain.IntegrityReport)            {}
func (nopMetrics) ObserveRepair(*domain.RepairReport)                  {}
