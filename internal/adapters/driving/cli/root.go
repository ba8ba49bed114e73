// Package cli provides the sercha-integrity command line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-integrity/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// MetricsServer exposes metrics over HTTP until ctx is cancelled.
type MetricsServer interface {
	Serve(ctx context.Context, addr string) error
}

// ConfigWatcher reloads configuration when it changes on disk.
type ConfigWatcher interface {
	Watch(ctx context.Context, onChange func(error)) error
}

// Services holds everything the commands call into. Nil entries make the
// commands that need them fail with a "not configured" error.
type Services struct {
	Deletion  driving.DeletionService
	Integrity driving.IntegrityService
	Repair    driving.RepairService
	Audit     driving.AuditService
	Settings  driving.SettingsService
	Scheduler driving.Scheduler

	Metrics     MetricsServer
	MetricsAddr string
	Config      ConfigWatcher
}

// Injected services.
var (
	deletionService  driving.DeletionService
	integrityService driving.IntegrityService
	repairService    driving.RepairService
	auditService     driving.AuditService
	settingsService  driving.SettingsService
	scheduler        driving.Scheduler
	metricsServer    MetricsServer
	metricsAddr      string
	configWatcher    ConfigWatcher
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "sercha-integrity",
	Short: "Keep document stores consistent",
	Long: `sercha-integrity deletes documents atomically across the relational store,
search index, vector index and blob stores, audits the stores for drift,
and repairs what drifted.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetServices injects the services used by every command.
func SetServices(s Services) {
	deletionService = s.Deletion
	integrityService = s.Integrity
	repairService = s.Repair
	auditService = s.Audit
	settingsService = s.Settings
	scheduler = s.Scheduler
	metricsServer = s.Metrics
	metricsAddr = s.MetricsAddr
	configWatcher = s.Config
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// commandContext returns the command's context, falling back to Background
// when the command runs outside Execute (as in tests).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
