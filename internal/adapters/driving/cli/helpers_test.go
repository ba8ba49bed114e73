package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/mock"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

type mockDeletionService struct{ mock.Mock }

func (m *mockDeletionService) DeleteDocument(ctx context.Context, req domain.DeletionRequest) (*domain.DeletionOutcome, error) {
	args := m.Called(ctx, req)
	outcome, _ := args.Get(0).(*domain.DeletionOutcome)
	return outcome, args.Error(1)
}

type mockIntegrityService struct{ mock.Mock }

func (m *mockIntegrityService) RunIntegrityCheck(ctx context.Context) (*domain.IntegrityReport, error) {
	args := m.Called(ctx)
	report, _ := args.Get(0).(*domain.IntegrityReport)
	return report, args.Error(1)
}

type mockRepairService struct{ mock.Mock }

func (m *mockRepairService) RunAutoRepair(ctx context.Context) (*domain.RepairReport, error) {
	args := m.Called(ctx)
	report, _ := args.Get(0).(*domain.RepairReport)
	return report, args.Error(1)
}

type mockAuditService struct{ mock.Mock }

func (m *mockAuditService) ListDeletions(ctx context.Context, filter domain.AuditFilter) ([]domain.DeletionAudit, error) {
	args := m.Called(ctx, filter)
	audits, _ := args.Get(0).([]domain.DeletionAudit)
	return audits, args.Error(1)
}

func (m *mockAuditService) ListRepairs(ctx context.Context, limit int) ([]domain.RepairAction, error) {
	args := m.Called(ctx, limit)
	actions, _ := args.Get(0).([]domain.RepairAction)
	return actions, args.Error(1)
}

type mockSettingsService struct{ mock.Mock }

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	args := m.Called()
	s, _ := args.Get(0).(*domain.Settings)
	return s, args.Error(1)
}

func (m *mockSettingsService) Set(key, value string) error {
	return m.Called(key, value).Error(0)
}

func (m *mockSettingsService) Reload() error {
	return m.Called().Error(0)
}

func (m *mockSettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// blockingScheduler runs until ctx is cancelled or Stop is called.
type blockingScheduler struct {
	started chan struct{}
	stopped bool

	statuses  []domain.TaskStatus
	statusErr error
	recent    int
}

func newBlockingScheduler() *blockingScheduler {
	return &blockingScheduler{started: make(chan struct{})}
}

func (s *blockingScheduler) Start(ctx context.Context) error {
	close(s.started)
	<-ctx.Done()
	return ctx.Err()
}

func (s *blockingScheduler) Stop() error {
	s.stopped = true
	return nil
}

func (s *blockingScheduler) Status(_ context.Context, recent int) ([]domain.TaskStatus, error) {
	s.recent = recent
	return s.statuses, s.statusErr
}

// setupTestServices injects s for the duration of the test.
func setupTestServices(t *testing.T, s Services) {
	t.Helper()
	SetServices(s)
	t.Cleanup(func() { SetServices(Services{}) })
}

// resetFlags restores every flag to its default so commands can run
// repeatedly against the shared rootCmd.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// runCommand executes rootCmd with args and returns combined output.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runCommandContext(t, context.Background(), args...)
}

func runCommandContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	setContext(rootCmd, ctx)
	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

// setContext replaces the context cobra kept on every command from the
// previous run.
func setContext(cmd *cobra.Command, ctx context.Context) {
	cmd.SetContext(ctx)
	for _, c := range cmd.Commands() {
		setContext(c, ctx)
	}
}
