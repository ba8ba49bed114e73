package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driven"
)

// --- Mock implementations for scheduler testing ---

// mockSchedulerStore implements driven.SchedulerStore for testing.
type mockSchedulerStore struct {
	mu       sync.RWMutex
	tasks    map[string]*domain.ScheduledTask
	results  map[string][]domain.TaskResult
	saveErr  error
	listErr  error
	getErr   error
	pruneErr error
}

func newMockSchedulerStore() *mockSchedulerStore {
	return &mockSchedulerStore{
		tasks:   make(map[string]*domain.ScheduledTask),
		results: make(map[string][]domain.TaskResult),
	}
}

func (m *mockSchedulerStore) GetTask(_ context.Context, taskID string) (*domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	task, exists := m.tasks[taskID]
	if !exists {
		return nil, nil
	}
	// Return a copy
	taskCopy := *task
	return &taskCopy, nil
}

func (m *mockSchedulerStore) ListTasks(_ context.Context) ([]domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	tasks := make([]domain.ScheduledTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, *t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (m *mockSchedulerStore) SaveTask(_ context.Context, task *domain.ScheduledTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if task == nil {
		return domain.ErrInvalidInput
	}
	taskCopy := *task
	m.tasks[task.ID] = &taskCopy
	return nil
}

func (m *mockSchedulerStore) RecordResult(_ context.Context, result *domain.TaskResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if result == nil {
		return domain.ErrInvalidInput
	}
	m.results[result.TaskID] = append(m.results[result.TaskID], *result)
	return nil
}

func (m *mockSchedulerStore) RecentResults(_ context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := m.results[taskID]
	var out []domain.TaskResult
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (m *mockSchedulerStore) PruneHistory(_ context.Context, _ int) error {
	return m.pruneErr
}

// mockReaper implements driven.TrashReaper for testing.
type mockReaper struct {
	mu     sync.Mutex
	calls  int
	grace  time.Duration
	reaped int
	err    error
}

func (m *mockReaper) Reap(_ context.Context, grace time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.grace = grace
	return m.reaped, m.err
}

func (m *mockReaper) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Ensure mocks implement interfaces
var _ driven.SchedulerStore = (*mockSchedulerStore)(nil)
var _ driven.TrashReaper = (*mockReaper)(nil)

func newSchedulerTasks() (SchedulerTasks, *mockDocStore, *mockReaper) {
	docs, search, vector := corpus(3)
	store := newMockDocStore(docs...)
	reaper := &mockReaper{reaped: 4}
	return SchedulerTasks{
		Integrity:  newTestIntegrityService(store, search, vector),
		Repair:     NewRepairService(store, &mockAuditStore{}, &mockRequeuer{}, nil, domain.RepairSettings{StuckAfter: time.Hour}, domain.RequeueSettings{}),
		Reaper:     reaper,
		TrashGrace: 24 * time.Hour,
	}, store, reaper
}

// ==================== Scheduler Tests ====================

func TestNewScheduler(t *testing.T) {
	config := domain.DefaultSchedulerConfig()
	tasks, _, _ := newSchedulerTasks()

	scheduler := NewScheduler(config, newMockSchedulerStore(), tasks)

	require.NotNil(t, scheduler)
	assert.Equal(t, config.Enabled, scheduler.config.Enabled)
	assert.Equal(t, time.Minute, scheduler.tick)
}

func TestScheduler_StartStop(t *testing.T) {
	tasks, _, _ := newSchedulerTasks()
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), tasks)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = scheduler.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)

	cancel()
	require.NoError(t, scheduler.Stop())
	wg.Wait()
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	tasks, _, _ := newSchedulerTasks()
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), tasks)

	require.NoError(t, scheduler.Stop())
}

func TestScheduler_DoubleStart(t *testing.T) {
	tasks, _, _ := newSchedulerTasks()
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), tasks)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = scheduler.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)

	// Second start returns immediately
	assert.NoError(t, scheduler.Start(context.Background()))

	cancel()
	scheduler.Stop() //nolint:errcheck
	wg.Wait()
}

func TestScheduler_InitialiseTasks(t *testing.T) {
	tasks, _, _ := newSchedulerTasks()
	store := newMockSchedulerStore()
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, tasks)

	ctx := context.Background()
	require.NoError(t, scheduler.initialiseTasks(ctx))

	for id, name := range map[string]string{
		domain.TaskIDIntegrityCheck: "Integrity Check",
		domain.TaskIDAutoRepair:     "Auto Repair",
		domain.TaskIDTrashReap:      "Trash Reap",
	} {
		task, err := store.GetTask(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, task, id)
		assert.Equal(t, name, task.Name)
		assert.True(t, task.Enabled)
	}
}

func TestScheduler_InitialiseTasks_MissingServiceDisablesTask(t *testing.T) {
	tasks, _, _ := newSchedulerTasks()
	tasks.Reaper = nil
	store := newMockSchedulerStore()
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, tasks)

	ctx := context.Background()
	require.NoError(t, scheduler.initialiseTasks(ctx))

	task, err := store.GetTask(ctx, domain.TaskIDTrashReap)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.False(t, task.Enabled)
}

func TestScheduler_EnsureTask_UpdateInterval(t *testing.T) {
	tasks, _, _ := newSchedulerTasks()
	store := newMockSchedulerStore()
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, tasks)
	ctx := context.Background()

	taskCfg := domain.TaskConfig{Enabled: true, Interval: 15 * time.Minute}
	require.NoError(t, scheduler.ensureTask(ctx, domain.TaskIDIntegrityCheck, "Integrity Check", taskCfg))

	taskCfg.Interval = 5 * time.Minute
	require.NoError(t, scheduler.ensureTask(ctx, domain.TaskIDIntegrityCheck, "Integrity Check", taskCfg))

	task, err := store.GetTask(ctx, domain.TaskIDIntegrityCheck)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, task.Interval)
}

func TestScheduler_RunIntegrityCheck(t *testing.T) {
	tasks, _, _ := newSchedulerTasks()
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), tasks)

	n, summary, err := scheduler.runIntegrityCheck(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "healthy", summary)
}

func TestScheduler_RunAutoRepair(t *testing.T) {
	tasks, docs, _ := newSchedulerTasks()
	stale := domain.DocumentRecord{ID: "stale", TenantID: testTenant, Status: domain.StatusProcessing,
		UpdatedAt: time.Now().Add(-2 * time.Hour)}
	require.NoError(t, docs.SaveDocument(context.Background(), &stale))
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), tasks)

	n, summary, err := scheduler.runAutoRepair(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "0 requeued, 1 failed", summary)
}

func TestScheduler_RunTrashReap(t *testing.T) {
	tasks, _, reaper := newSchedulerTasks()
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), tasks)

	n, summary, err := scheduler.runTrashReap(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "4 reaped", summary)
	assert.Equal(t, 24*time.Hour, reaper.grace)
}

func TestScheduler_NilServices(t *testing.T) {
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), SchedulerTasks{})
	ctx := context.Background()

	for name, run := range map[string]func(context.Context) (int, string, error){
		"integrity": scheduler.runIntegrityCheck,
		"repair":    scheduler.runAutoRepair,
		"reap":      scheduler.runTrashReap,
	} {
		n, summary, err := run(ctx)
		assert.NoError(t, err, name)
		assert.Zero(t, n, name)
		assert.Empty(t, summary, name)
	}
}

func TestScheduler_CheckAndRunDueTasks(t *testing.T) {
	tasks, _, reaper := newSchedulerTasks()
	store := newMockSchedulerStore()
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, tasks)
	ctx := context.Background()

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:       domain.TaskIDTrashReap,
		Name:     "Trash Reap",
		Interval: 6 * time.Hour,
		NextRun:  time.Now().Add(-time.Minute),
		Enabled:  true,
	}))

	scheduler.checkAndRunDueTasks(ctx)
	scheduler.wg.Wait()

	assert.Equal(t, 1, reaper.callCount())

	task, err := store.GetTask(ctx, domain.TaskIDTrashReap)
	require.NoError(t, err)
	assert.True(t, task.NextRun.After(time.Now()))
	assert.Empty(t, task.LastError)

	history, err := store.RecentResults(ctx, domain.TaskIDTrashReap, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
	assert.Equal(t, 4, history[0].Items)
	assert.Equal(t, "4 reaped", history[0].Summary)
}

func TestScheduler_RunTask_RecordsFailure(t *testing.T) {
	tasks, _, reaper := newSchedulerTasks()
	reaper.err = errors.New("permission denied")
	store := newMockSchedulerStore()
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, tasks)
	ctx := context.Background()

	task := &domain.ScheduledTask{ID: domain.TaskIDTrashReap, Interval: time.Hour, Enabled: true}
	scheduler.runTask(ctx, task)
	scheduler.wg.Wait()

	saved, err := store.GetTask(ctx, domain.TaskIDTrashReap)
	require.NoError(t, err)
	assert.Equal(t, "permission denied", saved.LastError)

	history, err := store.RecentResults(ctx, domain.TaskIDTrashReap, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.False(t, history[0].Success)
	assert.Equal(t, "permission denied", history[0].Error)
}

func TestScheduler_DisabledSkipsTasks(t *testing.T) {
	tasks, _, reaper := newSchedulerTasks()
	config := domain.DefaultSchedulerConfig()
	config.Enabled = false
	store := newMockSchedulerStore()
	require.NoError(t, store.SaveTask(context.Background(), &domain.ScheduledTask{
		ID: domain.TaskIDTrashReap, Interval: time.Hour, Enabled: true,
	}))
	scheduler := NewScheduler(config, store, tasks)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := scheduler.Start(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	scheduler.wg.Wait()
	assert.Equal(t, 0, reaper.callCount())
}

func TestScheduler_RunTask_UnknownTaskID(t *testing.T) {
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), SchedulerTasks{})

	task := &domain.ScheduledTask{ID: "unknown-task", Name: "Unknown", Enabled: true}

	// This should just log and return, not panic
	scheduler.runTask(context.Background(), task)
	scheduler.wg.Wait()
}

func TestScheduler_Status(t *testing.T) {
	tasks, _, _ := newSchedulerTasks()
	store := newMockSchedulerStore()
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, tasks)
	ctx := context.Background()
	require.NoError(t, scheduler.initialiseTasks(ctx))

	for i := 0; i < 3; i++ {
		require.NoError(t, store.RecordResult(ctx, &domain.TaskResult{
			TaskID: domain.TaskIDTrashReap, Success: true, Items: i,
		}))
	}

	statuses, err := scheduler.Status(ctx, 2)
	require.NoError(t, err)
	require.Len(t, statuses, 3)

	assert.Equal(t, domain.TaskIDAutoRepair, statuses[0].Task.ID)
	assert.Empty(t, statuses[0].Recent)

	reap := statuses[2]
	assert.Equal(t, domain.TaskIDTrashReap, reap.Task.ID)
	require.Len(t, reap.Recent, 2)
	assert.Equal(t, 2, reap.Recent[0].Items)
	assert.Equal(t, 1, reap.Recent[1].Items)
}

func TestScheduler_Status_ListError(t *testing.T) {
	store := newMockSchedulerStore()
	store.listErr = errors.New("database is locked")
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, SchedulerTasks{})

	_, err := scheduler.Status(context.Background(), 5)

	assert.ErrorContains(t, err, "database is locked")
}
