package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driving"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

const historyRetention = 100

// SchedulerTasks holds the services the built-in tasks invoke.
// A nil entry disables its task.
type SchedulerTasks struct {
	Integrity driving.IntegrityService
	Repair    driving.RepairService
	Reaper    driven.TrashReaper

	// TrashGrace is how long trashed blobs are kept before reaping.
	TrashGrace time.Duration
}

// Scheduler runs the periodic integrity check, auto-repair and trash reap.
// Task state survives restarts through the SchedulerStore.
type Scheduler struct {
	config domain.SchedulerConfig
	store  driven.SchedulerStore
	tasks  SchedulerTasks
	tick   time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	// inFlight prevents a slow task from overlapping its next run.
	inFlight map[string]bool
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	tasks SchedulerTasks,
) *Scheduler {
	return &Scheduler{
		config:   config,
		store:    store,
		tasks:    tasks,
		tick:     time.Minute,
		inFlight: make(map[string]bool),
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		log.Printf("scheduler: failed to initialise tasks: %v", err)
	}

	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler and waits for running tasks.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// initialiseTasks ensures every built-in task exists in the store with its
// configured interval.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	builtins := []struct {
		id, name  string
		available bool
	}{
		{domain.TaskIDIntegrityCheck, "Integrity Check", s.tasks.Integrity != nil},
		{domain.TaskIDAutoRepair, "Auto Repair", s.tasks.Repair != nil},
		{domain.TaskIDTrashReap, "Trash Reap", s.tasks.Reaper != nil},
	}
	for _, b := range builtins {
		cfg := s.config.GetTaskConfig(b.id)
		cfg.Enabled = cfg.Enabled && b.available && cfg.Interval > 0
		if err := s.ensureTask(ctx, b.id, b.name, cfg); err != nil {
			return err
		}
	}
	return nil
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
			NextRun:  time.Now().Add(cfg.Interval),
		}
	} else {
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			task.NextRun = time.Now().Add(cfg.Interval)
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

func (s *Scheduler) run(ctx context.Context) error {
	if !s.config.Enabled {
		log.Printf("scheduler: disabled")
	} else {
		s.checkAndRunDueTasks(ctx)
	}

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			if s.config.Enabled {
				s.checkAndRunDueTasks(ctx)
			}
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		log.Printf("scheduler: failed to list tasks: %v", err)
		return
	}

	now := time.Now()
	for i := range tasks {
		if tasks[i].Due(now) {
			s.runTask(ctx, &tasks[i])
		}
	}
}

// runTask executes a single task on its own goroutine.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.mu.Lock()
	if s.inFlight[task.ID] {
		s.mu.Unlock()
		return
	}
	s.inFlight[task.ID] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.inFlight, task.ID)
			s.mu.Unlock()
		}()

		result := &domain.TaskResult{
			TaskID:    task.ID,
			StartedAt: time.Now(),
		}

		var err error
		switch task.ID {
		case domain.TaskIDIntegrityCheck:
			result.Items, result.Summary, err = s.runIntegrityCheck(ctx)
		case domain.TaskIDAutoRepair:
			result.Items, result.Summary, err = s.runAutoRepair(ctx)
		case domain.TaskIDTrashReap:
			result.Items, result.Summary, err = s.runTrashReap(ctx)
		default:
			log.Printf("scheduler: unknown task ID: %s", task.ID)
			return
		}

		result.EndedAt = time.Now()
		if err != nil {
			result.Error = err.Error()
			task.LastError = err.Error()
			log.Printf("scheduler: task %s failed: %v", task.ID, err)
		} else {
			result.Success = true
			task.LastError = ""
			task.LastSuccess = result.EndedAt
		}

		task.LastRun = result.StartedAt
		task.NextRun = result.EndedAt.Add(task.Interval)

		if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
			log.Printf("scheduler: failed to save task %s: %v", task.ID, saveErr)
		}
		if recordErr := s.store.RecordResult(ctx, result); recordErr != nil {
			log.Printf("scheduler: failed to record result for %s: %v", task.ID, recordErr)
		}
		if pruneErr := s.store.PruneHistory(ctx, historyRetention); pruneErr != nil {
			log.Printf("scheduler: failed to prune history: %v", pruneErr)
		}
	}()
}

func (s *Scheduler) runIntegrityCheck(ctx context.Context) (int, string, error) {
	if s.tasks.Integrity == nil {
		return 0, "", nil
	}
	report, err := s.tasks.Integrity.RunIntegrityCheck(ctx)
	if err != nil {
		return 0, "", err
	}
	summary := string(report.Status)
	if report.Status != domain.IntegrityHealthy {
		summary = fmt.Sprintf("%s: %d issues, %d warnings",
			report.Status, len(report.Issues), len(report.Warnings))
		log.Printf("scheduler: integrity %s", summary)
	}
	return report.Counts.Total, summary, nil
}

func (s *Scheduler) runAutoRepair(ctx context.Context) (int, string, error) {
	if s.tasks.Repair == nil {
		return 0, "", nil
	}
	report, err := s.tasks.Repair.RunAutoRepair(ctx)
	if report == nil {
		return 0, "", err
	}
	summary := fmt.Sprintf("%d requeued, %d failed", len(report.Requeued), len(report.MarkedFailed))
	return report.Total(), summary, err
}

func (s *Scheduler) runTrashReap(ctx context.Context) (int, string, error) {
	if s.tasks.Reaper == nil {
		return 0, "", nil
	}
	n, err := s.tasks.Reaper.Reap(ctx, s.tasks.TrashGrace)
	return n, fmt.Sprintf("%d reaped", n), err
}

// Status returns every persisted task with up to recent past runs each.
func (s *Scheduler) Status(ctx context.Context, recent int) ([]domain.TaskStatus, error) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	statuses := make([]domain.TaskStatus, 0, len(tasks))
	for _, task := range tasks {
		results, err := s.store.RecentResults(ctx, task.ID, recent)
		if err != nil {
			return nil, fmt.Errorf("history for %s: %w", task.ID, err)
		}
		statuses = append(statuses, domain.TaskStatus{Task: task, Recent: results})
	}
	return statuses, nil
}
