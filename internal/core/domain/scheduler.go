package domain

import "time"

// Built-in maintenance tasks.
const (
	TaskIDIntegrityCheck = "integrity-check"
	TaskIDAutoRepair     = "auto-repair"
	TaskIDTrashReap      = "trash-reap"
)

// ScheduledTask is the persisted state of one maintenance task.
type ScheduledTask struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Interval time.Duration `json:"interval"`
	Enabled  bool          `json:"enabled"`

	LastRun     time.Time `json:"last_run"`
	NextRun     time.Time `json:"next_run"`
	LastSuccess time.Time `json:"last_success"`

	// LastError is empty when the last run succeeded.
	LastError string `json:"last_error,omitempty"`
}

// Due reports whether the task should run at now.
// A task that has never been scheduled is always due.
func (t *ScheduledTask) Due(now time.Time) bool {
	return t.Enabled && (t.NextRun.IsZero() || !t.NextRun.After(now))
}

// TaskResult records a single run of a maintenance task.
type TaskResult struct {
	TaskID    string    `json:"task_id"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`

	// Items is the number of documents checked or repaired, or trash
	// entries reaped.
	Items int `json:"items"`

	// Summary is a one-line operator description, e.g. "unhealthy: 2 issues".
	Summary string `json:"summary,omitempty"`
}

// Duration returns how long the run took.
func (r TaskResult) Duration() time.Duration {
	if r.EndedAt.Before(r.StartedAt) {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// TaskStatus pairs a task with its most recent runs, newest first.
type TaskStatus struct {
	Task   ScheduledTask `json:"task"`
	Recent []TaskResult  `json:"recent"`
}

// SchedulerConfig is the [scheduler] settings section.
type SchedulerConfig struct {
	Enabled     bool
	TaskConfigs map[string]TaskConfig
}

// TaskConfig enables a task and sets its interval.
type TaskConfig struct {
	Enabled  bool
	Interval time.Duration
}

// GetTaskConfig returns the configuration for taskID, or the zero value.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	if c.TaskConfigs == nil {
		return TaskConfig{}
	}
	return c.TaskConfigs[taskID]
}

// DefaultSchedulerConfig sweeps integrity every 15 minutes, repairs hourly
// and reaps local trash every 6 hours.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled: true,
		TaskConfigs: map[string]TaskConfig{
			TaskIDIntegrityCheck: {Enabled: true, Interval: 15 * time.Minute},
			TaskIDAutoRepair:     {Enabled: true, Interval: time.Hour},
			TaskIDTrashReap:      {Enabled: true, Interval: 6 * time.Hour},
		},
	}
}
