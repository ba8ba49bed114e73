package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

var (
	scheduleHistory int
	scheduleJSON    bool
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Show maintenance task state and recent runs",
	Long: `Shows the integrity sweep, auto-repair and trash reap tasks as last
persisted by "serve", with their most recent runs.`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().IntVarP(&scheduleHistory, "history", "n", 3, "recent runs to show per task")
	scheduleCmd.Flags().BoolVar(&scheduleJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return errors.New("scheduler not configured")
	}
	if scheduleHistory < 0 {
		return fmt.Errorf("%w: --history must not be negative", domain.ErrInvalidInput)
	}

	statuses, err := scheduler.Status(commandContext(cmd), scheduleHistory)
	if err != nil {
		return fmt.Errorf("failed to read schedule: %w", err)
	}
	if scheduleJSON {
		return outputJSON(cmd, statuses)
	}

	if len(statuses) == 0 {
		cmd.Println("No tasks recorded. Run \"serve\" to start the scheduler.")
		return nil
	}
	st := newStyles(cmd.OutOrStdout())
	for i := range statuses {
		printTaskStatus(cmd, st, &statuses[i])
	}
	return nil
}

func printTaskStatus(cmd *cobra.Command, st styles, s *domain.TaskStatus) {
	task := &s.Task
	state := st.ok.Render("enabled")
	if !task.Enabled {
		state = st.dim.Render("disabled")
	}
	cmd.Printf("%s (%s)  every %s  %s\n", st.title.Render(task.Name), task.ID, task.Interval, state)
	cmd.Printf("  Last run: %s\n", formatWhen(task.LastRun))
	if task.Enabled {
		cmd.Printf("  Next run: %s\n", formatWhen(task.NextRun))
	}
	if task.LastError != "" {
		cmd.Printf("  Last error: %s\n", st.bad.Render(st.truncate(task.LastError, 14)))
	}

	for _, r := range s.Recent {
		mark := st.ok.Render("ok  ")
		detail := r.Summary
		if !r.Success {
			mark = st.bad.Render("fail")
			detail = r.Error
		}
		cmd.Printf("    %s %s  %6s  %s\n", mark,
			r.StartedAt.Local().Format(time.DateTime), r.Duration().Round(time.Millisecond), detail)
	}
	cmd.Println()
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(time.DateTime)
}
