// Package dashboard provides the integrity overview for the console.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-integrity/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-integrity/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driving"
)

// maxListed caps the warnings and repaired ids shown at once.
const maxListed = 10

// View shows the latest integrity report and the last repair pass.
type View struct {
	ctx       context.Context
	styles    *styles.Styles
	integrity driving.IntegrityService
	repair    driving.RepairService

	spinner spinner.Model
	report  *domain.IntegrityReport
	repairs *domain.RepairReport
	busy    string
	err     error
	width   int
	height  int
}

// NewView creates a dashboard. repair may be nil.
func NewView(
	ctx context.Context,
	s *styles.Styles,
	integrity driving.IntegrityService,
	repair driving.RepairService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Subtitle
	return &View{
		ctx:       ctx,
		styles:    s,
		integrity: integrity,
		repair:    repair,
		spinner:   sp,
	}
}

// Init runs the first integrity check.
func (v *View) Init() tea.Cmd {
	return v.runCheck()
}

func (v *View) runCheck() tea.Cmd {
	v.busy = "Running integrity check..."
	v.err = nil
	check := func() tea.Msg {
		if v.integrity == nil {
			return messages.IntegrityChecked{Err: errors.New("integrity service not available")}
		}
		report, err := v.integrity.RunIntegrityCheck(v.ctx)
		return messages.IntegrityChecked{Report: report, Err: err}
	}
	return tea.Batch(v.spinner.Tick, check)
}

func (v *View) runRepair() tea.Cmd {
	if v.repair == nil {
		v.err = errors.New("auto-repair is not configured")
		return nil
	}
	v.busy = "Running auto-repair..."
	v.err = nil
	repair := func() tea.Msg {
		report, err := v.repair.RunAutoRepair(v.ctx)
		return messages.RepairCompleted{Report: report, Err: err}
	}
	return tea.Batch(v.spinner.Tick, repair)
}

// Update handles messages for the dashboard.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if v.busy != "" {
			return v, nil
		}
		switch msg.String() {
		case "r":
			return v, v.runCheck()
		case "a":
			return v, v.runRepair()
		}
		return v, nil

	case spinner.TickMsg:
		if v.busy == "" {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case messages.IntegrityChecked:
		v.busy = ""
		v.err = msg.Err
		if msg.Err == nil {
			v.report = msg.Report
		}
		return v, nil

	case messages.RepairCompleted:
		v.busy = ""
		v.err = msg.Err
		if msg.Report != nil {
			v.repairs = msg.Report
		}
		// Counts changed; refresh the report.
		if msg.Err == nil && msg.Report != nil && msg.Report.Total() > 0 {
			return v, v.runCheck()
		}
		return v, nil
	}

	return v, nil
}

// View renders the dashboard.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Integrity"))
	if v.report != nil {
		b.WriteString("  ")
		b.WriteString(v.styles.IntegrityStatus(v.report.Status).Render(strings.ToUpper(string(v.report.Status))))
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  checked %s in %s",
			v.report.CheckedAt.Local().Format(time.TimeOnly), v.report.Duration.Round(time.Millisecond))))
	}
	b.WriteString("\n\n")

	if v.busy != "" {
		b.WriteString(v.spinner.View())
		b.WriteString(" ")
		b.WriteString(v.styles.Muted.Render(v.busy))
		b.WriteString("\n\n")
	}
	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
	}

	if v.report != nil {
		b.WriteString(v.styles.Panel.Render(v.renderCounts()))
		b.WriteString("\n")
		if section := v.renderFindings(); section != "" {
			b.WriteString(section)
			b.WriteString("\n")
		}
	} else if v.busy == "" && v.err == nil {
		b.WriteString(v.styles.Muted.Render("No report yet. Press r to run a check."))
		b.WriteString("\n")
	}

	if v.repairs != nil {
		b.WriteString("\n")
		b.WriteString(v.renderRepairs())
	}

	return b.String()
}

func (v *View) renderCounts() string {
	c := v.report.Counts
	rows := []struct {
		label string
		value int
	}{
		{"Documents", c.Total},
		{"Indexed", c.Indexed},
		{"Stored", c.Stored},
		{"In flight", c.InFlight},
		{"Failed", c.Failed},
		{"Search entries", v.report.SearchCount},
		{"Vector entries", v.report.VectorCount},
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("%-15s %s", r.label, v.styles.Normal.Render(fmt.Sprint(r.value))))
	}
	return strings.Join(lines, "\n")
}

func (v *View) renderFindings() string {
	var b strings.Builder
	if len(v.report.Issues) > 0 {
		b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("Issues (%d)", len(v.report.Issues))))
		b.WriteString("\n")
		for _, issue := range v.report.Issues {
			b.WriteString("  ")
			b.WriteString(v.styles.Error.Render(issue.Message))
			b.WriteString("\n")
		}
	}
	if len(v.report.Warnings) > 0 {
		b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("Warnings (%d)", len(v.report.Warnings))))
		b.WriteString("\n")
		for i, w := range v.report.Warnings {
			if i == maxListed {
				b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  ... %d more", len(v.report.Warnings)-maxListed)))
				b.WriteString("\n")
				break
			}
			b.WriteString(fmt.Sprintf("  %-18s %s %s\n", w.Type, w.DocumentID, v.styles.Muted.Render(string(w.Status))))
		}
	}
	return b.String()
}

func (v *View) renderRepairs() string {
	var b strings.Builder
	b.WriteString(v.styles.Subtitle.Render("Last auto-repair"))
	b.WriteString("\n")
	if v.repairs.Total() == 0 && len(v.repairs.Errors) == 0 {
		b.WriteString(v.styles.Muted.Render("  Nothing to repair."))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("  Requeued: %d  Marked failed: %d\n", len(v.repairs.Requeued), len(v.repairs.MarkedFailed)))
	for i, e := range v.repairs.Errors {
		if i == maxListed {
			break
		}
		b.WriteString("  ")
		b.WriteString(v.styles.Error.Render(e))
		b.WriteString("\n")
	}
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Report returns the latest integrity report.
func (v *View) Report() *domain.IntegrityReport {
	return v.report
}

// LastRepair returns the latest repair report.
func (v *View) LastRepair() *domain.RepairReport {
	return v.repairs
}

// Busy reports whether a check or repair is running.
func (v *View) Busy() bool {
	return v.busy != ""
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
