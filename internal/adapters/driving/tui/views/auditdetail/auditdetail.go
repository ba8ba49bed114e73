// Package auditdetail shows every phase of one deletion attempt.
package auditdetail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-integrity/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-integrity/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

// View renders a single deletion audit record in a scrollable viewport.
type View struct {
	styles   *styles.Styles
	audit    *domain.DeletionAudit
	viewport viewport.Model
	width    int
	height   int
}

// NewView creates a new audit detail view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:   s,
		viewport: viewport.New(80, 20),
	}
}

// SetAudit sets the record to display.
func (v *View) SetAudit(a domain.DeletionAudit) {
	v.audit = &a
	v.viewport.SetContent(v.renderBody())
	v.viewport.GotoTop()
}

// Update handles messages for the detail view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewAudit}
		}
	}
	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// View renders the detail view.
func (v *View) View() string {
	if v.audit == nil {
		return v.styles.Muted.Render("No record selected.") + "\n\n" + v.renderHelp()
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Deletion " + v.audit.DocumentID))
	b.WriteString("  ")
	b.WriteString(v.styles.AuditStatus(v.audit.Status).Render(string(v.audit.Status)))
	b.WriteString("\n\n")
	b.WriteString(v.viewport.View())
	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderBody() string {
	a := v.audit
	var b strings.Builder

	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%-10s", label)))
		b.WriteString(v.styles.Normal.Render(value))
		b.WriteString("\n")
	}
	field("Audit", a.ID)
	field("Tenant", a.TenantID)
	field("File", a.Filename)
	field("Actor", a.Actor)
	field("Started", a.StartedAt.Local().Format(time.DateTime))
	if !a.CompletedAt.IsZero() {
		field("Took", a.CompletedAt.Sub(a.StartedAt).Round(time.Millisecond).String())
	}
	if a.Error != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Error.Render(a.Error))
		b.WriteString("\n")
	}
	if a.RequiresManualIntervention {
		b.WriteString(v.styles.Error.Bold(true).Render("Requires manual intervention"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Subtitle.Render("Phases"))
	b.WriteString("\n")
	for _, p := range a.Phases {
		store := string(p.Store)
		if store == "" {
			store = "-"
		}
		b.WriteString(fmt.Sprintf("  %-9s %-12s %s\n", p.Phase, store, v.phaseResult(p)))
	}
	return b.String()
}

func (v *View) phaseResult(p domain.PhaseOutcome) string {
	switch {
	case p.Skipped:
		return v.styles.Muted.Render("skipped")
	case p.Success && p.Warning != "":
		return v.styles.Warning.Render("warning: " + p.Warning)
	case p.Success:
		return v.styles.Success.Render("ok")
	default:
		return v.styles.Error.Render("error: " + p.Error)
	}
}

func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓] scroll  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.viewport.Width = width
	// title, help and status bar
	v.viewport.Height = max(height-6, 3)
}

// Audit returns the displayed record.
func (v *View) Audit() *domain.DeletionAudit {
	return v.audit
}
