// Package audit provides the deletion audit trail view for the console.
package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-integrity/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-integrity/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driving"
)

// pageSize is how many records are loaded at once.
const pageSize = 200

// View lists deletion attempts, most recent first.
type View struct {
	ctx          context.Context
	styles       *styles.Styles
	auditService driving.AuditService

	audits       []domain.DeletionAudit
	manualOnly   bool
	selected     int
	scrollOffset int
	loading      bool
	err          error
	width        int
	height       int
}

// NewView creates a new audit trail view.
func NewView(ctx context.Context, s *styles.Styles, auditService driving.AuditService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		ctx:          ctx,
		styles:       s,
		auditService: auditService,
		audits:       []domain.DeletionAudit{},
	}
}

// Init loads the audit trail.
func (v *View) Init() tea.Cmd {
	return v.load()
}

func (v *View) load() tea.Cmd {
	v.loading = true
	filter := domain.AuditFilter{ManualOnly: v.manualOnly, Limit: pageSize}
	return func() tea.Msg {
		if v.auditService == nil {
			return messages.AuditsLoaded{Err: errors.New("audit service not available")}
		}
		audits, err := v.auditService.ListDeletions(v.ctx, filter)
		return messages.AuditsLoaded{Audits: audits, Err: err}
	}
}

// Update handles messages for the audit view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AuditsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.audits = msg.Audits
			if v.selected >= len(v.audits) {
				v.selected = max(len(v.audits)-1, 0)
			}
			v.adjustScroll()
		}
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.audits)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "enter":
		if v.selected < len(v.audits) {
			a := v.audits[v.selected]
			return v, func() tea.Msg {
				return messages.AuditSelected{Audit: a}
			}
		}
	case "m":
		v.manualOnly = !v.manualOnly
		v.selected = 0
		v.scrollOffset = 0
		return v, v.load()
	case "r":
		return v, v.load()
	}

	return v, nil
}

func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

func (v *View) visibleItemCount() int {
	// title, filter line, scroll indicator, help and status bar
	return max(v.height-8, 1)
}

// View renders the audit trail.
func (v *View) View() string {
	var b strings.Builder

	title := fmt.Sprintf("Deletion audit (%d)", len(v.audits))
	b.WriteString(v.styles.Title.Render(title))
	if v.manualOnly {
		b.WriteString("  ")
		b.WriteString(v.styles.Error.Render("manual intervention only"))
	}
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading audit trail..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case len(v.audits) == 0:
		b.WriteString(v.styles.Muted.Render("No deletion records found."))
	default:
		visible := v.visibleItemCount()
		for i := v.scrollOffset; i < len(v.audits) && i < v.scrollOffset+visible; i++ {
			b.WriteString(v.renderAudit(i, &v.audits[i]))
			b.WriteString("\n")
		}
		if len(v.audits) > visible {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
				v.scrollOffset+1,
				min(v.scrollOffset+visible, len(v.audits)),
				len(v.audits))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] details  [m] manual only  [r] reload  [tab] dashboard"))
	return b.String()
}

func (v *View) renderAudit(index int, a *domain.DeletionAudit) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}
	when := a.CompletedAt.Local().Format(time.DateTime)
	flag := ""
	if a.RequiresManualIntervention {
		flag = " !"
	}

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%s  %-36s %-16s %s%s",
			indicator, when, a.DocumentID, a.Status, a.Actor, flag))
	}
	return v.styles.Normal.Render(indicator) +
		v.styles.Muted.Render(when) + "  " +
		v.styles.Normal.Render(fmt.Sprintf("%-36s ", a.DocumentID)) +
		v.styles.AuditStatus(a.Status).Render(fmt.Sprintf("%-16s", a.Status)) + " " +
		v.styles.Muted.Render(a.Actor) +
		v.styles.Error.Render(flag)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.adjustScroll()
}

// Audits returns the loaded records.
func (v *View) Audits() []domain.DeletionAudit {
	return v.audits
}

// SelectedIndex returns the selected record index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// ManualOnly reports whether the manual-intervention filter is on.
func (v *View) ManualOnly() bool {
	return v.manualOnly
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
