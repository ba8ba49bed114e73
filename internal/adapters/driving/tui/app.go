package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-integrity/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-integrity/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-integrity/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-integrity/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-integrity/internal/adapters/driving/tui/views/audit"
	"github.com/custodia-labs/sercha-integrity/internal/adapters/driving/tui/views/auditdetail"
	"github.com/custodia-labs/sercha-integrity/internal/adapters/driving/tui/views/dashboard"
	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

// App is the console application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ctx    context.Context
	ports  *Ports
	styles *styles.Styles
	keymap *keymap.KeyMap

	dashboardView *dashboard.View
	auditView     *audit.View
	detailView    *auditdetail.View
	statusBar     *status.Bar

	currentView messages.ViewType
	// previousView is restored when help is closed.
	previousView messages.ViewType
	auditLoaded  bool

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a console bound to ctx. Service calls are cancelled with it.
func NewApp(ctx context.Context, ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	bar := status.NewBar(s, km)
	bar.SetBindings(km.DashboardHelp())

	return &App{
		ctx:           ctx,
		ports:         ports,
		styles:        s,
		keymap:        km,
		dashboardView: dashboard.NewView(ctx, s, ports.Integrity, ports.Repair),
		auditView:     audit.NewView(ctx, s, ports.Audit),
		detailView:    auditdetail.NewView(s),
		statusBar:     bar,
		currentView:   messages.ViewDashboard,
	}, nil
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("sercha-integrity"),
		a.dashboardView.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.ViewChanged:
		return a, a.switchTo(msg.View)

	case messages.AuditSelected:
		a.detailView.SetAudit(msg.Audit)
		return a, a.switchTo(messages.ViewAuditDetail)

	case messages.IntegrityChecked:
		a.dashboardView, cmd = a.dashboardView.Update(msg)
		a.reportStatus(msg.Err, func() string {
			return "Integrity " + string(msg.Report.Status)
		})
		return a, cmd

	case messages.RepairCompleted:
		a.dashboardView, cmd = a.dashboardView.Update(msg)
		a.reportStatus(msg.Err, func() string {
			return fmt.Sprintf("Requeued %d, marked failed %d", len(msg.Report.Requeued), len(msg.Report.MarkedFailed))
		})
		return a, cmd

	case messages.AuditsLoaded:
		a.auditView, cmd = a.auditView.Update(msg)
		a.reportStatus(msg.Err, func() string {
			return fmt.Sprintf("%d records", len(msg.Audits))
		})
		return a, cmd

	case messages.ErrorOccurred:
		a.statusBar.SetState(status.StateError, msg.Err.Error())
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	// Spinner ticks and other internal messages.
	switch a.currentView {
	case messages.ViewDashboard:
		a.dashboardView, cmd = a.dashboardView.Update(msg)
	case messages.ViewAuditDetail:
		a.detailView, cmd = a.detailView.Update(msg)
	case messages.ViewAudit, messages.ViewHelp:
	}
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	keyStr := msg.String()

	if keymap.Matches(keyStr, a.keymap.Quit) {
		return a, tea.Quit
	}

	if a.currentView == messages.ViewHelp {
		if keymap.Matches(keyStr, a.keymap.Back) || keymap.Matches(keyStr, a.keymap.Help) {
			return a, a.switchTo(a.previousView)
		}
		return a, nil
	}
	if keymap.Matches(keyStr, a.keymap.Help) {
		a.previousView = a.currentView
		return a, a.switchTo(messages.ViewHelp)
	}
	if keymap.Matches(keyStr, a.keymap.NextView) {
		if a.currentView == messages.ViewDashboard {
			return a, a.switchTo(messages.ViewAudit)
		}
		return a, a.switchTo(messages.ViewDashboard)
	}

	switch a.currentView {
	case messages.ViewDashboard:
		a.dashboardView, cmd = a.dashboardView.Update(msg)
		if a.dashboardView.Busy() {
			a.statusBar.SetState(status.StateBusy, "")
		}
	case messages.ViewAudit:
		a.auditView, cmd = a.auditView.Update(msg)
	case messages.ViewAuditDetail:
		a.detailView, cmd = a.detailView.Update(msg)
	case messages.ViewHelp:
	}
	return a, cmd
}

// switchTo activates a view and loads it on first visit.
func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	a.currentView = view
	switch view {
	case messages.ViewDashboard:
		a.statusBar.SetBindings(a.keymap.DashboardHelp())
	case messages.ViewAudit:
		a.statusBar.SetBindings(a.keymap.AuditHelp())
		if !a.auditLoaded {
			a.auditLoaded = true
			return a.auditView.Init()
		}
	case messages.ViewAuditDetail:
		a.statusBar.SetBindings([]key.Binding{a.keymap.Up, a.keymap.Down, a.keymap.Back})
	case messages.ViewHelp:
		a.statusBar.SetBindings([]key.Binding{a.keymap.Back, a.keymap.Quit})
	}
	return nil
}

func (a *App) reportStatus(err error, success func() string) {
	if err != nil {
		a.statusBar.SetState(status.StateError, err.Error())
		return
	}
	a.statusBar.SetState(status.StateSuccess, success())
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewDashboard:
		body = a.dashboardView.View()
	case messages.ViewAudit:
		body = a.auditView.View()
	case messages.ViewAuditDetail:
		body = a.detailView.View()
	case messages.ViewHelp:
		body = a.viewHelp()
	}

	// Pin the status bar to the bottom row.
	gap := a.height - strings.Count(body, "\n") - 2
	if gap < 1 {
		gap = 1
	}
	return body + strings.Repeat("\n", gap) + a.statusBar.View()
}

func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-10s %s\n", h.Key, h.Desc))
		}
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Help.Render("[esc] back"))
	return b.String()
}

// Run starts the console and blocks until it exits or ctx is cancelled.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.dashboardView.SetDimensions(width, height)
	a.auditView.SetDimensions(width, height)
	a.detailView.SetDimensions(width, height)
	a.statusBar.SetWidth(width)
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// LastReport returns the latest integrity report shown on the dashboard.
func (a *App) LastReport() *domain.IntegrityReport {
	return a.dashboardView.Report()
}
