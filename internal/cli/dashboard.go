package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

// Dashboard panel indices.
const (
	panelSources = iota
	panelSummary
	panelViolations
	panelCount
)

const recentViolationLimit = 10

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	sources    []sourceSnapshot
	summary    *models.EventSummary
	violations []violationSnapshot

	// State.
	loading bool
	err     error
}

type sourceSnapshot struct {
	name        string
	metricCount int
	lastSync    string
}

type violationSnapshot struct {
	severity models.Severity
	source   string
	message  string
	time     string
}

// dashDataMsg carries loaded data back to the model.
type dashDataMsg struct {
	sources    []sourceSnapshot
	summary    *models.EventSummary
	violations []violationSnapshot
	err        error
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel: panelSources,
		loading:     true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadDashData
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadDashData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dashDataMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.sources = msg.sources
		m.summary = msg.summary
		m.violations = msg.violations
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" gsda Dashboard ")
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	sourcesPanel := m.renderSourcesPanel()
	summaryPanel := m.renderSummaryPanel()
	violationsPanel := m.renderViolationsPanel()

	// Available width for panels after accounting for margins.
	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		// Horizontal layout: three columns.
		colWidth := availableWidth / 3
		sourcesPanel = m.applyPanelStyle(panelSources, sourcesPanel, colWidth-4)
		summaryPanel = m.applyPanelStyle(panelSummary, summaryPanel, colWidth-4)
		violationsPanel = m.applyPanelStyle(panelViolations, violationsPanel, colWidth-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, sourcesPanel, summaryPanel, violationsPanel)
	} else {
		// Vertical layout: stacked.
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		sourcesPanel = m.applyPanelStyle(panelSources, sourcesPanel, panelWidth)
		summaryPanel = m.applyPanelStyle(panelSummary, summaryPanel, panelWidth)
		violationsPanel = m.applyPanelStyle(panelViolations, violationsPanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, sourcesPanel, summaryPanel, violationsPanel)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderSourcesPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Sources"))
	b.WriteString("\n")

	if len(m.sources) == 0 {
		b.WriteString("  No active sources.")
		return b.String()
	}

	for _, s := range m.sources {
		b.WriteString(fmt.Sprintf("  %-20s %d KPIs  synced %s\n", s.name, s.metricCount, s.lastSync))
	}

	b.WriteString(fmt.Sprintf("\n  Total: %d source(s)", len(m.sources)))

	return b.String()
}

func (m dashboardModel) renderSummaryPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Event Log"))
	b.WriteString("\n")

	if m.summary == nil || m.summary.Total == 0 {
		b.WriteString("  No events recorded.")
		return b.String()
	}

	// Display in a fixed type order so the panel is stable across refreshes.
	order := []string{
		models.EventThresholdViolation,
		models.EventFetchFailure,
		models.EventInitialization,
		models.EventMetricOnboarded,
		models.EventMetricOffboarded,
	}
	for _, eventType := range order {
		count, ok := m.summary.ByType[eventType]
		if !ok || count == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("  %-21s %d\n", eventType, count))
	}

	b.WriteString(fmt.Sprintf("\n  Total: %d event(s)", m.summary.Total))

	return b.String()
}

func (m dashboardModel) renderViolationsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Recent Violations"))
	b.WriteString("\n")

	if len(m.violations) == 0 {
		b.WriteString("  No violations recorded.")
		return b.String()
	}

	for _, v := range m.violations {
		b.WriteString(fmt.Sprintf("  %s %s: %s\n", severityLabel(v.severity), v.source, v.message))
	}

	return b.String()
}

func loadDashData() tea.Msg {
	ctx := context.Background()
	var result dashDataMsg

	if Registry != nil {
		active, err := Registry.ListActive(ctx)
		if err != nil {
			result.err = fmt.Errorf("loading sources: %w", err)
			return result
		}
		result.sources = make([]sourceSnapshot, 0, len(active))
		for _, src := range active {
			lastSync := "never"
			if src.LastSyncAt != nil {
				lastSync = src.LastSyncAt.UTC().Format("2006-01-02 15:04")
			}
			result.sources = append(result.sources, sourceSnapshot{
				name:        src.Name,
				metricCount: len(src.Metrics),
				lastSync:    lastSync,
			})
		}
	}

	if Events != nil {
		summary, err := Events.Summarize(ctx)
		if err != nil {
			result.err = fmt.Errorf("loading summary: %w", err)
			return result
		}
		result.summary = summary

		events, err := Events.QueryBySource(ctx, "")
		if err != nil {
			result.err = fmt.Errorf("loading events: %w", err)
			return result
		}

		// Most recent violations first.
		for i := len(events) - 1; i >= 0 && len(result.violations) < recentViolationLimit; i-- {
			e := events[i]
			if e.EventType != models.EventThresholdViolation {
				continue
			}
			result.violations = append(result.violations, violationSnapshot{
				severity: models.Severity(e.Status),
				source:   e.SourceName,
				message:  e.Message,
				time:     e.Timestamp.UTC().Format("2006-01-02 15:04 UTC"),
			})
		}
	}

	return result
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for sources and violations",
	Long: `Launch an interactive terminal dashboard showing active sources, event
log totals, and the most recent threshold violations.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil || Events == nil {
			return fmt.Errorf("monitor services not initialized")
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
