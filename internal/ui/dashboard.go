package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ResourceStats holds system resource information
type ResourceStats struct {
	CPUPercent  float64
	MemoryUsed  uint64
	MemoryTotal uint64
	MemPercent  float64
	CPUTemp     float64 // in Celsius, -1 if unavailable
}

// DashboardModel is the main bubbletea model for the TUI dashboard
type DashboardModel struct {
	title     string
	workspace *Workspace

	selectedIndex int

	// Resources
	resources ResourceStats

	// UI state
	width           int
	height          int
	viewport        viewport.Model
	compactViewport viewport.Model // Viewport for logs in compact mode
	showHelp        bool
	quitting        bool
	compactMode     bool // Toggle between dashboard and compact mode (Tab key)
	logsFocused     bool // Whether logs are focused in compact mode (enables scrolling)

	// Channels for updates
	updateChan chan tea.Msg

	// onQuit is called once when the user quits
	onQuit func()

	// Key bindings
	keys keyMap

	// Styles
	styles *Styles
}

// keyMap defines the key bindings for the dashboard
type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Enter      key.Binding
	Escape     key.Binding
	Help       key.Binding
	Quit       key.Binding
	ToggleMode key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "focus/unfocus"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		ToggleMode: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "toggle view"),
		),
	}
}

// Styles holds all lipgloss styles for the dashboard
type Styles struct {
	// Base styles
	App    lipgloss.Style
	Header lipgloss.Style
	Footer lipgloss.Style

	// Window list styles
	WindowList     lipgloss.Style
	WindowItem     lipgloss.Style
	WindowSelected lipgloss.Style
	WindowFocused  lipgloss.Style

	// Status styles
	StatusPending lipgloss.Style
	StatusRunning lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusError   lipgloss.Style
	StatusStopped lipgloss.Style

	// Monitor styles
	MonitorBox    lipgloss.Style
	ProgressFill  lipgloss.Style
	ProgressEmpty lipgloss.Style

	// Log styles
	LogViewport lipgloss.Style
	LogLine     lipgloss.Style
	LogError    lipgloss.Style

	// Help styles
	Help     lipgloss.Style
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style
}

// DefaultStyles returns the default color scheme
func DefaultStyles() *Styles {
	subtle := lipgloss.AdaptiveColor{Light: "#666", Dark: "#999"}
	highlight := lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#AD8EE6"}
	success := lipgloss.AdaptiveColor{Light: "#00AA00", Dark: "#00FF00"}
	warning := lipgloss.AdaptiveColor{Light: "#AAAA00", Dark: "#FFFF00"}
	errorColor := lipgloss.AdaptiveColor{Light: "#AA0000", Dark: "#FF0000"}
	info := lipgloss.AdaptiveColor{Light: "#0066CC", Dark: "#00AAFF"}

	return &Styles{
		App: lipgloss.NewStyle().
			Padding(1, 2),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(subtle).
			MarginBottom(1).
			Padding(0, 1),

		Footer: lipgloss.NewStyle().
			Foreground(subtle).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(subtle).
			MarginTop(1).
			Padding(0, 1),

		WindowList: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(subtle).
			Padding(0, 1),

		WindowItem: lipgloss.NewStyle().
			Padding(0, 1),

		WindowSelected: lipgloss.NewStyle().
			Padding(0, 1).
			Background(lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#333333"}).
			Bold(true),

		WindowFocused: lipgloss.NewStyle().
			Padding(0, 1).
			Background(highlight).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true),

		StatusPending: lipgloss.NewStyle().
			Foreground(subtle),

		StatusRunning: lipgloss.NewStyle().
			Foreground(info).
			Bold(true),

		StatusSuccess: lipgloss.NewStyle().
			Foreground(success),

		StatusError: lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true),

		StatusStopped: lipgloss.NewStyle().
			Foreground(warning),

		MonitorBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(subtle).
			Padding(0, 1).
			MarginTop(1),

		ProgressFill: lipgloss.NewStyle().
			Foreground(success),

		ProgressEmpty: lipgloss.NewStyle().
			Foreground(subtle),

		LogViewport: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(highlight).
			Padding(0, 1),

		LogLine: lipgloss.NewStyle().
			Foreground(subtle),

		LogError: lipgloss.NewStyle().
			Foreground(errorColor),

		Help: lipgloss.NewStyle().
			Foreground(subtle),

		HelpKey: lipgloss.NewStyle().
			Foreground(highlight).
			Bold(true),

		HelpDesc: lipgloss.NewStyle().
			Foreground(subtle),
	}
}

// Messages for bubbletea
type tickMsg time.Time
type resourceUpdateMsg ResourceStats
type windowsChangedMsg struct{}

// NewDashboard creates a dashboard over the windows of ws
func NewDashboard(title string, ws *Workspace) *DashboardModel {
	vp := viewport.New(80, 20)
	vp.SetContent("")
	vp.MouseWheelEnabled = true

	// Compact viewport for scrollable logs
	cvp := viewport.New(80, 20)
	cvp.SetContent("")
	cvp.MouseWheelEnabled = true

	m := &DashboardModel{
		title:           title,
		workspace:       ws,
		viewport:        vp,
		compactViewport: cvp,
		keys:            defaultKeyMap(),
		styles:          DefaultStyles(),
		updateChan:      make(chan tea.Msg, 100),
		compactMode:     true,
		logsFocused:     true,
	}

	ws.Observe(Observer{
		Line:    func(*Window, LogLine) { m.notify() },
		Status:  func(*Window, Status) { m.notify() },
		Changed: m.notify,
	})
	return m
}

// notify wakes the model up. Updates are coalesced: the model re-reads the
// workspace on every wake-up, so a dropped message loses nothing.
func (m *DashboardModel) notify() {
	select {
	case m.updateChan <- windowsChangedMsg{}:
	default:
	}
}

// Init implements tea.Model
func (m *DashboardModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.listenForUpdates(),
	)
}

// tickCmd returns a command that ticks every second
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// listenForUpdates listens for external updates
func (m *DashboardModel) listenForUpdates() tea.Cmd {
	return func() tea.Msg {
		return <-m.updateChan
	}
}

// Update implements tea.Model
func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Handle quit FIRST - before anything else can consume the key
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(keyMsg, m.keys.Quit) {
			m.quit()
			return m, tea.Quit
		}
	}

	windows := m.workspace.List()
	focused := m.workspace.FocusedWindow()

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.ToggleMode):
			m.compactMode = !m.compactMode

		case key.Matches(msg, m.keys.Up):
			if m.compactMode && m.logsFocused {
				var cmd tea.Cmd
				m.compactViewport, cmd = m.compactViewport.Update(msg)
				cmds = append(cmds, cmd)
			} else if !m.compactMode && focused != nil {
				var cmd tea.Cmd
				m.viewport, cmd = m.viewport.Update(msg)
				cmds = append(cmds, cmd)
			} else if m.selectedIndex > 0 {
				m.selectedIndex--
			}

		case key.Matches(msg, m.keys.Down):
			if m.compactMode && m.logsFocused {
				var cmd tea.Cmd
				m.compactViewport, cmd = m.compactViewport.Update(msg)
				cmds = append(cmds, cmd)
			} else if !m.compactMode && focused != nil {
				var cmd tea.Cmd
				m.viewport, cmd = m.viewport.Update(msg)
				cmds = append(cmds, cmd)
			} else if m.selectedIndex < len(windows)-1 {
				m.selectedIndex++
			}

		case key.Matches(msg, m.keys.Enter):
			if m.compactMode {
				m.logsFocused = !m.logsFocused
			} else if focused != nil {
				m.workspace.Focus(nil)
			} else if m.selectedIndex >= 0 && m.selectedIndex < len(windows) {
				// Focusing a pane also makes it the target for routed output
				m.workspace.Focus(windows[m.selectedIndex])
				m.updateViewportContent()
			}

		case key.Matches(msg, m.keys.Escape):
			if m.compactMode && m.logsFocused {
				m.logsFocused = false
			} else if focused != nil {
				m.workspace.Focus(nil)
			}

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
		}

	case tea.MouseMsg:
		if m.compactMode {
			var cmd tea.Cmd
			m.compactViewport, cmd = m.compactViewport.Update(msg)
			cmds = append(cmds, cmd)
		} else if focused != nil {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 15 // Leave room for header/footer
		m.compactViewport.Width = msg.Width - 4
		m.compactViewport.Height = msg.Height - 6
		m.refresh()

	case tickMsg:
		cmds = append(cmds, tickCmd())
		cmds = append(cmds, m.fetchResourceStats())
		m.refresh()

	case resourceUpdateMsg:
		m.resources = ResourceStats(msg)

	case windowsChangedMsg:
		if m.selectedIndex >= len(windows) {
			m.selectedIndex = max(len(windows)-1, 0)
		}
		m.refresh()
		cmds = append(cmds, m.listenForUpdates())

	}

	return m, tea.Batch(cmds...)
}

func (m *DashboardModel) quit() {
	m.quitting = true
	if m.onQuit != nil {
		m.onQuit()
		m.onQuit = nil
	}
}

func (m *DashboardModel) refresh() {
	if m.workspace.FocusedWindow() != nil {
		m.updateViewportContent()
	}
	if m.compactMode {
		m.updateCompactViewportContent()
	}
}

// fetchResourceStats fetches system resource statistics
func (m *DashboardModel) fetchResourceStats() tea.Cmd {
	return func() tea.Msg {
		stats := GetResourceStats()
		return resourceUpdateMsg(stats)
	}
}

func (m *DashboardModel) renderLogLine(l LogLine) string {
	text := "[" + l.Time.Format("15:04:05") + "] " + l.Text
	if l.IsError() {
		return m.styles.LogError.Render(text)
	}
	return text
}

// updateViewportContent updates the viewport with the focused window's logs
func (m *DashboardModel) updateViewportContent() {
	w := m.workspace.FocusedWindow()
	if w == nil {
		return
	}

	logs := w.Logs()
	lines := make([]string, len(logs))
	for i, l := range logs {
		lines[i] = m.renderLogLine(l)
	}

	// Check if user is at the bottom before updating content
	atBottom := m.viewport.AtBottom()

	m.viewport.SetContent(strings.Join(lines, "\n"))

	// Only auto-scroll to bottom if user was already at the bottom
	if atBottom {
		m.viewport.GotoBottom()
	}
}

// updateCompactViewportContent updates the compact viewport with all window logs
func (m *DashboardModel) updateCompactViewportContent() {
	var lines []string

	dimStyle := lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"})

	for _, w := range m.workspace.List() {
		logs := w.Logs()
		if len(logs) == 0 && w.Status() == StatusPending {
			continue
		}

		lines = append(lines, m.renderStatus(w.Status())+" "+w.Name)

		for _, l := range logs {
			text := l.Text
			if m.width > 10 && len(text) > m.width-4 {
				text = text[:m.width-7] + "..."
			}
			if l.IsError() {
				lines = append(lines, m.styles.LogError.Render("  "+text))
			} else {
				lines = append(lines, dimStyle.Render("  "+text))
			}
		}
		lines = append(lines, "")
	}

	atBottom := m.compactViewport.AtBottom()
	m.compactViewport.SetContent(strings.Join(lines, "\n"))
	if atBottom {
		m.compactViewport.GotoBottom()
	}
}

// View implements tea.Model
func (m *DashboardModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	if m.compactMode {
		return m.renderCompactView()
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.workspace.FocusedWindow() != nil {
		b.WriteString(m.renderFocusedView())
	} else {
		b.WriteString(m.renderMainView())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return m.styles.App.Render(b.String())
}

func (m *DashboardModel) counts() (total, running int) {
	windows := m.workspace.List()
	for _, w := range windows {
		if w.Status() == StatusRunning {
			running++
		}
	}
	return len(windows), running
}

// renderHeader renders the dashboard header
func (m *DashboardModel) renderHeader() string {
	total, running := m.counts()

	status := fmt.Sprintf("Windows: %d | Running: %d", total, running)
	if m.resources.CPUPercent > 0 {
		status += fmt.Sprintf(" | CPU: %.1f%%", m.resources.CPUPercent)
	}
	if m.resources.MemPercent > 0 {
		status += fmt.Sprintf(" | Mem: %.1f%%", m.resources.MemPercent)
	}
	if m.resources.CPUTemp > 0 {
		status += fmt.Sprintf(" | Temp: %.0f°C", m.resources.CPUTemp)
	}

	headerWidth := m.width - 4
	if headerWidth < 40 {
		headerWidth = 40
	}

	padding := headerWidth - lipgloss.Width(m.title) - lipgloss.Width(status)
	if padding < 1 {
		padding = 1
	}

	return m.styles.Header.Width(headerWidth).Render(
		m.title + strings.Repeat(" ", padding) + status,
	)
}

// renderMainView renders the window list and the resource monitor
func (m *DashboardModel) renderMainView() string {
	var b strings.Builder
	b.WriteString(m.renderWindowList())
	b.WriteString("\n")
	b.WriteString(m.renderResourceMonitor())
	return b.String()
}

// renderWindowList renders the list of windows
func (m *DashboardModel) renderWindowList() string {
	listWidth := m.width - 6
	if listWidth < 60 {
		listWidth = 60
	}

	windows := m.workspace.List()
	if len(windows) == 0 {
		return m.styles.WindowList.Width(listWidth).Render(m.styles.Help.Render("No windows yet"))
	}

	items := make([]string, 0, len(windows))
	for i, w := range windows {
		items = append(items, m.renderWindowItem(i, w, listWidth))
	}
	return m.styles.WindowList.Width(listWidth).Render(strings.Join(items, "\n"))
}

// renderWindowItem renders a single window entry
func (m *DashboardModel) renderWindowItem(index int, w *Window, width int) string {
	style := m.styles.WindowItem
	if index == m.selectedIndex {
		style = m.styles.WindowSelected
	}

	name := w.Name
	maxNameLen := 32
	if len(name) > maxNameLen {
		name = name[:maxNameLen-3] + "..."
	}

	duration := ""
	if start := w.StartTime(); w.Status() == StatusRunning && !start.IsZero() {
		duration = " " + time.Since(start).Round(time.Second).String()
	}

	line := fmt.Sprintf("%-*s  %s%s", maxNameLen, name, m.renderStatus(w.Status()), duration)
	return style.Width(width - 2).Render(line)
}

// renderStatus renders a status indicator
func (m *DashboardModel) renderStatus(status Status) string {
	var style lipgloss.Style
	var icon string

	switch status {
	case StatusRunning:
		style = m.styles.StatusRunning
		icon = "●"
	case StatusSuccess:
		style = m.styles.StatusSuccess
		icon = "✓"
	case StatusError:
		style = m.styles.StatusError
		icon = "✗"
	case StatusStopped:
		style = m.styles.StatusStopped
		icon = "○"
	default:
		style = m.styles.StatusPending
		icon = "◌"
	}

	return style.Render(fmt.Sprintf("%s %s", icon, status))
}

// renderResourceMonitor renders the resource monitor
func (m *DashboardModel) renderResourceMonitor() string {
	var parts []string

	parts = append(parts, m.renderProgressBar("CPU", m.resources.CPUPercent/100, 20))
	parts = append(parts, m.renderProgressBar("Mem", m.resources.MemPercent/100, 20))

	if m.resources.CPUTemp > 0 {
		tempColor := m.styles.ProgressFill
		if m.resources.CPUTemp > 80 {
			tempColor = m.styles.StatusError
		} else if m.resources.CPUTemp > 60 {
			tempColor = m.styles.StatusStopped
		}
		parts = append(parts, tempColor.Render(fmt.Sprintf("%.0f°C", m.resources.CPUTemp)))
	}

	return m.styles.MonitorBox.Render(strings.Join(parts, "  "))
}

// renderProgressBar renders a progress bar
func (m *DashboardModel) renderProgressBar(label string, progress float64, width int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}

	filled := int(progress * float64(width))
	empty := width - filled

	bar := m.styles.ProgressFill.Render(strings.Repeat("█", filled)) +
		m.styles.ProgressEmpty.Render(strings.Repeat("░", empty))

	return fmt.Sprintf("%s [%s] %5.1f%%", label, bar, progress*100)
}

// renderFocusedView renders the focused window with its logs
func (m *DashboardModel) renderFocusedView() string {
	w := m.workspace.FocusedWindow()
	if w == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s | %s", w.Name, m.renderStatus(w.Status())))
	b.WriteString("\n\n")

	viewportWidth := m.width - 6
	if viewportWidth < 60 {
		viewportWidth = 60
	}

	m.viewport.Width = viewportWidth
	b.WriteString(m.styles.LogViewport.Width(viewportWidth).Render(m.viewport.View()))

	return b.String()
}

// renderCompactView renders a minimal view with logs
func (m *DashboardModel) renderCompactView() string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#AD8EE6"})

	dimStyle := lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"})

	total, running := m.counts()
	b.WriteString(headerStyle.Render(m.title))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d/%d running", running, total)))
	if m.resources.CPUPercent > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  CPU: %.0f%%", m.resources.CPUPercent)))
	}
	if w := m.workspace.FocusedWindow(); w != nil {
		b.WriteString(dimStyle.Render("  output → " + w.Name))
	}
	b.WriteString("\n\n")

	border := lipgloss.AdaptiveColor{Light: "#CCCCCC", Dark: "#444444"}
	if m.logsFocused {
		border = lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#AD8EE6"}
	}
	viewportStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
	b.WriteString(viewportStyle.Render(m.compactViewport.View()))
	b.WriteString("\n")

	var helpText string
	if m.logsFocused {
		helpText = fmt.Sprintf("%s scroll • %s unfocus • %s toggle view • %s quit",
			m.styles.HelpKey.Render("↑↓/scroll"),
			m.styles.HelpKey.Render("esc"),
			m.styles.HelpKey.Render("tab"),
			m.styles.HelpKey.Render("q"))
	} else {
		helpText = fmt.Sprintf("%s focus logs • %s toggle view • %s quit",
			m.styles.HelpKey.Render("enter"),
			m.styles.HelpKey.Render("tab"),
			m.styles.HelpKey.Render("q"))
	}
	b.WriteString(dimStyle.Render(helpText))

	return b.String()
}

// renderFooter renders the dashboard footer with help
func (m *DashboardModel) renderFooter() string {
	var help string

	if m.workspace.FocusedWindow() != nil {
		help = fmt.Sprintf("Dashboard • %s scroll • %s back • %s quit",
			m.styles.HelpKey.Render("↑↓/jk"),
			m.styles.HelpKey.Render("esc/enter"),
			m.styles.HelpKey.Render("q"))
	} else {
		help = fmt.Sprintf("Dashboard • %s nav • %s focus • %s view • %s quit",
			m.styles.HelpKey.Render("↑↓"),
			m.styles.HelpKey.Render("enter"),
			m.styles.HelpKey.Render("tab"),
			m.styles.HelpKey.Render("q"))
	}

	footerWidth := m.width - 4
	if footerWidth < 40 {
		footerWidth = 40
	}

	return m.styles.Footer.Width(footerWidth).Render(help)
}
