package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var welcomeBanner = []string{
	"     _            _                   _          _                 ",
	"  __| | ___ _ __ | | ___  _   _      | |__   ___| |_ __   ___ _ __ ",
	" / _` |/ _ \\ '_ \\| |/ _ \\| | | |_____| '_ \\ / _ \\ | '_ \\ / _ \\ '__|",
	"| (_| |  __/ |_) | | (_) | |_| |_____| | | |  __/ | |_) |  __/ |   ",
	" \\__,_|\\___| .__/|_|\\___/ \\__, |     |_| |_|\\___|_| .__/ \\___|_|   ",
	"           |_|            |___/                   |_|              ",
}

// --- Welcome Styles ---
var (
	welcomeGradient = []string{
		"#059669", "#065f46", "#064e3b", "#065f46",
		"#059669", "#10b981", "#34d399", "#6ee7b7",
		"#a7f3d0", "#6ee7b7", "#34d399", "#10b981",
		"#2dd4bf", "#14b8a6", "#0d9488", "#0f766e",
	}

	welcomeAccentGreen  = lipgloss.Color("#10b981")
	welcomeAccentDim    = lipgloss.Color("#065f46")
	welcomeAccentBright = lipgloss.Color("#34d399")

	welcomeCommandStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#34d399")).
				Bold(true)

	welcomeDescStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#94a3b8"))

	welcomeDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748b"))

	welcomeSectionTitle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#059669")).
				Bold(true).
				Underline(true)

	welcomeQuitStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#475569")).
				Italic(true)
)

// welcomeUsage lists the commands shown on the quick start screen
var welcomeUsage = []struct {
	cmd  string
	desc string
}{
	{"env add <name>", "Create an environment (dev, staging, prod)"},
	{"project add <name> <path>", "Register a project and its repos"},
	{"project login <project> <env>", "Store docker registry credentials"},
	{"step add <name> <command>", "Define a reusable command step"},
	{"combo add <name> <steps...>", "Group steps into a deployment"},
	{"run <combo>", "Execute a deployment with live output"},
	{"registry password --all", "Rotate the registry password everywhere"},
	{"config export <file>", "Back up the configuration"},
}

// --- Welcome Model ---

// WelcomeModel is the animated quick start screen
type WelcomeModel struct {
	TickCount int
	Width     int
	Height    int
	Quitting  bool
	StorePath string
	viewport  viewport.Model
	ready     bool
}

// NewWelcomeModel creates the quick start screen for a store at storePath
func NewWelcomeModel(storePath string) WelcomeModel {
	return WelcomeModel{StorePath: storePath}
}

type welcomeTickMsg time.Time

func welcomeTickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*70, func(t time.Time) tea.Msg {
		return welcomeTickMsg(t)
	})
}

func (m WelcomeModel) Init() tea.Cmd {
	return welcomeTickCmd()
}

func (m WelcomeModel) footerView() string {
	width := m.Width
	if width == 0 {
		width = 100
	}

	dot := lipgloss.NewStyle().Foreground(welcomeAccentDim).Render("●")
	if m.TickCount%30 < 15 {
		dot = lipgloss.NewStyle().Foreground(welcomeAccentBright).Render("●")
	}

	quitText := welcomeQuitStyle.Render("Press ") +
		lipgloss.NewStyle().Foreground(welcomeAccentGreen).Bold(true).Render("q") +
		welcomeQuitStyle.Render(" to exit")

	bar := dot + "  " + quitText + "    " + welcomeDimStyle.Render("↑/↓ scroll") + "  " + dot

	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Render(bar)
}

func (m WelcomeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

		viewHeight := max(m.Height-2, 1)
		if !m.ready {
			m.viewport = viewport.New(m.Width, viewHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.Width
			m.viewport.Height = viewHeight
		}
		m.viewport.SetContent(m.renderContent())

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc", "enter":
			m.Quitting = true
			return m, tea.Quit
		}

	case welcomeTickMsg:
		m.TickCount++
		if m.ready {
			m.viewport.SetContent(m.renderContent())
		}
		cmds = append(cmds, welcomeTickCmd())
	}

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	cmds = append(cmds, vpCmd)

	return m, tea.Batch(cmds...)
}

func (m WelcomeModel) View() string {
	if m.Quitting {
		return ""
	}
	if !m.ready {
		return "\n  Preparing deploy-helper..."
	}
	return m.viewport.View() + "\n" + m.footerView()
}

func (m WelcomeModel) renderContent() string {
	width := m.Width
	if width == 0 {
		width = 100
	}

	var content strings.Builder

	center := func(text string) string {
		return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(text)
	}

	content.WriteString("\n\n")

	for i, line := range welcomeBanner {
		color := welcomeGradient[(m.TickCount+i)%len(welcomeGradient)]
		styled := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true).Render(line)
		content.WriteString(center(styled) + "\n")
	}
	content.WriteString("\n")

	sepWidth := min(64, width-4)
	separator := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#064e3b")).
		Render(strings.Repeat("─", max(sepWidth, 0)))
	content.WriteString(center(separator) + "\n\n")

	if m.StorePath != "" {
		content.WriteString(center(welcomeDimStyle.Render("Configuration: ")+welcomeDescStyle.Render(m.StorePath)) + "\n\n")
	}

	content.WriteString(center(welcomeSectionTitle.Render("Getting started")) + "\n\n")
	for _, item := range welcomeUsage {
		cmd := welcomeCommandStyle.Render(fmt.Sprintf("  %-32s", "deploy-helper "+item.cmd))
		content.WriteString(center(cmd+welcomeDescStyle.Render(item.desc)) + "\n")
	}
	content.WriteString("\n")

	quickStart := welcomeCommandStyle.Render("env add dev") + " → " +
		welcomeCommandStyle.Render("project add") + " → " +
		welcomeCommandStyle.Render("step add") + " → " +
		welcomeCommandStyle.Render("run")
	content.WriteString(center(welcomeDimStyle.Render("Quick Start:  ")+quickStart) + "\n\n")

	content.WriteString(center(separator) + "\n")
	return content.String()
}

// RunWelcomeScreen shows the quick start screen until the user dismisses it
func RunWelcomeScreen(storePath string) error {
	p := tea.NewProgram(
		NewWelcomeModel(storePath),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err := p.Run()
	return err
}
