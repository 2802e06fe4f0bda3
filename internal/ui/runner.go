package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
)

// DashboardRunner manages the TUI dashboard lifecycle
type DashboardRunner struct {
	dashboard    *DashboardModel
	workspace    *Workspace
	program      *tea.Program
	ctx          context.Context
	cancel       context.CancelFunc
	mu           sync.Mutex
	running      bool
	fallbackMode bool // Use fallback mode (no TUI) when terminal is not interactive
	out          io.Writer
	errOut       io.Writer
}

// DashboardConfig holds configuration for the dashboard
type DashboardConfig struct {
	Title        string
	Workspace    *Workspace
	FallbackMode bool // If true, print window lines instead of drawing the TUI
	Out          io.Writer
	Err          io.Writer
}

// NewDashboardRunner creates a new dashboard runner. Its context is
// cancelled when the user quits or the process receives SIGINT/SIGTERM.
func NewDashboardRunner(parent context.Context, config DashboardConfig) *DashboardRunner {
	ctx, cancel := context.WithCancel(parent)

	ws := config.Workspace
	if ws == nil {
		ws = NewWorkspace()
	}
	title := config.Title
	if title == "" {
		title = "deploy-helper"
	}
	out, errOut := config.Out, config.Err
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}

	dr := &DashboardRunner{
		workspace:    ws,
		ctx:          ctx,
		cancel:       cancel,
		fallbackMode: config.FallbackMode,
		out:          out,
		errOut:       errOut,
	}

	if config.FallbackMode {
		ws.Observe(Observer{Line: dr.printLine})
	} else {
		dr.dashboard = NewDashboard(title, ws)
		dr.dashboard.onQuit = cancel
	}
	return dr
}

// printLine writes a window line to the console in fallback mode
func (dr *DashboardRunner) printLine(w *Window, l LogLine) {
	dst := dr.out
	if l.IsError() {
		dst = dr.errOut
	}
	fmt.Fprintf(dst, "[%s] %s\n", w.Name, l.Text)
}

// Start runs the dashboard until Stop is called or the user quits
func (dr *DashboardRunner) Start() error {
	dr.mu.Lock()
	if dr.running {
		dr.mu.Unlock()
		return fmt.Errorf("dashboard already running")
	}
	dr.running = true
	if !dr.fallbackMode {
		dr.program = tea.NewProgram(
			dr.dashboard,
			tea.WithAltScreen(),
			tea.WithMouseCellMotion(),
		)
	}
	program := dr.program
	dr.mu.Unlock()

	defer func() {
		dr.mu.Lock()
		dr.running = false
		dr.mu.Unlock()
	}()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			dr.Stop()
		case <-dr.ctx.Done():
		}
		if program != nil {
			program.Quit()
		}
	}()

	if program == nil {
		// In fallback mode, just wait for context cancellation
		<-dr.ctx.Done()
		return nil
	}

	_, err := program.Run()
	// Quitting the dashboard ends the run; in-flight commands see the cancellation
	dr.cancel()
	return err
}

// Stop cancels the context, which also closes the dashboard
func (dr *DashboardRunner) Stop() {
	dr.cancel()
}

// IsRunning returns whether the dashboard is running
func (dr *DashboardRunner) IsRunning() bool {
	dr.mu.Lock()
	defer dr.mu.Unlock()
	return dr.running
}

// Context returns the dashboard context
func (dr *DashboardRunner) Context() context.Context {
	return dr.ctx
}

// Workspace returns the windows shown by the dashboard
func (dr *DashboardRunner) Workspace() *Workspace {
	return dr.workspace
}

// RunWithDashboard runs fn with the dashboard active. fn receives the
// dashboard context, which is cancelled when the user quits.
func RunWithDashboard(ctx context.Context, config DashboardConfig, fn func(context.Context, *DashboardRunner) error) error {
	runner := NewDashboardRunner(ctx, config)

	// Start dashboard in background
	errChan := make(chan error, 1)
	go func() {
		errChan <- runner.Start()
	}()

	fnErr := fn(runner.Context(), runner)

	// In TUI mode leave the results on screen until the user quits
	if !runner.fallbackMode && fnErr == nil {
		<-runner.Context().Done()
	}

	runner.Stop()

	dashErr := <-errChan
	if fnErr != nil {
		return fnErr
	}
	return dashErr
}
