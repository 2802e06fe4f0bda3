package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

// Spinner prints a single progress line while a blocking call runs
type Spinner struct {
	msg     string
	out     io.Writer
	model   spinner.Model
	stop    chan struct{}
	done    sync.WaitGroup
	running bool
}

// NewSpinner creates a spinner writing to out
func NewSpinner(out io.Writer, message string) *Spinner {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#AD8EE6"})
	return &Spinner{msg: message, out: out, model: s}
}

// Start begins animating
func (s *Spinner) Start() {
	if s == nil || s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done.Add(1)

	go func() {
		defer s.done.Done()
		ticker := time.NewTicker(s.model.Spinner.FPS)
		defer ticker.Stop()
		frame := 0
		for {
			fmt.Fprintf(s.out, "\r%s %s", s.model.Style.Render(s.model.Spinner.Frames[frame]), s.msg)
			select {
			case <-s.stop:
				fmt.Fprint(s.out, "\r\033[K")
				return
			case <-ticker.C:
				frame = (frame + 1) % len(s.model.Spinner.Frames)
			}
		}
	}()
}

// Stop clears the spinner line
func (s *Spinner) Stop() {
	if s == nil || !s.running {
		return
	}
	s.running = false
	close(s.stop)
	s.done.Wait()
}
