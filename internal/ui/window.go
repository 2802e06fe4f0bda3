package ui

import (
	"bytes"
	"strings"
	"sync"
	"time"

	"github.com/harshul/deploy-helper/internal/router"
)

// Status represents the state of the work shown in a window
type Status string

const (
	StatusPending Status = "Pending"
	StatusRunning Status = "Running"
	StatusSuccess Status = "Success"
	StatusError   Status = "Error"
	StatusStopped Status = "Stopped"
)

const maxWindowLines = 1000

// LogLine is one complete line received by a window
type LogLine struct {
	Time    time.Time
	Channel string
	Text    string
}

// IsError reports whether the line came from the error channel
func (l LogLine) IsError() bool {
	return l.Channel == router.CommandError
}

// Window is a named output surface. It receives raw command-output and
// command-error chunks, splits them into lines and keeps the most recent ones.
type Window struct {
	ID   int
	Name string

	status    Status
	startTime time.Time
	closed    bool
	logs      *LogBuffer
	partial   map[string][]byte
	onLine    func(*Window, LogLine)
	onStatus  func(*Window, Status)
	mu        sync.RWMutex
}

func newWindow(id int, name string) *Window {
	return &Window{
		ID:      id,
		Name:    name,
		status:  StatusPending,
		logs:    NewLogBuffer(maxWindowLines),
		partial: make(map[string][]byte),
	}
}

// Send implements router.Window
func (w *Window) Send(channel, payload string) {
	if w == nil {
		return
	}
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}

	buf := append(w.partial[channel], payload...)
	var lines []LogLine
	for {
		idx := bytes.IndexByte(buf, '\n')
		if idx < 0 {
			break
		}
		text := strings.TrimRight(string(buf[:idx]), "\r")
		buf = buf[idx+1:]
		lines = append(lines, LogLine{Time: time.Now(), Channel: channel, Text: text})
	}
	w.partial[channel] = buf
	onLine := w.onLine
	w.mu.Unlock()

	for _, l := range lines {
		w.logs.Append(l)
		if onLine != nil {
			onLine(w, l)
		}
	}
}

// Flush emits any buffered partial lines
func (w *Window) Flush() {
	if w == nil {
		return
	}
	w.mu.Lock()
	var lines []LogLine
	for _, channel := range []string{router.CommandOutput, router.CommandError} {
		buf := w.partial[channel]
		if text := strings.TrimRight(string(buf), "\r\n"); text != "" {
			lines = append(lines, LogLine{Time: time.Now(), Channel: channel, Text: text})
		}
		w.partial[channel] = nil
	}
	onLine := w.onLine
	w.mu.Unlock()

	for _, l := range lines {
		w.logs.Append(l)
		if onLine != nil {
			onLine(w, l)
		}
	}
}

// Closed implements router.Window. A nil window counts as closed.
func (w *Window) Closed() bool {
	if w == nil {
		return true
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.closed
}

func (w *Window) close() {
	w.Flush()
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
}

// Logs returns a copy of the retained lines
func (w *Window) Logs() []LogLine {
	return w.logs.GetAll()
}

// Tail returns at most the last n lines
func (w *Window) Tail(n int) []LogLine {
	return w.logs.GetLast(n)
}

// Status returns the window status (thread-safe)
func (w *Window) Status() Status {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status
}

// StartTime returns when the window first entered StatusRunning
func (w *Window) StartTime() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.startTime
}

// SetStatus updates the window status (thread-safe)
func (w *Window) SetStatus(status Status) {
	if w == nil {
		return
	}
	w.mu.Lock()
	w.status = status
	if status == StatusRunning && w.startTime.IsZero() {
		w.startTime = time.Now()
	}
	onStatus := w.onStatus
	w.mu.Unlock()

	if onStatus != nil {
		onStatus(w, status)
	}
}

// LogBuffer provides a simple ring buffer for log lines
type LogBuffer struct {
	lines    []LogLine
	maxLines int
	mu       sync.RWMutex
}

// NewLogBuffer creates a new log buffer
func NewLogBuffer(maxLines int) *LogBuffer {
	return &LogBuffer{
		lines:    make([]LogLine, 0, maxLines),
		maxLines: maxLines,
	}
}

// Append adds a line to the buffer
func (lb *LogBuffer) Append(line LogLine) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if len(lb.lines) >= lb.maxLines {
		// Remove oldest line
		copy(lb.lines, lb.lines[1:])
		lb.lines = lb.lines[:len(lb.lines)-1]
	}
	lb.lines = append(lb.lines, line)
}

// GetAll returns all lines in the buffer
func (lb *LogBuffer) GetAll() []LogLine {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	result := make([]LogLine, len(lb.lines))
	copy(result, lb.lines)
	return result
}

// GetLast returns the last n lines
func (lb *LogBuffer) GetLast(n int) []LogLine {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	if n >= len(lb.lines) {
		result := make([]LogLine, len(lb.lines))
		copy(result, lb.lines)
		return result
	}

	start := len(lb.lines) - n
	result := make([]LogLine, n)
	copy(result, lb.lines[start:])
	return result
}

// Len returns the number of lines in the buffer
func (lb *LogBuffer) Len() int {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	return len(lb.lines)
}
