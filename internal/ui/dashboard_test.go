package ui

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harshul/deploy-helper/internal/router"
)

func TestWindowSendSplitsLines(t *testing.T) {
	ws := NewWorkspace()
	w := ws.Open("build")

	w.Send(router.CommandOutput, "hel")
	w.Send(router.CommandOutput, "lo\r\nworld\n\n")
	w.Send(router.CommandError, "bad\n")

	logs := w.Logs()
	if len(logs) != 4 {
		t.Fatalf("expected 4 lines, got %d: %+v", len(logs), logs)
	}
	if logs[0].Text != "hello" || logs[1].Text != "world" || logs[2].Text != "" {
		t.Errorf("unexpected lines: %q, %q, %q", logs[0].Text, logs[1].Text, logs[2].Text)
	}
	if logs[0].IsError() {
		t.Error("stdout line marked as error")
	}
	if !logs[3].IsError() {
		t.Error("stderr line not marked as error")
	}
}

func TestWindowKeepsBlankLines(t *testing.T) {
	w := NewWorkspace().Open("build")

	w.Send(router.CommandOutput, "usage:\n\n  deploy\n\n")
	w.Send(router.CommandOutput, "")
	w.Flush()

	var got []string
	for _, l := range w.Logs() {
		got = append(got, l.Text)
	}
	want := []string{"usage:", "", "  deploy", ""}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestWindowFlushEmitsPartialLine(t *testing.T) {
	w := NewWorkspace().Open("build")

	w.Send(router.CommandOutput, "no newline")
	if len(w.Logs()) != 0 {
		t.Fatal("partial line should be buffered")
	}

	w.Flush()
	logs := w.Logs()
	if len(logs) != 1 || logs[0].Text != "no newline" {
		t.Errorf("expected flushed partial line, got %+v", logs)
	}
}

func TestClosedWindowDropsOutput(t *testing.T) {
	ws := NewWorkspace()
	w := ws.Open("build")
	ws.Close(w)

	w.Send(router.CommandOutput, "late\n")

	if !w.Closed() {
		t.Error("expected window to be closed")
	}
	if len(w.Logs()) != 0 {
		t.Errorf("closed window kept output: %+v", w.Logs())
	}
	if len(ws.List()) != 0 {
		t.Errorf("expected closed window to be removed, got %d windows", len(ws.List()))
	}
}

func TestNilWindowIsClosed(t *testing.T) {
	var w *Window
	if !w.Closed() {
		t.Error("nil window should report closed")
	}
}

func TestWindowStatus(t *testing.T) {
	w := NewWorkspace().Open("deploy")

	if w.Status() != StatusPending {
		t.Errorf("expected StatusPending, got %s", w.Status())
	}
	if !w.StartTime().IsZero() {
		t.Error("start time set before running")
	}

	w.SetStatus(StatusRunning)
	if w.StartTime().IsZero() {
		t.Error("start time not recorded")
	}

	w.SetStatus(StatusSuccess)
	if w.Status() != StatusSuccess {
		t.Errorf("expected StatusSuccess, got %s", w.Status())
	}
}

func TestWorkspaceRoutesToFocusedWindow(t *testing.T) {
	ws := NewWorkspace()
	first := ws.Open("first")
	second := ws.Open("second")
	r := router.New(ws)

	r.Emit(nil, router.CommandOutput, "a\n")
	ws.Focus(second)
	r.Emit(nil, router.CommandOutput, "b\n")
	ws.Close(second)
	r.Emit(nil, router.CommandOutput, "c\n")

	if got := texts(first.Logs()); got != "a,c" {
		t.Errorf("first window got %q", got)
	}
	if got := texts(second.Logs()); got != "b" {
		t.Errorf("second window got %q", got)
	}
}

func TestWorkspaceWithoutFocusReturnsNilInterface(t *testing.T) {
	ws := NewWorkspace()
	if ws.Focused() != nil {
		t.Error("expected untyped nil when nothing is focused")
	}
}

func TestWorkspaceObserver(t *testing.T) {
	ws := NewWorkspace()

	var lines []string
	var statuses []Status
	changed := 0
	ws.Observe(Observer{
		Line:    func(w *Window, l LogLine) { lines = append(lines, w.Name+":"+l.Text) },
		Status:  func(_ *Window, s Status) { statuses = append(statuses, s) },
		Changed: func() { changed++ },
	})

	w := ws.Open("api")
	w.SetStatus(StatusRunning)
	w.Send(router.CommandOutput, "up\n")

	if strings.Join(lines, ",") != "api:up" {
		t.Errorf("unexpected lines %v", lines)
	}
	if len(statuses) != 1 || statuses[0] != StatusRunning {
		t.Errorf("unexpected statuses %v", statuses)
	}
	if changed != 1 {
		t.Errorf("expected 1 change notification, got %d", changed)
	}
}

func TestLogBuffer(t *testing.T) {
	lb := NewLogBuffer(5)

	for i := 0; i < 3; i++ {
		lb.Append(LogLine{Text: "line"})
	}

	if lb.Len() != 3 {
		t.Errorf("expected length 3, got %d", lb.Len())
	}

	for i := 0; i < 5; i++ {
		lb.Append(LogLine{Text: "overflow"})
	}

	if lb.Len() != 5 {
		t.Errorf("expected max length 5, got %d", lb.Len())
	}

	last := lb.GetLast(2)
	if len(last) != 2 {
		t.Errorf("expected 2 items, got %d", len(last))
	}
	if all := lb.GetAll(); all[0].Text != "overflow" {
		t.Errorf("oldest lines should be dropped, got %q", all[0].Text)
	}
}

func TestNewDashboard(t *testing.T) {
	ws := NewWorkspace()
	ws.Open("one")
	ws.Open("two")

	dashboard := NewDashboard("deploy-helper", ws)

	if dashboard.selectedIndex != 0 {
		t.Errorf("expected selectedIndex 0, got %d", dashboard.selectedIndex)
	}
	if !dashboard.compactMode {
		t.Error("expected compact mode by default")
	}
}

func TestDashboardEnterFocusesSelectedWindow(t *testing.T) {
	ws := NewWorkspace()
	ws.Open("one")
	two := ws.Open("two")

	d := NewDashboard("deploy-helper", ws)
	d.compactMode = false

	d.Update(tea.KeyMsg{Type: tea.KeyDown})
	d.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if ws.FocusedWindow() != two {
		t.Fatalf("expected %q to be focused", two.Name)
	}

	d.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if ws.FocusedWindow() != nil {
		t.Error("escape should clear focus")
	}
}

func TestDashboardQuitCallsOnQuit(t *testing.T) {
	d := NewDashboard("deploy-helper", NewWorkspace())
	calls := 0
	d.onQuit = func() { calls++ }

	_, cmd := d.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})

	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if calls != 1 {
		t.Errorf("expected onQuit once, got %d", calls)
	}
	if !strings.Contains(d.View(), "Shutting down") {
		t.Error("expected shutdown view after quit")
	}
}

func TestDashboardViewShowsWindows(t *testing.T) {
	ws := NewWorkspace()
	w := ws.Open("migrate-db")
	w.SetStatus(StatusError)
	w.Send(router.CommandError, "connection refused\n")

	d := NewDashboard("deploy-helper", ws)
	d.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	compact := d.View()
	if !strings.Contains(compact, "migrate-db") || !strings.Contains(compact, "connection refused") {
		t.Errorf("compact view missing window output:\n%s", compact)
	}

	d.compactMode = false
	full := d.View()
	if !strings.Contains(full, "migrate-db") || !strings.Contains(full, string(StatusError)) {
		t.Errorf("dashboard view missing window entry:\n%s", full)
	}
}

func TestDefaultStyles(t *testing.T) {
	styles := DefaultStyles()
	if styles == nil {
		t.Fatal("DefaultStyles() returned nil")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes uint64
		want  string
	}{
		{500, "500 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1.0 MB"},
		{1024 * 1024 * 1024, "1.0 GB"},
	}

	for _, tt := range tests {
		got := FormatBytes(tt.bytes)
		if got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestPickTemperature(t *testing.T) {
	tests := []struct {
		name     string
		readings []sensorReading
		want     float64
	}{
		{"prefers cpu sensor", []sensorReading{{"nvme", 40}, {"coretemp_package", 55}}, 55},
		{"falls back to plausible reading", []sensorReading{{"battery", 200}, {"pmu tdev1", 48}}, 48},
		{"nothing usable", []sensorReading{{"cpu", 0}}, -1},
	}

	for _, tt := range tests {
		if got := pickTemperature(tt.readings); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRunWithDashboardFallbackPrintsLines(t *testing.T) {
	var out, errOut bytes.Buffer
	ws := NewWorkspace()

	err := RunWithDashboard(context.Background(), DashboardConfig{
		Workspace:    ws,
		FallbackMode: true,
		Out:          &out,
		Err:          &errOut,
	}, func(ctx context.Context, dr *DashboardRunner) error {
		w := dr.Workspace().Open("build")
		w.Send(router.CommandOutput, "compiling\n")
		w.Send(router.CommandError, "warning\n")
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.String() != "[build] compiling\n" {
		t.Errorf("stdout = %q", out.String())
	}
	if errOut.String() != "[build] warning\n" {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestDashboardRunnerStopCancelsContext(t *testing.T) {
	dr := NewDashboardRunner(context.Background(), DashboardConfig{FallbackMode: true})

	done := make(chan error, 1)
	go func() { done <- dr.Start() }()

	deadline := time.Now().Add(time.Second)
	for !dr.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	dr.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
	if dr.Context().Err() == nil {
		t.Error("expected context to be cancelled")
	}
}

func texts(lines []LogLine) string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return strings.Join(out, ",")
}

func TestWindowTail(t *testing.T) {
	w := NewWorkspace().Open("build")
	w.Send(router.CommandOutput, "one\ntwo\nthree\n")

	tail := w.Tail(2)
	if len(tail) != 2 || tail[0].Text != "two" || tail[1].Text != "three" {
		t.Errorf("unexpected tail: %+v", tail)
	}
	if got := w.Tail(10); len(got) != 3 {
		t.Errorf("expected all 3 lines, got %d", len(got))
	}
}

func TestPrintHelpersWriteToWriter(t *testing.T) {
	var buf bytes.Buffer

	PrintBox(&buf, "deploy", nil)
	if buf.Len() != 0 {
		t.Fatalf("empty box should print nothing, got %q", buf.String())
	}

	PrintStep(&buf, 2, 5, "push")
	PrintDivider(&buf)
	PrintBox(&buf, "deploy", []string{"exit status 1"})

	out := buf.String()
	for _, want := range []string{"[2/5]", "push", "─", "deploy", "exit status 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
