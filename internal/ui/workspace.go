package ui

import (
	"sync"

	"github.com/harshul/deploy-helper/internal/router"
)

// Observer is notified about activity in a workspace. Any field may be nil.
type Observer struct {
	Line    func(w *Window, line LogLine)
	Status  func(w *Window, status Status)
	Changed func()
}

// Workspace tracks the open windows in creation order and which one has
// focus. It is the router.Registry for command output.
type Workspace struct {
	mu        sync.RWMutex
	windows   []*Window
	focused   *Window
	nextID    int
	observers []Observer
}

// NewWorkspace creates an empty workspace
func NewWorkspace() *Workspace {
	return &Workspace{}
}

// Observe registers o for line, status and window list changes
func (ws *Workspace) Observe(o Observer) {
	ws.mu.Lock()
	ws.observers = append(ws.observers, o)
	ws.mu.Unlock()
}

// Open creates a new window at the end of the list. It does not take focus.
func (ws *Workspace) Open(name string) *Window {
	ws.mu.Lock()
	ws.nextID++
	w := newWindow(ws.nextID, name)
	w.onLine = ws.emitLine
	w.onStatus = ws.emitStatus
	ws.windows = append(ws.windows, w)
	ws.mu.Unlock()

	ws.emitChanged()
	return w
}

// Close marks w closed and removes it from the workspace
func (ws *Workspace) Close(w *Window) {
	if w == nil {
		return
	}
	w.close()

	ws.mu.Lock()
	for i, existing := range ws.windows {
		if existing == w {
			ws.windows = append(ws.windows[:i], ws.windows[i+1:]...)
			break
		}
	}
	if ws.focused == w {
		ws.focused = nil
	}
	ws.mu.Unlock()

	ws.emitChanged()
}

// Focus gives w the focus. A nil w clears it.
func (ws *Workspace) Focus(w *Window) {
	ws.mu.Lock()
	ws.focused = w
	ws.mu.Unlock()

	ws.emitChanged()
}

// FocusedWindow returns the focused window or nil
func (ws *Workspace) FocusedWindow() *Window {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.focused
}

// List returns the open windows in creation order
func (ws *Workspace) List() []*Window {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	out := make([]*Window, len(ws.windows))
	copy(out, ws.windows)
	return out
}

// Focused implements router.Registry
func (ws *Workspace) Focused() router.Window {
	if w := ws.FocusedWindow(); w != nil {
		return w
	}
	return nil
}

// Windows implements router.Registry
func (ws *Workspace) Windows() []router.Window {
	list := ws.List()
	out := make([]router.Window, len(list))
	for i, w := range list {
		out[i] = w
	}
	return out
}

func (ws *Workspace) snapshotObservers() []Observer {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	out := make([]Observer, len(ws.observers))
	copy(out, ws.observers)
	return out
}

func (ws *Workspace) emitLine(w *Window, line LogLine) {
	for _, o := range ws.snapshotObservers() {
		if o.Line != nil {
			o.Line(w, line)
		}
	}
}

func (ws *Workspace) emitStatus(w *Window, status Status) {
	for _, o := range ws.snapshotObservers() {
		if o.Status != nil {
			o.Status(w, status)
		}
	}
}

func (ws *Workspace) emitChanged() {
	for _, o := range ws.snapshotObservers() {
		if o.Changed != nil {
			o.Changed()
		}
	}
}
