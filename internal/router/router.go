// Package router delivers command output events to a UI window.
package router

// Event channels.
const (
	CommandOutput = "command-output"
	CommandError  = "command-error"
)

// Window is a UI surface that can receive events.
type Window interface {
	Send(channel, payload string)
	Closed() bool
}

// Registry knows the open windows and which one has focus.
type Registry interface {
	// Focused returns the focused window or nil.
	Focused() Window
	// Windows returns the open windows in creation order.
	Windows() []Window
}

// Router picks a delivery target for each event.
type Router struct {
	registry Registry
}

// New returns a Router over registry.
func New(registry Registry) *Router {
	return &Router{registry: registry}
}

// Route returns explicit when it is usable, else the focused window, else the
// first open window, else nil.
func (r *Router) Route(explicit Window) Window {
	if usable(explicit) {
		return explicit
	}
	if r.registry == nil {
		return nil
	}
	if w := r.registry.Focused(); usable(w) {
		return w
	}
	for _, w := range r.registry.Windows() {
		if usable(w) {
			return w
		}
	}
	return nil
}

// Emit routes and delivers one event. It is dropped when no window is open.
func (r *Router) Emit(explicit Window, channel, payload string) {
	if w := r.Route(explicit); w != nil {
		w.Send(channel, payload)
	}
}

// Stdout returns a callback that emits chunks on CommandOutput. The target is
// resolved per chunk so output follows focus changes.
func (r *Router) Stdout(explicit Window) func(string) {
	return func(chunk string) { r.Emit(explicit, CommandOutput, chunk) }
}

// Stderr is Stdout for CommandError.
func (r *Router) Stderr(explicit Window) func(string) {
	return func(chunk string) { r.Emit(explicit, CommandError, chunk) }
}

func usable(w Window) bool {
	return w != nil && !w.Closed()
}
