package sessionwatch

import "sync"

// Registry tracks one monitor per session id.
type Registry struct {
	mu       sync.Mutex
	monitors map[string]*Monitor
}

func NewRegistry() *Registry {
	return &Registry{monitors: make(map[string]*Monitor)}
}

// Register associates a monitor with a session id, stopping any monitor
// previously registered under the same id.
func (r *Registry) Register(sessionID string, m *Monitor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.monitors[sessionID]; ok {
		old.Stop()
	}
	r.monitors[sessionID] = m
}

// Get returns the monitor for a session id, or nil.
func (r *Registry) Get(sessionID string) *Monitor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.monitors[sessionID]
}

// Touch forwards a qualifying activity event to the session's monitor and
// reports whether the event should be persisted. Unmonitored sessions
// always persist; monitored ones only when the monitor accepted the event
// rather than debouncing it.
func (r *Registry) Touch(sessionID string) bool {
	m := r.Get(sessionID)
	if m == nil {
		return true
	}
	return m.Touch()
}

// Remove stops and forgets the monitor for a session id.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	m, ok := r.monitors[sessionID]
	if ok {
		delete(r.monitors, sessionID)
	}
	r.mu.Unlock()

	if ok {
		m.Stop()
	}
}

// StopAll stops every monitor. Used during graceful shutdown.
func (r *Registry) StopAll() {
	r.mu.Lock()
	monitors := make([]*Monitor, 0, len(r.monitors))
	for _, m := range r.monitors {
		monitors = append(monitors, m)
	}
	r.monitors = make(map[string]*Monitor)
	r.mu.Unlock()

	for _, m := range monitors {
		m.Stop()
	}
}
