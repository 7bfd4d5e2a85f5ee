// Package sessionwatch tracks session idleness through a three-state
// machine: active, warning, expired. A monitor measures idle time from the
// last qualifying activity event, holds exactly one pending timer at a time
// (a reset cancels-and-reschedules, never stacks), and fires its expiry
// callback exactly once.
package sessionwatch

import (
	"errors"
	"sync"
	"time"
)

type State int

const (
	// StateActive means the session has seen activity recently.
	StateActive State = iota
	// StateWarning means the warning threshold passed without activity;
	// only an explicit Extend returns the session to active.
	StateWarning
	// StateExpired is terminal; the expiry callback has fired.
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateWarning:
		return "warning"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

var ErrInvalidConfig = errors.New("sessionwatch: warning must be shorter than timeout")

// Config controls monitor timing.
type Config struct {
	// Timeout is the full idle duration after which the session expires.
	Timeout time.Duration
	// Warning is how long before expiry the warning state is entered.
	Warning time.Duration
	// Debounce coalesces high-frequency activity events; a Touch within
	// this window of the previous one is ignored. Zero disables debouncing.
	Debounce time.Duration
}

// Monitor is a single session's idle watcher. All methods are safe for
// concurrent use. Callbacks run on the timer goroutine and must not call
// back into the monitor's mutating methods.
type Monitor struct {
	mu sync.Mutex

	cfg          Config
	state        State
	lastActivity time.Time
	timer        *time.Timer

	onWarning func()
	onExpired func()

	// now is swappable for tests.
	now func() time.Time
}

// New creates a monitor in the active state and starts its idle clock.
// onWarning and onExpired may be nil.
func New(cfg Config, onWarning, onExpired func()) (*Monitor, error) {
	if cfg.Timeout <= 0 || cfg.Warning <= 0 || cfg.Warning >= cfg.Timeout {
		return nil, ErrInvalidConfig
	}

	m := &Monitor{
		cfg:       cfg,
		state:     StateActive,
		onWarning: onWarning,
		onExpired: onExpired,
		now:       time.Now,
	}

	m.mu.Lock()
	m.lastActivity = m.now()
	m.schedule(cfg.Timeout - cfg.Warning)
	m.mu.Unlock()

	return m, nil
}

// State returns the current machine state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Deadline returns when the session will expire absent further activity.
// The zero time is returned once expired.
func (m *Monitor) Deadline() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateExpired {
		return time.Time{}
	}
	return m.lastActivity.Add(m.cfg.Timeout)
}

// Touch records a qualifying activity event and reports whether the idle
// clock moved. In the active state it resets the clock, subject to
// debouncing. In warning and expired it is ignored; leaving warning
// requires an explicit Extend.
func (m *Monitor) Touch() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateActive {
		return false
	}

	now := m.now()
	if m.cfg.Debounce > 0 && now.Sub(m.lastActivity) < m.cfg.Debounce {
		return false
	}

	m.lastActivity = now
	m.schedule(m.cfg.Timeout - m.cfg.Warning)
	return true
}

// Extend returns a warning-state session to active and restarts the full
// idle window. Extending an active session resets the clock unconditionally
// (no debounce). Returns false once expired.
func (m *Monitor) Extend() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateExpired {
		return false
	}

	m.state = StateActive
	m.lastActivity = m.now()
	m.schedule(m.cfg.Timeout - m.cfg.Warning)
	return true
}

// Logout transitions straight to expired and fires the expiry callback.
// Returns false if the monitor had already expired.
func (m *Monitor) Logout() bool {
	m.mu.Lock()
	if m.state == StateExpired {
		m.mu.Unlock()
		return false
	}
	cb := m.expireLocked()
	m.mu.Unlock()

	if cb != nil {
		cb()
	}
	return true
}

// Stop cancels the pending timer without firing any callback. Used when the
// server shuts down or the session is revoked through another path.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.state = StateExpired
}

// schedule replaces the single pending timer. Callers hold m.mu.
func (m *Monitor) schedule(d time.Duration) {
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(d, m.tick)
}

// tick advances the machine when the pending timer fires.
func (m *Monitor) tick() {
	m.mu.Lock()

	var cb func()
	switch m.state {
	case StateActive:
		// The timer may have been scheduled before a late Touch; re-check
		// actual idle time before deciding.
		idle := m.now().Sub(m.lastActivity)
		warnAt := m.cfg.Timeout - m.cfg.Warning
		if idle < warnAt {
			m.schedule(warnAt - idle)
			break
		}
		m.state = StateWarning
		cb = m.onWarning
		m.schedule(m.cfg.Timeout - idle)
	case StateWarning:
		cb = m.expireLocked()
	case StateExpired:
		// Stale timer, nothing to do.
	}

	m.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// expireLocked moves to expired and returns the callback to invoke, nil if
// it already fired. Callers hold m.mu.
func (m *Monitor) expireLocked() func() {
	if m.state == StateExpired {
		return nil
	}
	m.state = StateExpired
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	return m.onExpired
}
