// Package presence tracks concurrently active viewers via client-driven
// heartbeats. State is process-local: a restart clears all presence, and
// multiple instances each hold their own view. Acceptable for a
// single-instance deployment.
package presence

import (
	"sync"
	"time"

	"github.com/wnelson/dispatch-monitor/internal/models"
)

// DefaultTimeout and DefaultSweepInterval match the dashboard's heartbeat
// cadence: clients ping every ~15s, so 30s of silence means gone.
const (
	DefaultTimeout       = 30 * time.Second
	DefaultSweepInterval = 10 * time.Second
)

type entry struct {
	lastSeen      time.Time
	authenticated bool
	userID        *int64
}

// Tracker is an in-memory registry of recently-seen sessions. The sweep
// goroutine is the sole eviction authority; Leave only shortcuts it.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]entry

	timeout time.Duration
	sweep   time.Duration
	now     func() time.Time

	stop chan struct{}
	done chan struct{}
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// New constructs a stopped Tracker. Non-positive durations fall back to the
// defaults.
func New(timeout, sweepInterval time.Duration, opts ...Option) *Tracker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	t := &Tracker{
		sessions: map[string]entry{},
		timeout:  timeout,
		sweep:    sweepInterval,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start launches the background sweep. Call Stop to end it.
func (t *Tracker) Start() {
	go t.run()
}

// Stop cancels the sweep goroutine and waits for it to exit.
func (t *Tracker) Stop() {
	close(t.stop)
	<-t.done
}

func (t *Tracker) run() {
	defer close(t.done)
	ticker := time.NewTicker(t.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.Sweep()
		case <-t.stop:
			return
		}
	}
}

// Heartbeat inserts or refreshes the session entry and returns the current
// aggregate. The authentication flag is stored as asserted by the caller.
func (t *Tracker) Heartbeat(sessionID string, authenticated bool, userID *int64) models.ActiveUsers {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[sessionID] = entry{
		lastSeen:      t.now(),
		authenticated: authenticated,
		userID:        userID,
	}
	return t.countLocked()
}

// Leave drops a session immediately. Best-effort beacon shortcut; the sweep
// would evict it anyway.
func (t *Tracker) Leave(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, sessionID)
}

// ActiveUsers returns the aggregate without mutating any entry.
func (t *Tracker) ActiveUsers() models.ActiveUsers {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.countLocked()
}

// Sweep evicts every entry whose lastSeen is older than the timeout and
// returns how many were removed.
func (t *Tracker) Sweep() int {
	cutoff := t.now().Add(-t.timeout)
	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for id, e := range t.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(t.sessions, id)
			removed++
		}
	}
	return removed
}

func (t *Tracker) countLocked() models.ActiveUsers {
	var c models.ActiveUsers
	for _, e := range t.sessions {
		c.Total++
		if e.authenticated {
			c.Authenticated++
		} else {
			c.Anonymous++
		}
	}
	return c
}
