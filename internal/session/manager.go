package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/career-path/internal/errs"
)

// Manager is an in-process registry of sessions keyed by uuid. Sessions idle
// for longer than the TTL are evicted by Sweep.
type Manager struct {
	deps Deps
	ttl  time.Duration
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager. A ttl of 0 disables expiry.
func NewManager(deps Deps, ttl time.Duration) *Manager {
	return &Manager{
		deps:     deps,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new empty session.
func (m *Manager) Create() *Session {
	s := New(uuid.NewString(), m.deps)
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s
}

// Get returns a live session.
func (m *Manager) Get(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &errs.NotFoundError{Resource: "session", ID: id, Cause: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, &errs.NotFoundError{Resource: "session", ID: id}
	}
	return s, nil
}

// Delete removes a session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return &errs.NotFoundError{Resource: "session", ID: id}
	}
	delete(m.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep evicts idle sessions and returns how many were removed.
func (m *Manager) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if m.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				log.Printf("[SESSION] Evicted %d idle sessions (%d live)", n, m.Len())
			}
		}
	}
}
