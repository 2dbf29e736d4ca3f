// Package session holds per-conversation pipeline state in memory and
// serializes access so at most one run mutates a session at a time.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"mediroute/pkg/logx"
	"mediroute/pkg/pipeline"
)

// ErrSessionNotFound is returned when a session id is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

type entry struct {
	state *pipeline.State
	// sem grants exclusive access to the state for the duration of a run.
	sem chan struct{}
	// held mirrors sem ownership under the manager lock so eviction can
	// tell a running session from an idle one without touching the channel.
	held       bool
	lastAccess time.Time
}

// Manager is an in-memory session store with idle-based expiry and a
// capacity bound. Sessions past the TTL are dropped lazily; when the store
// is full the longest-idle unlocked session is evicted.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	max      int
	now      func() time.Time
	logger   *logx.Logger
}

func NewManager(ttl time.Duration, maxSessions int) *Manager {
	return &Manager{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		max:      maxSessions,
		now:      time.Now,
		logger:   logx.NewLogger("session"),
	}
}

// Create registers a new session for the patient and returns its id.
func (m *Manager) Create(patientName string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweepExpiredLocked()
	for len(m.sessions) >= m.max {
		if !m.evictOldestIdleLocked() {
			break
		}
	}

	id := uuid.NewString()
	m.sessions[id] = &entry{
		state:      pipeline.NewState(id, patientName),
		sem:        make(chan struct{}, 1),
		lastAccess: m.now(),
	}
	m.logger.Info("created session %s for %q (%d active)", id, patientName, len(m.sessions))
	return id
}

// Acquire locks the session for exclusive use and returns its state with a
// release function. It blocks while another run holds the session, honoring
// context cancellation.
func (m *Manager) Acquire(ctx context.Context, id string) (*pipeline.State, func(), error) {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if ok && m.expiredLocked(e) {
		delete(m.sessions, id)
		ok = false
	}
	if ok {
		e.lastAccess = m.now()
	}
	m.mu.Unlock()

	if !ok {
		return nil, nil, ErrSessionNotFound
	}

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}

	// The session may have been evicted while this caller was blocked on
	// the semaphore. Re-check membership before handing out the state.
	m.mu.Lock()
	if m.sessions[id] != e {
		m.mu.Unlock()
		<-e.sem
		return nil, nil, ErrSessionNotFound
	}
	e.held = true
	e.lastAccess = m.now()
	m.mu.Unlock()

	release := func() {
		m.mu.Lock()
		e.held = false
		e.lastAccess = m.now()
		m.mu.Unlock()
		<-e.sem
	}
	return e.state, release, nil
}

// Peek returns the session state without locking it. Callers must treat the
// state as read-only.
func (m *Manager) Peek(id string) (*pipeline.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok || m.expiredLocked(e) {
		delete(m.sessions, id)
		return nil, ErrSessionNotFound
	}
	e.lastAccess = m.now()
	return e.state, nil
}

// Count reports the number of live sessions after dropping expired ones.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepExpiredLocked()
	return len(m.sessions)
}

func (m *Manager) expiredLocked(e *entry) bool {
	return !e.held && m.now().Sub(e.lastAccess) > m.ttl
}

func (m *Manager) sweepExpiredLocked() {
	for id, e := range m.sessions {
		if m.expiredLocked(e) {
			delete(m.sessions, id)
			m.logger.Info("expired session %s", id)
		}
	}
}

// evictOldestIdleLocked removes the longest-idle session that is not
// currently locked by a run. Reports whether anything was evicted.
func (m *Manager) evictOldestIdleLocked() bool {
	var oldestID string
	var oldest *entry
	for id, e := range m.sessions {
		if e.held {
			continue // in use, never evict mid-run
		}
		if oldest == nil || e.lastAccess.Before(oldest.lastAccess) {
			oldestID, oldest = id, e
		}
	}
	if oldest == nil {
		return false
	}
	delete(m.sessions, oldestID)
	m.logger.Warn("evicted idle session %s (store at capacity %d)", oldestID, m.max)
	return true
}
