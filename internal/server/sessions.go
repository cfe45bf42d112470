package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tracewire/tracewire/pkg/diagram"
	"github.com/tracewire/tracewire/pkg/editor"
	twerrors "github.com/tracewire/tracewire/pkg/errors"
)

// sessionEntry pairs an editing session with its idle-expiry bookkeeping.
type sessionEntry struct {
	id       string
	session  *editor.Session
	lastSeen time.Time
}

// sessionManager owns the live editing sessions. Sessions are created per
// client, capped at maxSessions, and reaped after idle TTL.
type sessionManager struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry

	maxSessions int
	ttl         time.Duration
	now         func() time.Time

	done chan struct{}
}

func newSessionManager(maxSessions int, ttl time.Duration) *sessionManager {
	return &sessionManager{
		entries:     make(map[string]*sessionEntry),
		maxSessions: maxSessions,
		ttl:         ttl,
		now:         time.Now,
		done:        make(chan struct{}),
	}
}

// create opens a session over the given layout and returns its id.
func (m *sessionManager) create(layout diagram.Layout) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) >= m.maxSessions {
		return "", twerrors.New(twerrors.ErrCodeSessionLimitReached,
			"session limit reached (%d)", m.maxSessions)
	}

	id := uuid.NewString()
	d, _ := diagram.ImportLayout(layout)
	m.entries[id] = &sessionEntry{
		id:       id,
		session:  editor.NewSession(d, editor.WithName(id)),
		lastSeen: m.now(),
	}
	return id, nil
}

// get returns the session and refreshes its idle clock.
func (m *sessionManager) get(id string) (*editor.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, twerrors.New(twerrors.ErrCodeSessionNotFound, "session %s not found", id)
	}
	e.lastSeen = m.now()
	return e.session, nil
}

// replace swaps the session's diagram for the given layout, dropping the
// undo history. Used when loading a version snapshot.
func (m *sessionManager) replace(id string, layout diagram.Layout) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return twerrors.New(twerrors.ErrCodeSessionNotFound, "session %s not found", id)
	}
	d, _ := diagram.ImportLayout(layout)
	e.session = editor.NewSession(d, editor.WithName(id))
	e.lastSeen = m.now()
	return nil
}

// delete closes a session. Deleting a missing session is not an error.
func (m *sessionManager) delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[id]; ok {
		e.session.Flush()
		delete(m.entries, id)
	}
}

// count returns the number of live sessions.
func (m *sessionManager) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// reap drops sessions idle past the TTL and returns how many were dropped.
func (m *sessionManager) reap() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.ttl)
	var dropped int
	for id, e := range m.entries {
		if e.lastSeen.Before(cutoff) {
			delete(m.entries, id)
			dropped++
		}
	}
	return dropped
}

// startJanitor reaps idle sessions in the background until close.
func (m *sessionManager) startJanitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.reap()
			case <-m.done:
				return
			}
		}
	}()
}

// close stops the janitor.
func (m *sessionManager) close() {
	select {
	case <-m.done:
	default:
		close(m.done)
	}
}
