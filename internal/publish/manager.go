package publish

import (
	"sync"
	"time"

	"github.com/chainms/internal/page"
	"github.com/google/uuid"
)

// DefaultSessionTTL is how long an idle editor session is kept.
const DefaultSessionTTL = time.Hour

// Manager 按浏览器的编辑器 ID 管理发布会话，并回收长时间未使用的会话。
type Manager struct {
	factory func() *Session
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*managedSession
}

type managedSession struct {
	session  *Session
	lastSeen time.Time
}

// NewManager creates sessions with factory and evicts them after ttl of inactivity.
func NewManager(factory func() *Session, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Manager{
		factory:  factory,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*managedSession),
	}
}

// NewEditorID returns a fresh id for a browser.
func NewEditorID() string {
	return uuid.NewString()
}

// Begin binds the browser's session to identity, creating it if needed.
func (m *Manager) Begin(editorID string, identity page.Identity) *Session {
	session := m.Acquire(editorID)
	session.Begin(identity)
	return session
}

// Acquire returns the browser's session, creating it if needed.
func (m *Manager) Acquire(editorID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweepLocked(now)

	entry, ok := m.sessions[editorID]
	if !ok {
		entry = &managedSession{session: m.factory()}
		m.sessions[editorID] = entry
	}
	entry.lastSeen = now
	return entry.session
}

// Lookup returns the browser's session without creating one.
func (m *Manager) Lookup(editorID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[editorID]
	if !ok {
		return nil, false
	}
	entry.lastSeen = m.now()
	return entry.session, true
}

// End drops the browser's session, e.g. on wallet disconnect.
func (m *Manager) End(editorID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, editorID)
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) sweepLocked(now time.Time) {
	for id, entry := range m.sessions {
		if now.Sub(entry.lastSeen) <= m.ttl {
			continue
		}
		// 仍在发布中的会话保留到结束。
		if entry.session.Writing() {
			continue
		}
		delete(m.sessions, id)
	}
}
