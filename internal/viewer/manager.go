package viewer

import (
	"sync"

	"pdf-view-engine/internal/domain"

	"github.com/google/uuid"
)

// Manager is the registry of live viewer sessions, keyed by generated ID.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	opener   domain.DocumentOpener
	cfg      domain.Config
	logger   domain.Logger
}

// NewManager creates an empty session registry.
func NewManager(opener domain.DocumentOpener, cfg domain.Config, logger domain.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		opener:   opener,
		cfg:      cfg,
		logger:   logger,
	}
}

// Create wires a new session and registers it.
func (m *Manager) Create() *Session {
	session := NewSession(uuid.New().String(), m.opener, m.cfg, m.logger)
	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()
	m.logger.Info("viewer session created", "session_id", session.ID)
	return session
}

// Get looks a session up by ID.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	return session, ok
}

// Close tears down and removes one session.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		session.Close()
	}
	return ok
}

// CloseAll tears down every session; used on server shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
