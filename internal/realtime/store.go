package realtime

import (
	"sync"

	"github.com/myhostelpal/complaint-service/internal/domain"
)

// Session is one authenticated live connection.
type Session struct {
	ConnID string
	UserID string
	Role   domain.Role
	client *client
}

// SessionStore indexes live sessions by user. At most one session per user is kept.
type SessionStore interface {
	// Register stores s and returns the session it replaced, if any.
	Register(s *Session) *Session
	// Unregister removes the session with connID if it is still the user's current one.
	Unregister(connID string) (*Session, bool)
	Lookup(userID string) (*Session, bool)
	ForEach(fn func(*Session))
}

// MemoryStore is the in-process SessionStore.
type MemoryStore struct {
	mu     sync.RWMutex
	byUser map[string]*Session
	byConn map[string]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byUser: make(map[string]*Session),
		byConn: make(map[string]string),
	}
}

func (m *MemoryStore) Register(s *Session) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	previous := m.byUser[s.UserID]
	if previous != nil {
		delete(m.byConn, previous.ConnID)
	}
	m.byUser[s.UserID] = s
	m.byConn[s.ConnID] = s.UserID
	return previous
}

func (m *MemoryStore) Unregister(connID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID, ok := m.byConn[connID]
	if !ok {
		return nil, false
	}
	delete(m.byConn, connID)
	s := m.byUser[userID]
	if s == nil || s.ConnID != connID {
		return nil, false
	}
	delete(m.byUser, userID)
	return s, true
}

func (m *MemoryStore) Lookup(userID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byUser[userID]
	return s, ok
}

func (m *MemoryStore) ForEach(fn func(*Session)) {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.byUser))
	for _, s := range m.byUser {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		fn(s)
	}
}
