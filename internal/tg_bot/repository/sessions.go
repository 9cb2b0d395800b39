// Package repository provides the storage used by the bot: an in-memory store of live
// conversation sessions and a SQL-backed store of user profiles and work orders.
package repository

import (
	"sync"

	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/models"
)

// SessionStore keeps the active flow session of every user in memory.
// Sessions are lost on restart; users simply start their flow again.
type SessionStore struct {
	sessions map[int64]*models.Session // Active sessions by chat ID
	mu       *sync.RWMutex             // Protects sessions from concurrent access
}

// NewSessionStore creates an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]*models.Session),
		mu:       &sync.RWMutex{},
	}
}

// Get returns a copy of the session of the user, or false if the user has none.
// Callers mutate the copy and Put it back, so a failed step never leaks into the store.
func (s *SessionStore) Get(chatID int64) (*models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[chatID]
	if !ok {
		return nil, false
	}
	return session.Clone(), true
}

// Put stores the session under its user ID, replacing any previous one.
func (s *SessionStore) Put(session *models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.UserID] = session.Clone()
}

// Delete removes the session of the user. It reports whether a session existed.
func (s *SessionStore) Delete(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[chatID]
	delete(s.sessions, chatID)
	return ok
}

// Len returns the number of active sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}
