// Package session keeps short-lived, bounded conversation history per
// session so follow-up questions can reference earlier exchanges.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/raphaelgruber/coursechat-go/internal/models"
)

// DefaultMaxExchanges is the number of user/assistant exchange pairs kept
// per session.
const DefaultMaxExchanges = 2

// Store holds per-session conversation windows in memory. History is
// bounded: only the most recent MaxExchanges user/assistant pairs survive,
// so memory use per session is constant.
type Store struct {
	mu           sync.RWMutex
	sessions     map[string][]models.Turn
	maxExchanges int
}

// NewStore creates a session store keeping maxExchanges recent pairs.
// Non-positive values fall back to DefaultMaxExchanges.
func NewStore(maxExchanges int) *Store {
	if maxExchanges <= 0 {
		maxExchanges = DefaultMaxExchanges
	}
	return &Store{
		sessions:     map[string][]models.Turn{},
		maxExchanges: maxExchanges,
	}
}

// NewID returns a fresh unique session identifier.
func (s *Store) NewID() string {
	return uuid.NewString()
}

// AddExchange appends one completed user/assistant exchange and trims the
// window to the most recent maxExchanges pairs.
func (s *Store) AddExchange(sessionID, question, answer string) {
	if sessionID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	turns := append(s.sessions[sessionID],
		models.Turn{Role: models.RoleUser, Text: question},
		models.Turn{Role: models.RoleAssistant, Text: answer},
	)
	if max := s.maxExchanges * 2; len(turns) > max {
		turns = turns[len(turns)-max:]
	}
	s.sessions[sessionID] = turns
}

// History returns a copy of the session's turns in chronological order.
// Unknown sessions yield nil.
func (s *Store) History(sessionID string) []models.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.sessions[sessionID]
	if len(turns) == 0 {
		return nil
	}
	out := make([]models.Turn, len(turns))
	copy(out, turns)
	return out
}

// Clear removes a session's history.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}
