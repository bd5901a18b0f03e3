package store

import (
	"context"
	"sync"

	"github.com/tutorlab/socratic-tutor/domain"
)

// MemoryStore implements Store with in-process maps. State lives only for
// the lifetime of the process. The store is an explicit instance constructed
// at startup and passed to handlers, not ambient package-level state.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]domain.User
	sessions map[string]domain.Session
	// messages preserves insertion order per session, which is the
	// chronological order the prompt is assembled from.
	messages map[string][]domain.Message
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]domain.User),
		sessions: make(map[string]domain.Session),
		messages: make(map[string][]domain.Message),
	}
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// CreateUser creates a new user.
func (s *MemoryStore) CreateUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.UserID] = *user
	return nil
}

// GetUser retrieves a user by ID.
func (s *MemoryStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// CreateSession creates a new session.
func (s *MemoryStore) CreateSession(ctx context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.SessionID] = *session
	return nil
}

// GetSession retrieves a session by ID.
func (s *MemoryStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

// AddMessage appends a message to a session's log.
func (s *MemoryStore) AddMessage(ctx context.Context, message *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[message.SessionID] = append(s.messages[message.SessionID], *message)
	return nil
}

// GetMessages retrieves all messages for a session in insertion order.
func (s *MemoryStore) GetMessages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.messages[sessionID]
	if len(stored) == 0 {
		return nil, nil
	}
	messages := make([]domain.Message, len(stored))
	copy(messages, stored)
	return messages, nil
}
