// Package store defines the conversation storage interface and implementations.
package store

import (
	"context"

	"github.com/tutorlab/socratic-tutor/domain"
)

// Store defines the interface for conversation persistence. Messages are
// append-only; no update or delete operations are exposed. Lookups on an
// unknown id return (nil, nil), never an error — callers decide whether
// absence is fatal.
type Store interface {
	// User operations
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// Session operations
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)

	// Message operations
	AddMessage(ctx context.Context, message *domain.Message) error
	GetMessages(ctx context.Context, sessionID string) ([]domain.Message, error)

	// Lifecycle
	Close() error
}
