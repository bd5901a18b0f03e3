// Package domain defines the core domain models for the tutoring service.
package domain

import "time"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// User represents a registered (or demo-bootstrapped) user. Users are
// created once and never mutated.
type User struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Session represents one ongoing conversation. The session id is assigned at
// creation time and is the sole correlation key between client and server.
type Session struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Topic     string    `json:"topic"`
	CreatedAt time.Time `json:"created_at"`
	Summary   string    `json:"summary,omitempty"`
}

// Message is a single persisted message in a session. Messages are
// append-only and ordered by creation time.
type Message struct {
	MessageID string    `json:"message_id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"` // user, assistant
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
