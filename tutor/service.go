// Package tutor implements the conversation turn pipeline: session
// bootstrap, prompt assembly, the streaming completion relay, and
// persistence of the finished turn.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tutorlab/socratic-tutor/config"
	"github.com/tutorlab/socratic-tutor/domain"
	"github.com/tutorlab/socratic-tutor/llm"
	"github.com/tutorlab/socratic-tutor/store"
)

// DefaultUserID is the user all unauthenticated chat turns are recorded
// under. Authentication is handled outside this service.
const DefaultUserID = "default_user"

// ErrEmptyMessage is returned when a turn is submitted without message text.
var ErrEmptyMessage = errors.New("message must not be empty")

// EventSink receives the framed events produced while relaying one turn.
type EventSink interface {
	// Delta delivers one incremental text fragment and the session id.
	Delta(text, sessionID string) error
	// Done marks the end of a successful turn stream.
	Done() error
}

// Service runs conversation turns against the store and the upstream
// completion provider.
type Service struct {
	store store.Store
	llm   *llm.Client
	cfg   *config.Config
}

// New creates a new turn service.
func New(st store.Store, client *llm.Client, cfg *config.Config) *Service {
	return &Service{
		store: st,
		llm:   client,
		cfg:   cfg,
	}
}

// StreamTurn runs one conversation turn: it persists the user message,
// assembles the prompt from the full session history, streams the upstream
// completion through the sink, and persists the accumulated assistant reply
// once the upstream stream ends. It returns the session id the turn ran
// under (freshly created when sessionID was empty).
//
// On upstream or store failure the turn is aborted: no assistant message is
// persisted, Done is never called, and no retry is attempted. The user
// message persisted in step one is kept.
func (s *Service) StreamTurn(ctx context.Context, userID, sessionID, message string, sink EventSink) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	// Resolve the session before any write. A missing id means "start a new
	// session" with the first message as its topic; an unknown supplied id is
	// recreated under the same id so a client holding a stale id after a
	// memory-store restart can keep its conversation key.
	session, err := s.resolveSession(ctx, userID, sessionID, message)
	if err != nil {
		return "", fmt.Errorf("resolve session: %w", err)
	}
	sessionID = session.SessionID

	// Persist the user message first so a crash mid-stream still leaves the
	// user's turn recorded.
	userMsg := &domain.Message{
		MessageID: newMessageID(),
		SessionID: sessionID,
		Role:      domain.RoleUser,
		Content:   message,
		CreatedAt: time.Now(),
	}
	if err := s.store.AddMessage(ctx, userMsg); err != nil {
		return sessionID, fmt.Errorf("persist user message: %w", err)
	}

	history, err := s.store.GetMessages(ctx, sessionID)
	if err != nil {
		return sessionID, fmt.Errorf("load history: %w", err)
	}

	temperature := s.cfg.Temperature
	maxTokens := s.cfg.MaxTokens
	req := &llm.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Messages:    assemblePrompt(history),
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	}

	var reply strings.Builder
	err = s.llm.CreateChatCompletionStream(ctx, req, func(chunk *llm.StreamChunk) error {
		text := chunk.DeltaText()
		if text == "" {
			return nil
		}
		reply.WriteString(text)
		return sink.Delta(text, sessionID)
	})
	if err != nil {
		return sessionID, fmt.Errorf("upstream completion: %w", err)
	}

	// Persist the full reply as a single assistant message, never the deltas.
	if reply.Len() > 0 {
		assistantMsg := &domain.Message{
			MessageID: newMessageID(),
			SessionID: sessionID,
			Role:      domain.RoleAssistant,
			Content:   reply.String(),
			CreatedAt: time.Now(),
		}
		if err := s.store.AddMessage(ctx, assistantMsg); err != nil {
			return sessionID, fmt.Errorf("persist assistant message: %w", err)
		}
	}

	if err := sink.Done(); err != nil {
		return sessionID, err
	}
	return sessionID, nil
}

// resolveSession returns the session the turn runs under, creating one when
// needed.
func (s *Service) resolveSession(ctx context.Context, userID, sessionID, topic string) (*domain.Session, error) {
	if sessionID != "" {
		session, err := s.store.GetSession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if session != nil {
			return session, nil
		}
	} else {
		sessionID = uuid.New().String()
	}

	session := &domain.Session{
		SessionID: sessionID,
		UserID:    userID,
		Topic:     topic,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func newMessageID() string {
	return "msg_" + uuid.New().String()[:8]
}
