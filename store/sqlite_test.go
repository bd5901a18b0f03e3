package store

import (
	"context"
	"testing"
	"time"

	"github.com/tutorlab/socratic-tutor/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteUserRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := &domain.User{
		UserID:    "u1",
		Name:      "Alex Chen",
		Email:     "alex.chen@demo.com",
		CreatedAt: time.Now(),
	}
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	got, err := s.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got == nil || got.Name != "Alex Chen" || got.Email != "alex.chen@demo.com" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestSQLiteGetUserAbsent(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetUser(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for absent user, got %+v", got)
	}
}

func TestSQLiteSessionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	session := &domain.Session{
		SessionID: "s1",
		UserID:    "u1",
		Topic:     "Should I start my essay with a quote?",
		CreatedAt: time.Now(),
	}
	if err := s.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	got, err := s.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got == nil || got.UserID != "u1" || got.Topic != session.Topic {
		t.Fatalf("unexpected session: %+v", got)
	}
	if got.Summary != "" {
		t.Fatalf("expected empty summary, got %q", got.Summary)
	}

	absent, err := s.GetSession(ctx, "missing")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if absent != nil {
		t.Fatalf("expected nil for absent session, got %+v", absent)
	}
}

func TestSQLiteMessagesOrderPreserved(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateSession(ctx, &domain.Session{SessionID: "s1", UserID: "u1", Topic: "t", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	contents := []string{"first", "second", "third", "fourth"}
	base := time.Now()
	for i, content := range contents {
		msg := &domain.Message{
			MessageID: "m" + content,
			SessionID: "s1",
			Role:      domain.RoleUser,
			Content:   content,
			CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
		}
		if err := s.AddMessage(ctx, msg); err != nil {
			t.Fatalf("AddMessage failed: %v", err)
		}
	}

	messages, err := s.GetMessages(ctx, "s1")
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(messages) != len(contents) {
		t.Fatalf("expected %d messages, got %d", len(contents), len(messages))
	}
	for i, content := range contents {
		if messages[i].Content != content {
			t.Fatalf("message %d: expected %q, got %q", i, content, messages[i].Content)
		}
	}
}

func TestSQLiteGetMessagesIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateSession(ctx, &domain.Session{SessionID: "s1", UserID: "u1", Topic: "t", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	for i, content := range []string{"a", "b", "c"} {
		msg := &domain.Message{
			MessageID: content,
			SessionID: "s1",
			Role:      domain.RoleUser,
			Content:   content,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Millisecond),
		}
		if err := s.AddMessage(ctx, msg); err != nil {
			t.Fatalf("AddMessage failed: %v", err)
		}
	}

	first, err := s.GetMessages(ctx, "s1")
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	second, err := s.GetMessages(ctx, "s1")
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("expected identical lengths, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].MessageID != second[i].MessageID || first[i].Content != second[i].Content {
			t.Fatalf("re-read diverged at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestSQLiteGetMessagesEmptySession(t *testing.T) {
	s := newTestStore(t)

	messages, err := s.GetMessages(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("expected no messages, got %d", len(messages))
	}
}
