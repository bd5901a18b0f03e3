package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tutorlab/socratic-tutor/config"
	"github.com/tutorlab/socratic-tutor/domain"
	"github.com/tutorlab/socratic-tutor/llm"
	"github.com/tutorlab/socratic-tutor/store"
)

// captureSink records every event the relay emits.
type captureSink struct {
	deltas     []string
	sessionIDs []string
	done       bool
}

func (s *captureSink) Delta(text, sessionID string) error {
	s.deltas = append(s.deltas, text)
	s.sessionIDs = append(s.sessionIDs, sessionID)
	return nil
}

func (s *captureSink) Done() error {
	s.done = true
	return nil
}

// fakeUpstream is an OpenAI-compatible streaming endpoint that records the
// prompts it receives.
type fakeUpstream struct {
	mu       sync.Mutex
	server   *httptest.Server
	deltas   []string
	status   int
	requests []llm.ChatCompletionRequest
}

func newFakeUpstream(t *testing.T, deltas ...string) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{deltas: deltas, status: http.StatusOK}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req llm.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode upstream request: %v", err)
		}
		f.mu.Lock()
		f.requests = append(f.requests, req)
		status := f.status
		f.mu.Unlock()

		if status != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error":{"message":"upstream unavailable","type":"upstream_error"}}`)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		for _, delta := range f.deltas {
			chunk, _ := json.Marshal(llm.StreamChunk{
				Choices: []llm.Choice{{Delta: &llm.ChatMessage{Content: delta}}},
			})
			fmt.Fprintf(w, "data: %s\n\n", chunk)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeUpstream) lastRequest(t *testing.T) llm.ChatCompletionRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatalf("no upstream requests recorded")
	}
	return f.requests[len(f.requests)-1]
}

func newTestService(t *testing.T, upstream *fakeUpstream) (*Service, store.Store) {
	t.Helper()
	cfg := &config.Config{
		Model:         "gpt-4-turbo-preview",
		Temperature:   0.7,
		MaxTokens:     500,
		OpenAIBaseURL: upstream.server.URL,
		LLMTimeout:    time.Second,
	}
	st := store.NewMemoryStore()
	svc := New(st, llm.NewClient(cfg.OpenAIBaseURL, "", cfg.LLMTimeout), cfg)
	return svc, st
}

func TestAssemblePrompt(t *testing.T) {
	history := []domain.Message{
		{Role: domain.RoleUser, Content: "first"},
		{Role: domain.RoleAssistant, Content: "second"},
		{Role: domain.RoleUser, Content: "third"},
	}

	prompt := assemblePrompt(history)
	if len(prompt) != 4 {
		t.Fatalf("expected 4 prompt entries, got %d", len(prompt))
	}
	if prompt[0].Role != domain.RoleSystem || prompt[0].Content != systemPrompt {
		t.Fatalf("expected fixed system directive first, got %+v", prompt[0])
	}
	for i, msg := range history {
		if prompt[i+1].Role != msg.Role || prompt[i+1].Content != msg.Content {
			t.Fatalf("history entry %d altered: %+v", i, prompt[i+1])
		}
	}
}

func TestStreamTurnNewSession(t *testing.T) {
	upstream := newFakeUpstream(t, "Why do you ", "want a quote?")
	svc, st := newTestService(t, upstream)
	ctx := context.Background()

	sink := &captureSink{}
	sessionID, err := svc.StreamTurn(ctx, DefaultUserID, "", "Should I start my essay with a quote?", sink)
	if err != nil {
		t.Fatalf("StreamTurn failed: %v", err)
	}
	if sessionID == "" {
		t.Fatalf("expected a fresh session id")
	}
	if !sink.done {
		t.Fatalf("expected terminal marker")
	}

	session, err := st.GetSession(ctx, sessionID)
	if err != nil || session == nil {
		t.Fatalf("session not persisted: %v", err)
	}
	if session.Topic != "Should I start my essay with a quote?" {
		t.Fatalf("expected topic to be the first message, got %q", session.Topic)
	}

	messages, err := st.GetMessages(ctx, sessionID)
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != domain.RoleUser || messages[1].Role != domain.RoleAssistant {
		t.Fatalf("expected user then assistant, got %q then %q", messages[0].Role, messages[1].Role)
	}

	// The persisted assistant content is exactly the concatenation of the
	// emitted deltas in order.
	if got := strings.Join(sink.deltas, ""); got != messages[1].Content {
		t.Fatalf("frame/persistence mismatch: frames %q vs stored %q", got, messages[1].Content)
	}
	if messages[1].Content != "Why do you want a quote?" {
		t.Fatalf("unexpected assistant content: %q", messages[1].Content)
	}
	for _, sid := range sink.sessionIDs {
		if sid != sessionID {
			t.Fatalf("frame carried wrong session id: %q", sid)
		}
	}
}

func TestStreamTurnAlternation(t *testing.T) {
	upstream := newFakeUpstream(t, "What do you think?")
	svc, st := newTestService(t, upstream)
	ctx := context.Background()

	sessionID := ""
	const turns = 3
	for i := 0; i < turns; i++ {
		sink := &captureSink{}
		sid, err := svc.StreamTurn(ctx, DefaultUserID, sessionID, fmt.Sprintf("turn %d", i), sink)
		if err != nil {
			t.Fatalf("turn %d failed: %v", i, err)
		}
		sessionID = sid
	}

	messages, err := st.GetMessages(ctx, sessionID)
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(messages) != 2*turns {
		t.Fatalf("expected %d messages after %d turns, got %d", 2*turns, turns, len(messages))
	}
	for i, msg := range messages {
		want := domain.RoleUser
		if i%2 == 1 {
			want = domain.RoleAssistant
		}
		if msg.Role != want {
			t.Fatalf("message %d: expected role %q, got %q", i, want, msg.Role)
		}
	}
}

func TestStreamTurnSendsFullHistory(t *testing.T) {
	upstream := newFakeUpstream(t, "And why is that?")
	svc, _ := newTestService(t, upstream)
	ctx := context.Background()

	sink := &captureSink{}
	sessionID, err := svc.StreamTurn(ctx, DefaultUserID, "", "first question", sink)
	if err != nil {
		t.Fatalf("first turn failed: %v", err)
	}
	if _, err := svc.StreamTurn(ctx, DefaultUserID, sessionID, "second question", &captureSink{}); err != nil {
		t.Fatalf("second turn failed: %v", err)
	}

	req := upstream.lastRequest(t)
	if req.Model != "gpt-4-turbo-preview" {
		t.Fatalf("unexpected model: %q", req.Model)
	}
	if req.Temperature == nil || *req.Temperature != 0.7 {
		t.Fatalf("unexpected temperature: %v", req.Temperature)
	}
	if req.MaxTokens == nil || *req.MaxTokens != 500 {
		t.Fatalf("unexpected max tokens: %v", req.MaxTokens)
	}

	// System directive plus the whole history: user, assistant, user.
	if len(req.Messages) != 4 {
		t.Fatalf("expected 4 prompt messages, got %d", len(req.Messages))
	}
	if req.Messages[0].Role != domain.RoleSystem {
		t.Fatalf("expected system message first, got %q", req.Messages[0].Role)
	}
	if req.Messages[3].Content != "second question" {
		t.Fatalf("expected new message last, got %q", req.Messages[3].Content)
	}
}

func TestStreamTurnUpstreamError(t *testing.T) {
	upstream := newFakeUpstream(t)
	upstream.status = http.StatusServiceUnavailable
	svc, st := newTestService(t, upstream)
	ctx := context.Background()

	sink := &captureSink{}
	sessionID, err := svc.StreamTurn(ctx, DefaultUserID, "", "hello", sink)
	if err == nil {
		t.Fatalf("expected error")
	}
	if sink.done {
		t.Fatalf("terminal marker must not be emitted on upstream failure")
	}
	if len(sink.deltas) != 0 {
		t.Fatalf("expected no deltas, got %v", sink.deltas)
	}

	// The user's turn is recorded; no assistant message is.
	messages, err := st.GetMessages(ctx, sessionID)
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(messages) != 1 || messages[0].Role != domain.RoleUser {
		t.Fatalf("expected only the user message, got %+v", messages)
	}
}

func TestStreamTurnEmptyMessage(t *testing.T) {
	upstream := newFakeUpstream(t, "unused")
	svc, _ := newTestService(t, upstream)

	for _, message := range []string{"", "   ", "\n"} {
		sink := &captureSink{}
		_, err := svc.StreamTurn(context.Background(), DefaultUserID, "", message, sink)
		if !errors.Is(err, ErrEmptyMessage) {
			t.Fatalf("message %q: expected ErrEmptyMessage, got %v", message, err)
		}
		if len(sink.deltas) != 0 || sink.done {
			t.Fatalf("message %q: sink must stay untouched", message)
		}
	}

	upstream.mu.Lock()
	defer upstream.mu.Unlock()
	if len(upstream.requests) != 0 {
		t.Fatalf("expected no upstream calls, got %d", len(upstream.requests))
	}
}

func TestStreamTurnReusesSuppliedSession(t *testing.T) {
	upstream := newFakeUpstream(t, "ok")
	svc, st := newTestService(t, upstream)
	ctx := context.Background()

	if err := st.CreateSession(ctx, &domain.Session{SessionID: "existing", UserID: DefaultUserID, Topic: "essays", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	sid, err := svc.StreamTurn(ctx, DefaultUserID, "existing", "more on essays", &captureSink{})
	if err != nil {
		t.Fatalf("StreamTurn failed: %v", err)
	}
	if sid != "existing" {
		t.Fatalf("expected supplied session id to be kept, got %q", sid)
	}

	session, err := st.GetSession(ctx, "existing")
	if err != nil || session == nil {
		t.Fatalf("session lookup failed: %v", err)
	}
	if session.Topic != "essays" {
		t.Fatalf("existing session topic must not change, got %q", session.Topic)
	}
}
