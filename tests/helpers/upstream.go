package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tutorlab/socratic-tutor/llm"
)

// NewFakeCompletionServer returns an httptest server that speaks the
// OpenAI-compatible streaming protocol, emitting one chunk per delta and a
// terminal [DONE] marker. It is closed when the test finishes.
func NewFakeCompletionServer(t *testing.T, deltas ...string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)

		for _, delta := range deltas {
			chunk, err := json.Marshal(llm.StreamChunk{
				ID:     "c1",
				Object: "chat.completion.chunk",
				Model:  "gpt-test",
				Choices: []llm.Choice{
					{Index: 0, Delta: &llm.ChatMessage{Role: "assistant", Content: delta}},
				},
			})
			if err != nil {
				t.Errorf("marshal chunk: %v", err)
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", chunk)
			flusher.Flush()
		}

		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))

	t.Cleanup(srv.Close)
	return srv
}

// NewFailingCompletionServer returns an httptest server that rejects every
// completion request with the given status before any delta is emitted.
func NewFailingCompletionServer(t *testing.T, status int) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, `{"error":{"message":"upstream unavailable","type":"upstream_error"}}`)
	}))

	t.Cleanup(srv.Close)
	return srv
}
