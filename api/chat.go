package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tutorlab/socratic-tutor/domain"
	"github.com/tutorlab/socratic-tutor/tutor"
)

// Chat runs one conversation turn and streams the assistant reply back as
// server-sent events.
// POST /chat
func (h *Handler) Chat(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing message"})
	}

	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "streaming not supported"})
	}

	// The response stays uncommitted until the first event so failures before
	// any output can still surface as a plain 500.
	sink := &sseSink{res: c.Response(), flusher: flusher}

	if _, err := h.svc.StreamTurn(ctx, tutor.DefaultUserID, req.SessionID, req.Message, sink); err != nil {
		log.Printf("ERROR: chat turn failed: %v", err)
		if !sink.started {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		// Mid-stream failure: terminate the connection without the [DONE]
		// marker so the client discards the partial turn.
		return err
	}

	return nil
}

// sseSink writes turn events to the response as server-sent events. The
// header is written lazily on the first event.
type sseSink struct {
	res     *echo.Response
	flusher http.Flusher
	started bool
}

func (s *sseSink) start() {
	s.res.Header().Set(echo.HeaderContentType, "text/event-stream")
	s.res.Header().Set("Cache-Control", "no-cache")
	s.res.Header().Set("Connection", "keep-alive")
	s.res.WriteHeader(http.StatusOK)
	s.started = true
}

// Delta emits one framed delta event.
func (s *sseSink) Delta(text, sessionID string) error {
	if !s.started {
		s.start()
	}
	data, err := json.Marshal(domain.StreamEvent{Text: text, SessionID: sessionID})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.res, "data: %s\n\n", data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Done emits the terminal marker.
func (s *sseSink) Done() error {
	if !s.started {
		s.start()
	}
	if _, err := fmt.Fprint(s.res, "data: [DONE]\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
