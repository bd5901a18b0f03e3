package api

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tutorlab/socratic-tutor/domain"
)

// GetSession returns a session by id.
// GET /sessions/:session_id
func (h *Handler) GetSession(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	session, err := h.store.GetSession(ctx, sessionID)
	if err != nil {
		log.Printf("ERROR: failed to get session: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to get session"})
	}
	if session == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	}

	return c.JSON(http.StatusOK, session)
}

// GetSessionMessages returns the full chronological message log for a session.
// GET /sessions/:session_id/messages
func (h *Handler) GetSessionMessages(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	session, err := h.store.GetSession(ctx, sessionID)
	if err != nil {
		log.Printf("ERROR: failed to get session: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to get session"})
	}
	if session == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	}

	messages, err := h.store.GetMessages(ctx, sessionID)
	if err != nil {
		log.Printf("ERROR: failed to get messages: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to get messages"})
	}
	if messages == nil {
		messages = []domain.Message{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"messages": messages,
	})
}
