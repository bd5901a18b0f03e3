// Package api provides the HTTP handlers for the tutor server.
package api

import (
	"github.com/labstack/echo/v4"

	"github.com/tutorlab/socratic-tutor/store"
	"github.com/tutorlab/socratic-tutor/tutor"
)

// Handler handles HTTP requests.
type Handler struct {
	svc   *tutor.Service
	store store.Store
}

// NewHandler creates a new API handler.
func NewHandler(svc *tutor.Service, st store.Store) *Handler {
	return &Handler{
		svc:   svc,
		store: st,
	}
}

// RegisterRoutes registers all API routes.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/chat", h.Chat)
	e.GET("/init-demo", h.InitDemo)
	e.GET("/sessions/:session_id", h.GetSession)
	e.GET("/sessions/:session_id/messages", h.GetSessionMessages)
}
