package api

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tutorlab/socratic-tutor/domain"
)

// InitDemo idempotently ensures the fixed demo user exists.
// GET /init-demo
func (h *Handler) InitDemo(c echo.Context) error {
	created, err := h.svc.EnsureDemoUser(c.Request().Context())
	if err != nil {
		log.Printf("ERROR: failed to initialize demo user: %v", err)
		return c.JSON(http.StatusInternalServerError, domain.InitDemoResponse{
			Success: false,
			Error:   "Failed to initialize demo user",
		})
	}

	message := "Demo user already exists"
	if created {
		message = "Demo user initialized"
	}
	return c.JSON(http.StatusOK, domain.InitDemoResponse{
		Success: true,
		Message: message,
	})
}
