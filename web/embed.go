// Package web embeds the chat frontend.
package web

import (
	"net/http"

	_ "embed"

	"github.com/labstack/echo/v4"
)

//go:embed index.html
var indexHTML []byte

// RegisterRoutes serves the chat page at the root path.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/", func(c echo.Context) error {
		return c.HTMLBlob(http.StatusOK, indexHTML)
	})
}
