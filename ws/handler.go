// Package ws provides a WebSocket transport for conversation turns,
// mirroring the event stream of POST /chat.
package ws

import (
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/tutorlab/socratic-tutor/tutor"
)

// Message types sent to the client.
const (
	TypeDelta = "delta"
	TypeDone  = "done"
	TypeError = "error"
)

// TurnRequest is one turn submitted over the socket.
type TurnRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// ServerMessage is one framed event sent to the client.
type ServerMessage struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Handler handles WebSocket chat connections.
type Handler struct {
	svc      *tutor.Service
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler.
func NewHandler(svc *tutor.Service) *Handler {
	return &Handler{
		svc: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes registers the WebSocket route.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.HandleChat)
}

// HandleChat upgrades the connection and serves turns sequentially until the
// client disconnects. Turns on one connection are serialized: the next
// request is read only after the previous turn's stream has ended.
func (h *Handler) HandleChat(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("ERROR: failed to upgrade websocket: %v", err)
		return err
	}
	defer conn.Close()

	ctx := c.Request().Context()
	sessionID := ""

	for {
		var req TurnRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("WARN: websocket read failed: %v", err)
			}
			return nil
		}

		if req.SessionID != "" {
			sessionID = req.SessionID
		}
		if strings.TrimSpace(req.Message) == "" {
			if err := conn.WriteJSON(ServerMessage{
				Type:    TypeError,
				Code:    "invalid_request",
				Message: "message must not be empty",
			}); err != nil {
				return nil
			}
			continue
		}

		sink := &wsSink{conn: conn}
		sid, err := h.svc.StreamTurn(ctx, tutor.DefaultUserID, sessionID, req.Message, sink)
		if err != nil {
			log.Printf("ERROR: websocket turn failed: %v", err)
			if writeErr := conn.WriteJSON(ServerMessage{
				Type:    TypeError,
				Code:    "upstream_error",
				Message: "turn failed",
			}); writeErr != nil {
				return nil
			}
			continue
		}
		sessionID = sid
	}
}

// wsSink writes turn events as JSON messages on the socket.
type wsSink struct {
	conn      *websocket.Conn
	sessionID string
}

func (s *wsSink) Delta(text, sessionID string) error {
	s.sessionID = sessionID
	return s.conn.WriteJSON(ServerMessage{
		Type:      TypeDelta,
		Text:      text,
		SessionID: sessionID,
	})
}

func (s *wsSink) Done() error {
	return s.conn.WriteJSON(ServerMessage{
		Type:      TypeDone,
		SessionID: s.sessionID,
	})
}
