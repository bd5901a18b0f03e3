package domain

// ChatRequest is the body of POST /chat. SessionID is empty (or null) when
// the client wants a new session started from this message.
type ChatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// StreamEvent is the payload of one data frame on the chat event stream. The
// session id rides along on every frame so a client that started without one
// can pick it up from the first frame it sees.
type StreamEvent struct {
	Text      string `json:"text"`
	SessionID string `json:"sessionId"`
}

// InitDemoResponse is the body of GET /init-demo.
type InitDemoResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
