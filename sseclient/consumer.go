// Package sseclient consumes the chat event stream emitted by POST /chat.
//
// Delivery is chunk-boundary-insensitive: one framed event may arrive split
// across several reads, or several complete events may arrive in one read
// with a trailing partial. Feed does the pure line reassembly; Consumer
// layers frame parsing, session binding, and text accumulation on top.
package sseclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"
)

// ErrTruncated is returned when the stream ends before the terminal [DONE]
// marker. The accumulated text is unconfirmed and should be discarded.
var ErrTruncated = errors.New("stream ended before terminal marker")

// Event is the payload of one delta frame.
type Event struct {
	Text      string `json:"text"`
	SessionID string `json:"sessionId"`
}

// Feed appends chunk to the carried buffer and splits off every complete
// line. The unterminated trailing remainder is returned as the new buffer to
// carry into the next call; it is never discarded.
func Feed(buf, chunk []byte) ([]byte, []string) {
	data := append(append([]byte(nil), buf...), chunk...)

	var lines []string
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSuffix(string(data[:i]), "\r")
		lines = append(lines, line)
		data = data[i+1:]
	}
	return data, lines
}

// Consumer incrementally reconstructs one assistant reply from the event
// stream of a single turn.
type Consumer struct {
	// OnDelta, if set, is called with each text fragment as it arrives.
	OnDelta func(text string)
	// OnUpdate, if set, is called with the full accumulated text after each
	// fragment. Replacing displayed content with this value is idempotent
	// against re-render.
	OnUpdate func(full string)

	buf       []byte
	text      strings.Builder
	sessionID string
	done      bool
}

// Push feeds one delivered chunk into the consumer. Bytes arriving after the
// terminal marker are ignored.
func (c *Consumer) Push(chunk []byte) {
	if c.done {
		return
	}

	var lines []string
	c.buf, lines = Feed(c.buf, chunk)

	for _, line := range lines {
		if c.done {
			return
		}
		c.consumeLine(line)
	}
}

func (c *Consumer) consumeLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "data: ") {
		return
	}

	data := strings.TrimPrefix(line, "data: ")
	if data == "[DONE]" {
		c.done = true
		return
	}

	var ev Event
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		// A malformed frame is skipped; consumption continues.
		log.Printf("WARN: skipping malformed frame: %v", err)
		return
	}

	// The first session assignment wins; later values are ignored.
	if c.sessionID == "" && ev.SessionID != "" {
		c.sessionID = ev.SessionID
	}

	if ev.Text != "" {
		c.text.WriteString(ev.Text)
		if c.OnDelta != nil {
			c.OnDelta(ev.Text)
		}
		if c.OnUpdate != nil {
			c.OnUpdate(c.text.String())
		}
	}
}

// Run reads the stream to completion. It returns nil once the terminal
// marker has been seen, ErrTruncated when the stream ends without one, and
// the transport error on a failed read. On a non-nil return the caller must
// discard the partial reply rather than present it as complete.
func (c *Consumer) Run(r io.Reader) error {
	chunk := make([]byte, 512)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			c.Push(chunk[:n])
		}
		if c.done {
			return nil
		}
		if err == io.EOF {
			return ErrTruncated
		}
		if err != nil {
			return err
		}
	}
}

// Done reports whether the terminal marker has been received.
func (c *Consumer) Done() bool {
	return c.done
}

// Text returns the accumulated reply text.
func (c *Consumer) Text() string {
	return c.text.String()
}

// SessionID returns the session id bound by the first frame that carried
// one, or empty if none has been seen.
func (c *Consumer) SessionID() string {
	return c.sessionID
}
