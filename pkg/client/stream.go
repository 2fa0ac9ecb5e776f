package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/frantai/folio/pkg/sse"
)

// messageRequest is the request body of the chat message route.
type messageRequest struct {
	Message   string     `json:"message"`
	SessionID *uuid.UUID `json:"session_id"`
}

// MessageStream is an in-flight streamed chat reply. Callers pull events
// with Next or All and must Close it.
type MessageStream struct {
	*sse.Stream

	body io.Closer
}

// Close releases the response body. Closing before the stream is exhausted
// abandons the reply.
func (m *MessageStream) Close() error {
	return m.body.Close()
}

// ValidateMessage applies the backend's message rules before any I/O.
func ValidateMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return ErrEmptyMessage
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// SendMessage posts a chat message and returns the streamed reply.
// A nil sessionID asks the backend to open a new session, whose id arrives
// as the first event.
func (c *Client) SendMessage(ctx context.Context, message string, sessionID uuid.UUID, opts ...sse.StreamOption) (*MessageStream, error) {
	if err := ValidateMessage(message); err != nil {
		return nil, err
	}

	body := messageRequest{Message: message}
	if sessionID != uuid.Nil {
		body.SessionID = &sessionID
	}

	resp, err := c.do(ctx, http.MethodPost, "/chat/message", body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("streaming reply",
		zap.Stringer("session_id", sessionID),
		zap.String("content_type", resp.Header.Get("Content-Type")),
	)

	src := &transportReader{op: http.MethodPost + " /chat/message", r: resp.Body}

	return &MessageStream{
		Stream: sse.NewStream(src, opts...),
		body:   resp.Body,
	}, nil
}

// transportReader reports body read failures as *TransportError.
type transportReader struct {
	op string
	r  io.Reader
}

func (t *transportReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, &TransportError{Op: t.op, Err: err}
	}
	return n, err
}
