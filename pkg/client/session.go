package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Session describes a chat session held by the backend.
type Session struct {
	SessionID      uuid.UUID `json:"session_id"`
	MessageCount   int       `json:"message_count"`
	FirstMessageAt Timestamp `json:"first_message_at"`
	LastMessageAt  Timestamp `json:"last_message_at"`
}

// Timestamp accepts RFC 3339 and the backend's zone-less ISO-8601 form,
// which is read as UTC.
type Timestamp struct {
	time.Time
}

const naiveISOLayout = "2006-01-02T15:04:05.999999999"

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}

	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed
		return nil
	}

	parsed, err := time.ParseInLocation(naiveISOLayout, s, time.UTC)
	if err != nil {
		return fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	t.Time = parsed

	return nil
}

// CreateSession starts a new chat session.
func (c *Client) CreateSession(ctx context.Context) (*Session, error) {
	s := &Session{}
	if err := c.doJSON(ctx, http.MethodPost, "/chat/session/new", nil, s); err != nil {
		return nil, err
	}
	return s, nil
}

// GetSession fetches a chat session. An unknown id is a *TransportError
// with StatusCode 404 (see IsNotFound).
func (c *Client) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	s := &Session{}
	if err := c.doJSON(ctx, http.MethodGet, "/chat/session/"+id.String(), nil, s); err != nil {
		return nil, err
	}
	return s, nil
}
