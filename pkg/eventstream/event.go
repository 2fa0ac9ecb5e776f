// Package eventstream describes the events folio emits after a chat
// exchange is recorded, and the publishers that carry them.
package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/frantai/folio/pkg/transcript"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeExchangeRecorded is emitted after an exchange is stored.
	EventTypeExchangeRecorded = "folio.exchange.recorded"
)

// ExchangeRecordedEvent is a transport-neutral payload for a stored exchange.
type ExchangeRecordedEvent struct {
	SchemaVersion int             `json:"schema_version"`
	EventType     string          `json:"event_type"`
	EventID       string          `json:"event_id"`
	EmittedAt     time.Time       `json:"emitted_at"`
	Source        EventSource     `json:"source"`
	Exchange      ExchangePayload `json:"exchange"`
}

// EventSource identifies the process that recorded the exchange.
type EventSource struct {
	Component string `json:"component"`
	Host      string `json:"host,omitempty"`
}

// ExchangePayload is the wire form of a transcript.Exchange.
type ExchangePayload struct {
	ID             int64     `json:"id"`
	SessionID      uuid.UUID `json:"session_id"`
	Question       string    `json:"question"`
	Answer         string    `json:"answer"`
	ResponseTimeMs int64     `json:"response_time_ms,omitempty"`
	Failed         bool      `json:"failed"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewExchangeRecordedEvent builds a v1 event for ex.
func NewExchangeRecordedEvent(ex *transcript.Exchange, source EventSource) *ExchangeRecordedEvent {
	return &ExchangeRecordedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeExchangeRecorded,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		Exchange: ExchangePayload{
			ID:             ex.ID,
			SessionID:      ex.SessionID,
			Question:       ex.Question,
			Answer:         ex.Answer,
			ResponseTimeMs: ex.ResponseTime.Milliseconds(),
			Failed:         ex.Failed,
			CreatedAt:      ex.CreatedAt.UTC(),
		},
	}
}
