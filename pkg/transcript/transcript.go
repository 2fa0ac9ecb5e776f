// Package transcript records finished chat exchanges locally so past
// conversations can be listed and replayed with folio history.
package transcript

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Exchange is one question and the reply it received.
type Exchange struct {
	// ID is assigned by the driver on Put.
	ID int64

	SessionID uuid.UUID
	Question  string
	Answer    string

	// ResponseTime is the backend-reported generation time, 0 when unknown.
	ResponseTime time.Duration

	// Failed marks replies that ended in an error. Answer then holds
	// whatever text arrived before the failure.
	Failed bool

	CreatedAt time.Time
}

// SessionSummary aggregates the exchanges recorded for one session.
type SessionSummary struct {
	SessionID uuid.UUID
	Exchanges int
	FirstAt   time.Time
	LastAt    time.Time
}

// Driver defines the interface for persisting and reading exchanges.
type Driver interface {
	// Put stores an exchange and sets its ID. A zero CreatedAt is set to
	// the current time.
	Put(ctx context.Context, ex *Exchange) error

	// List returns a session's exchanges, oldest first. Returns ErrNotFound
	// when nothing was recorded for the session.
	List(ctx context.Context, sessionID uuid.UUID) ([]*Exchange, error)

	// Sessions returns one summary per recorded session, most recently
	// active first.
	Sessions(ctx context.Context) ([]SessionSummary, error)

	// Close closes the store and releases any resources.
	Close() error
}
