// Package inmemory provides a transcript.Driver that keeps exchanges in memory.
package inmemory

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/frantai/folio/pkg/transcript"
)

// Driver implements transcript.Driver using an in-memory map.
type Driver struct {
	// mu is a read write sync mutex for locking the mapping of exchanges
	mu sync.RWMutex

	// sessions maps a session id to its exchanges in insertion order
	sessions map[uuid.UUID][]*transcript.Exchange

	nextID int64
	now    func() time.Time
}

// NewDriver creates a new in-memory transcript store.
func NewDriver() *Driver {
	return &Driver{
		sessions: make(map[uuid.UUID][]*transcript.Exchange),
		now:      time.Now,
	}
}

// Put stores a copy of ex and sets its ID.
func (d *Driver) Put(_ context.Context, ex *transcript.Exchange) error {
	if ex == nil {
		return errors.New("cannot store nil exchange")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	ex.ID = d.nextID
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = d.now()
	}

	stored := *ex
	d.sessions[ex.SessionID] = append(d.sessions[ex.SessionID], &stored)

	return nil
}

// List returns copies of a session's exchanges, oldest first.
func (d *Driver) List(_ context.Context, sessionID uuid.UUID) ([]*transcript.Exchange, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	stored, ok := d.sessions[sessionID]
	if !ok {
		return nil, transcript.ErrNotFound{SessionID: sessionID}
	}

	result := make([]*transcript.Exchange, 0, len(stored))
	for _, ex := range stored {
		cp := *ex
		result = append(result, &cp)
	}

	slices.SortStableFunc(result, func(a, b *transcript.Exchange) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return result, nil
}

// Sessions returns one summary per session, most recently active first.
func (d *Driver) Sessions(_ context.Context) ([]transcript.SessionSummary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]transcript.SessionSummary, 0, len(d.sessions))
	for id, stored := range d.sessions {
		summary := transcript.SessionSummary{
			SessionID: id,
			Exchanges: len(stored),
			FirstAt:   stored[0].CreatedAt,
			LastAt:    stored[0].CreatedAt,
		}
		for _, ex := range stored[1:] {
			if ex.CreatedAt.Before(summary.FirstAt) {
				summary.FirstAt = ex.CreatedAt
			}
			if ex.CreatedAt.After(summary.LastAt) {
				summary.LastAt = ex.CreatedAt
			}
		}
		result = append(result, summary)
	}

	slices.SortFunc(result, func(a, b transcript.SessionSummary) int {
		if c := b.LastAt.Compare(a.LastAt); c != 0 {
			return c
		}
		return cmp.Compare(a.SessionID.String(), b.SessionID.String())
	})

	return result, nil
}

// Close is a no-op for the in-memory store.
func (d *Driver) Close() error {
	return nil
}

var _ transcript.Driver = (*Driver)(nil)
