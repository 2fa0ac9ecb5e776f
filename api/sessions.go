package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/frantai/folio/pkg/client"
)

// sessionRegistry tracks the chat sessions opened against the preview server.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*client.Session
	now      func() time.Time
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{
		sessions: make(map[uuid.UUID]*client.Session),
		now:      time.Now,
	}
}

// create opens a session with no messages.
func (r *sessionRegistry) create() client.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := client.Timestamp{Time: r.now().UTC()}
	s := &client.Session{
		SessionID:      uuid.New(),
		FirstMessageAt: now,
		LastMessageAt:  now,
	}
	r.sessions[s.SessionID] = s

	return *s
}

func (r *sessionRegistry) get(id uuid.UUID) (client.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return client.Session{}, false
	}
	return *s, true
}

// record counts a completed question and reply.
func (r *sessionRegistry) record(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		s.MessageCount += 2
		s.LastMessageAt = client.Timestamp{Time: r.now().UTC()}
	}
}
