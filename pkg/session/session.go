// Package session keeps the current chat session id between runs.
package session

import (
	"sync"

	"github.com/google/uuid"
)

// Store is the key/value contract for the current chat session id.
// Get returns uuid.Nil when no session is held.
type Store interface {
	Get() (uuid.UUID, error)
	Set(id uuid.UUID) error
	Clear() error
	Has() (bool, error)
}

// MemoryStore is a Store that lives for the lifetime of the process.
type MemoryStore struct {
	mu sync.Mutex
	id uuid.UUID
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get() (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, nil
}

func (s *MemoryStore) Set(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = uuid.Nil
	return nil
}

func (s *MemoryStore) Has() (bool, error) {
	id, _ := s.Get()
	return id != uuid.Nil, nil
}
