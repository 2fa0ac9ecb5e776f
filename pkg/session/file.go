package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/frantai/folio/pkg/dotdir"
)

// ErrInvalidStoredID is returned when session.json holds something that is
// not a UUID.
var ErrInvalidStoredID = errors.New("stored session id is not a valid UUID")

// FileStore persists the session id to session.json in the .folio/ directory.
type FileStore struct {
	manager *dotdir.Manager
	dir     string
	now     func() time.Time
}

// NewFileStore returns a FileStore rooted at dir. An empty dir resolves the
// usual ./.folio then ~/.folio locations.
func NewFileStore(dir string) *FileStore {
	return &FileStore{
		manager: dotdir.NewManager(),
		dir:     dir,
		now:     time.Now,
	}
}

func (s *FileStore) Get() (uuid.UUID, error) {
	state, err := s.manager.LoadSessionState(s.dir)
	if err != nil {
		return uuid.Nil, err
	}
	if state == nil || state.SessionID == "" {
		return uuid.Nil, nil
	}

	id, err := uuid.Parse(state.SessionID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidStoredID, state.SessionID)
	}

	return id, nil
}

func (s *FileStore) Set(id uuid.UUID) error {
	if id == uuid.Nil {
		return s.Clear()
	}

	return s.manager.SaveSessionState(&dotdir.SessionState{
		SessionID: id.String(),
		UpdatedAt: s.now().UTC(),
	}, s.dir)
}

func (s *FileStore) Clear() error {
	return s.manager.ClearSessionState(s.dir)
}

func (s *FileStore) Has() (bool, error) {
	id, err := s.Get()
	if err != nil {
		return false, err
	}
	return id != uuid.Nil, nil
}
