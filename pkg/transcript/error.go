package transcript

import (
	"github.com/google/uuid"
)

// ErrNotFound is returned when no exchange exists for a session.
type ErrNotFound struct {
	SessionID uuid.UUID
}

func (e ErrNotFound) Error() string {
	if e.SessionID == uuid.Nil {
		return "session not found"
	}

	return "session not found: " + e.SessionID.String()
}
