package chat

import "errors"

// ErrBusy is returned when a reply is already streaming.
var ErrBusy = errors.New("a reply is already in progress")

// BackendError is a failure the backend reported inside the reply stream.
type BackendError struct {
	Message string
}

func (e *BackendError) Error() string {
	return "backend error: " + e.Message
}
