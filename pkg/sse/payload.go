package sse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// payload is the wire shape of a record. Exactly one of the discriminating
// fields (session_id, token, done, error) must be present.
type payload struct {
	SessionID      *string `json:"session_id"`
	Token          *string `json:"token"`
	Done           *bool   `json:"done"`
	ResponseTimeMS *int64  `json:"response_time_ms"`
	Error          *string `json:"error"`
}

// decodePayload validates raw against the record schema and returns the
// matching Event.
func decodePayload(raw []byte) (Event, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var p payload
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}

	// Reject trailing garbage after the object.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after payload object")
	}

	present := 0
	for _, set := range []bool{p.SessionID != nil, p.Token != nil, p.Done != nil, p.Error != nil} {
		if set {
			present++
		}
	}

	switch {
	case present == 0:
		return nil, ErrUnrecognizedPayload
	case present > 1:
		return nil, ErrAmbiguousPayload
	}

	if p.ResponseTimeMS != nil && p.Done == nil {
		return nil, errors.New("response_time_ms is only valid with done")
	}

	switch {
	case p.SessionID != nil:
		id, err := uuid.Parse(*p.SessionID)
		if err != nil {
			return nil, fmt.Errorf("invalid session_id: %w", err)
		}
		return SessionEvent{SessionID: id}, nil

	case p.Token != nil:
		return TokenEvent{Token: *p.Token}, nil

	case p.Done != nil:
		if !*p.Done {
			return nil, errors.New("done must be true")
		}

		ev := DoneEvent{}
		if p.ResponseTimeMS != nil {
			if *p.ResponseTimeMS < 0 {
				return nil, fmt.Errorf("negative response_time_ms %d", *p.ResponseTimeMS)
			}
			ev.ResponseTime = time.Duration(*p.ResponseTimeMS) * time.Millisecond
			ev.HasResponseTime = true
		}
		return ev, nil

	default:
		return ErrorEvent{Message: *p.Error}, nil
	}
}
