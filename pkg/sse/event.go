// Package sse provides a minimal, purpose-built decoder for the portfolio
// chat stream. The backend answers a chat message with a chunked
// text/event-stream body in which every record is a single line of the form
//
//	data: <JSON>\n
//
// Network chunks are not aligned to those lines, so the Decoder carries any
// unterminated tail forward between calls and only decodes complete lines.
//
// This package intentionally does NOT provide SSE writer or server
// capabilities, nor the multi-line "event:"/"id:" framing of the full SSE
// specification: the chat stream never uses them.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the recognized Event shapes.
type Kind string

const (
	KindSession Kind = "session"
	KindToken   Kind = "token"
	KindDone    Kind = "done"
	KindError   Kind = "error"
)

// Event is a single decoded record from the chat stream. The set of
// implementations is closed: SessionEvent, TokenEvent, DoneEvent and
// ErrorEvent.
type Event interface {
	Kind() Kind

	isEvent()
}

// SessionEvent announces the chat session the reply belongs to. The backend
// sends it first, before any token.
type SessionEvent struct {
	SessionID uuid.UUID
}

// TokenEvent carries one incremental piece of the assistant reply.
type TokenEvent struct {
	Token string
}

// DoneEvent marks the end of the assistant reply.
type DoneEvent struct {
	// ResponseTime is the backend-measured generation time. Only meaningful
	// when HasResponseTime is set.
	ResponseTime    time.Duration
	HasResponseTime bool
}

// ErrorEvent is sent by the backend in place of the remaining tokens when
// reply generation fails mid-stream.
type ErrorEvent struct {
	Message string
}

func (SessionEvent) Kind() Kind { return KindSession }
func (TokenEvent) Kind() Kind   { return KindToken }
func (DoneEvent) Kind() Kind    { return KindDone }
func (ErrorEvent) Kind() Kind   { return KindError }

func (SessionEvent) isEvent() {}
func (TokenEvent) isEvent()   {}
func (DoneEvent) isEvent()    {}
func (ErrorEvent) isEvent()   {}
