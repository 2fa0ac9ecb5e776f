package sse

import (
	"errors"
	"fmt"
)

var (
	// ErrDecoderClosed is returned when a Decoder is fed after Finalize, or
	// finalized twice.
	ErrDecoderClosed = errors.New("sse: decoder is closed")

	// ErrLineTooLong is returned when a single line exceeds the decoder's
	// maximum line size.
	ErrLineTooLong = errors.New("sse: line too long")

	// ErrUnrecognizedPayload indicates a payload object carrying none of the
	// known discriminating fields.
	ErrUnrecognizedPayload = errors.New("unrecognized payload")

	// ErrAmbiguousPayload indicates a payload object carrying more than one
	// discriminating field.
	ErrAmbiguousPayload = errors.New("ambiguous payload")
)

// MalformedPayloadError is returned when a "data: " line does not hold a
// valid payload. Line is the offending line without its terminator.
type MalformedPayloadError struct {
	Line string
	Err  error
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("sse: malformed payload in line %q: %v", e.Line, e.Err)
}

func (e *MalformedPayloadError) Unwrap() error {
	return e.Err
}
