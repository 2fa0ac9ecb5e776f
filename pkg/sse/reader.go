package sse

import (
	"errors"
	"io"
	"iter"
)

const defaultReadSize = 4 * 1024

// Stream is a pull-based iterator of Events over a response body.
// It reads raw chunks from a source io.Reader, feeds them to its own
// Decoder, and optionally writes every raw byte verbatim to a tee
// destination.
//
// ┌──────────────────┐
// │ source io.Reader │
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐   ┌────────────────────┐
// │  Stream.Next()   │──▶│ tee io.Writer (opt)│
// └──────────────────┘   └────────────────────┘
// │
// ▼
// ┌──────────────────┐
// │      Event       │
// └──────────────────┘
//
// Decoding itself never blocks; Next only blocks inside the source Read.
type Stream struct {
	src  io.Reader
	tee  io.Writer
	dec  *Decoder
	rbuf []byte

	// pending holds decoded events not yet handed out by Next.
	pending []Event
	err     error
	done    bool
}

// StreamOption configures a Stream created with NewStream.
type StreamOption func(*streamConfig)

type streamConfig struct {
	tee        io.Writer
	readSize   int
	decoderOps []DecoderOption
}

// WithTee writes every raw byte read from the source to w.
func WithTee(w io.Writer) StreamOption {
	return func(c *streamConfig) {
		c.tee = w
	}
}

// WithReadSize sets the size of each source read. Defaults to 4 KiB.
func WithReadSize(n int) StreamOption {
	return func(c *streamConfig) {
		if n > 0 {
			c.readSize = n
		}
	}
}

// WithDecoderOptions passes options through to the underlying Decoder.
func WithDecoderOptions(opts ...DecoderOption) StreamOption {
	return func(c *streamConfig) {
		c.decoderOps = append(c.decoderOps, opts...)
	}
}

// NewStream returns a Stream that decodes events from src.
func NewStream(src io.Reader, opts ...StreamOption) *Stream {
	c := &streamConfig{
		readSize: defaultReadSize,
	}
	for _, opt := range opts {
		opt(c)
	}

	return &Stream{
		src:  src,
		tee:  c.tee,
		dec:  NewDecoder(c.decoderOps...),
		rbuf: make([]byte, c.readSize),
	}
}

// Next returns the next decoded event. It blocks until an event is
// available, the source is exhausted, or an error occurs.
// Next returns nil, nil when the source is exhausted.
//
// Events decoded before a failing line are returned first; the error is
// returned by the following call and on every call after it.
func (s *Stream) Next() (Event, error) {
	for {
		if len(s.pending) > 0 {
			ev := s.pending[0]
			s.pending = s.pending[1:]
			return ev, nil
		}

		if s.err != nil {
			return nil, s.err
		}
		if s.done {
			return nil, nil
		}

		s.fill()
	}
}

// All returns a single-use iterator over the remaining events. Iteration
// stops after the first error, which is yielded with a nil Event.
func (s *Stream) All() iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for {
			ev, err := s.Next()
			if err != nil {
				yield(nil, err)
				return
			}
			if ev == nil {
				return
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

// fill performs one source read and decodes whatever it returned.
func (s *Stream) fill() {
	n, readErr := s.src.Read(s.rbuf)
	if n > 0 {
		chunk := s.rbuf[:n]

		if s.tee != nil {
			if _, err := s.tee.Write(chunk); err != nil {
				s.err = err
				return
			}
		}

		events, err := s.dec.Feed(chunk)
		s.pending = append(s.pending, events...)
		if err != nil {
			s.err = err
			return
		}
	}

	switch {
	case errors.Is(readErr, io.EOF):
		events, err := s.dec.Finalize()
		s.pending = append(s.pending, events...)
		s.done = true
		if err != nil {
			s.err = err
		}
	case readErr != nil:
		s.err = readErr
	}
}
