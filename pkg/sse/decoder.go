package sse

import (
	"bytes"
)

const (
	// Marker prefixes every payload-carrying line.
	Marker = "data: "

	// DefaultMaxLineSize bounds a single line at 1 MiB.
	DefaultMaxLineSize = 1024 * 1024
)

// Decoder incrementally turns raw stream chunks into Events.
//
// A Decoder is Open until Finalize is called, after which it is Closed and
// every further call fails with ErrDecoderClosed. It is not safe for
// concurrent use: chunks must be fed sequentially in arrival order by a
// single goroutine. One Decoder serves exactly one response body.
type Decoder struct {
	// buf holds the bytes after the last newline seen so far.
	buf []byte

	maxLine int
	closed  bool

	// err is sticky: once a line fails to decode the stream is not resynced.
	err error
}

// DecoderOption configures a Decoder created with NewDecoder.
type DecoderOption func(*Decoder)

// WithMaxLineSize bounds the length of a single line. A value <= 0 disables
// the bound.
func WithMaxLineSize(n int) DecoderOption {
	return func(d *Decoder) {
		d.maxLine = n
	}
}

// NewDecoder returns an Open Decoder with an empty line buffer.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{
		maxLine: DefaultMaxLineSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Feed appends chunk to the line buffer and decodes every line the chunk
// completes. The unterminated remainder stays buffered for the next call.
//
// Lines that do not start with Marker are ignored. When a marker line fails
// to decode, Feed returns the events decoded from the preceding lines of the
// same chunk together with a *MalformedPayloadError, and the decoder keeps
// returning that error from then on.
func (d *Decoder) Feed(chunk []byte) ([]Event, error) {
	if d.closed {
		return nil, ErrDecoderClosed
	}
	if d.err != nil {
		return nil, d.err
	}

	d.buf = append(d.buf, chunk...)

	var events []Event
	consumed := 0
	for {
		i := bytes.IndexByte(d.buf[consumed:], '\n')
		if i < 0 {
			break
		}

		line := d.buf[consumed : consumed+i]
		consumed += i + 1

		ev, err := d.decodeLine(line)
		if err != nil {
			d.fail(consumed, err)
			return events, err
		}
		if ev != nil {
			events = append(events, ev)
		}
	}

	d.buf = append(d.buf[:0], d.buf[consumed:]...)

	if d.maxLine > 0 && len(d.buf) > d.maxLine {
		d.fail(len(d.buf), ErrLineTooLong)
		return events, ErrLineTooLong
	}

	return events, nil
}

// Finalize flushes the line buffer at end-of-stream and closes the decoder.
// A buffered marker line without its trailing newline is decoded as a
// complete line; whitespace or any other unterminated content is discarded.
func (d *Decoder) Finalize() ([]Event, error) {
	if d.closed {
		return nil, ErrDecoderClosed
	}
	d.closed = true

	if d.err != nil {
		return nil, d.err
	}

	line := d.buf
	d.buf = nil

	if len(bytes.TrimSpace(line)) == 0 {
		return nil, nil
	}

	ev, err := d.decodeLine(line)
	if err != nil {
		d.err = err
		return nil, err
	}
	if ev == nil {
		return nil, nil
	}
	return []Event{ev}, nil
}

// Buffered returns the number of bytes waiting for a line terminator.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Closed reports whether Finalize has been called.
func (d *Decoder) Closed() bool {
	return d.closed
}

// decodeLine returns the Event carried by line, or nil for lines without the
// marker.
func (d *Decoder) decodeLine(line []byte) (Event, error) {
	line = bytes.TrimSuffix(line, []byte{'\r'})

	if d.maxLine > 0 && len(line) > d.maxLine {
		return nil, ErrLineTooLong
	}

	if !bytes.HasPrefix(line, []byte(Marker)) {
		return nil, nil
	}

	ev, err := decodePayload(line[len(Marker):])
	if err != nil {
		return nil, &MalformedPayloadError{
			Line: string(line),
			Err:  err,
		}
	}
	return ev, nil
}

// fail records err and drops the first consumed bytes of the buffer.
func (d *Decoder) fail(consumed int, err error) {
	d.buf = append(d.buf[:0], d.buf[consumed:]...)
	d.err = err
}
