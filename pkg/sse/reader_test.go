package sse

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing/iotest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// collect drains s and returns its events and the terminating error.
func collect(s *Stream) ([]Event, error) {
	var events []Event
	for {
		ev, err := s.Next()
		if err != nil {
			return events, err
		}
		if ev == nil {
			return events, nil
		}
		events = append(events, ev)
	}
}

var _ = Describe("Stream", func() {
	Describe("Next", func() {
		It("decodes a full chat reply", func() {
			s := NewStream(strings.NewReader(sampleStream))

			events, err := collect(s)
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(Equal(sampleEvents))
		})

		It("keeps returning nil after exhaustion", func() {
			s := NewStream(strings.NewReader("data: {\"token\":\"a\"}\n"))

			ev, err := s.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev).To(Equal(TokenEvent{Token: "a"}))

			for range 3 {
				ev, err = s.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev).To(BeNil())
			}
		})

		It("decodes identically when the source returns one byte per read", func() {
			s := NewStream(iotest.OneByteReader(strings.NewReader(sampleStream)))

			events, err := collect(s)
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(Equal(sampleEvents))
		})

		It("decodes identically with a tiny read size", func() {
			s := NewStream(strings.NewReader(sampleStream), WithReadSize(7))

			events, err := collect(s)
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(Equal(sampleEvents))
		})

		It("yields a final record that lacks its newline", func() {
			s := NewStream(strings.NewReader("data: {\"token\":\"a\"}\ndata: {\"done\":true}"))

			events, err := collect(s)
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(Equal([]Event{TokenEvent{Token: "a"}, DoneEvent{}}))
		})

		It("returns nil on empty input", func() {
			s := NewStream(strings.NewReader(""))

			ev, err := s.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev).To(BeNil())
		})

		It("returns nil on input with only blank lines and comments", func() {
			s := NewStream(strings.NewReader("\n\n: ping\n\n"))

			ev, err := s.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev).To(BeNil())
		})

		It("delivers events preceding a malformed line before the error", func() {
			s := NewStream(strings.NewReader("data: {\"token\":\"a\"}\ndata: {oops\ndata: {\"token\":\"b\"}\n"))

			ev, err := s.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev).To(Equal(TokenEvent{Token: "a"}))

			_, err = s.Next()
			var malformed *MalformedPayloadError
			Expect(errors.As(err, &malformed)).To(BeTrue())
			Expect(malformed.Line).To(Equal("data: {oops"))

			_, again := s.Next()
			Expect(again).To(BeIdenticalTo(err))
		})

		It("surfaces source read errors", func() {
			boom := errors.New("connection reset")
			src := io.MultiReader(strings.NewReader("data: {\"token\":\"a\"}\n"), iotest.ErrReader(boom))
			s := NewStream(src)

			events, err := collect(s)
			Expect(events).To(Equal([]Event{TokenEvent{Token: "a"}}))
			Expect(err).To(MatchError(boom))
		})

		It("passes decoder options through", func() {
			s := NewStream(strings.NewReader("data: {\"token\":\"abcdefghijklmnop\"}\n"),
				WithDecoderOptions(WithMaxLineSize(8)))

			_, err := s.Next()
			Expect(err).To(MatchError(ErrLineTooLong))
		})
	})

	Describe("All", func() {
		It("ranges over every event", func() {
			s := NewStream(strings.NewReader(sampleStream))

			var events []Event
			for ev, err := range s.All() {
				Expect(err).NotTo(HaveOccurred())
				events = append(events, ev)
			}
			Expect(events).To(Equal(sampleEvents))
		})

		It("stops early when the loop breaks", func() {
			s := NewStream(strings.NewReader(sampleStream))

			for ev, err := range s.All() {
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Kind()).To(Equal(KindSession))
				break
			}

			ev, err := s.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev).To(Equal(TokenEvent{Token: "Hel"}))
		})

		It("yields the error last", func() {
			s := NewStream(strings.NewReader("data: {\"token\":\"a\"}\ndata: nope\n"))

			var kinds []Kind
			var last error
			for ev, err := range s.All() {
				if err != nil {
					last = err
					continue
				}
				kinds = append(kinds, ev.Kind())
			}
			Expect(kinds).To(Equal([]Kind{KindToken}))
			Expect(last).To(HaveOccurred())
		})
	})

	Context("verbatim byte forwarding", func() {
		It("tees every raw byte to the destination", func() {
			var dst bytes.Buffer
			s := NewStream(strings.NewReader(sampleStream), WithTee(&dst), WithReadSize(5))

			_, err := collect(s)
			Expect(err).NotTo(HaveOccurred())
			Expect(dst.String()).To(Equal(sampleStream))
		})

		It("preserves comment lines in dst output", func() {
			input := ": comment\ndata: {\"token\":\"hello\"}\n\n"
			var dst bytes.Buffer
			s := NewStream(strings.NewReader(input), WithTee(&dst))

			_, err := collect(s)
			Expect(err).NotTo(HaveOccurred())
			Expect(dst.String()).To(Equal(input))
		})

		It("stops when the tee destination fails", func() {
			s := NewStream(strings.NewReader(sampleStream), WithTee(failingWriter{}))

			_, err := s.Next()
			Expect(err).To(MatchError("disk full"))
		})
	})
})

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}
