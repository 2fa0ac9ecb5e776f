package client_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frantai/folio/pkg/client"
	"github.com/frantai/folio/pkg/sse"
)

var sessionID = uuid.MustParse("6f1c2a52-8c1e-4a8e-9a61-0d3b1c2e7f10")

func newClient(server *httptest.Server) *client.Client {
	c, err := client.NewClient(client.Config{BaseURL: server.URL}, nil)
	Expect(err).NotTo(HaveOccurred())
	return c
}

// drain pulls every event from a stream.
func drain(s *client.MessageStream) ([]sse.Event, error) {
	var events []sse.Event
	for ev, err := range s.All() {
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
	return events, nil
}

var _ = Describe("NewClient", func() {
	It("requires a backend URL", func() {
		_, err := client.NewClient(client.Config{}, nil)
		Expect(err).To(MatchError(ContainSubstring("required")))
	})

	It("rejects non-HTTP schemes", func() {
		_, err := client.NewClient(client.Config{BaseURL: "ftp://example.com"}, nil)
		Expect(err).To(MatchError(ContainSubstring("http or https")))
	})

	It("normalises the API prefix", func() {
		var gotPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		c, err := client.NewClient(client.Config{BaseURL: server.URL + "/", APIPrefix: "api/v2/"}, nil)
		Expect(err).NotTo(HaveOccurred())

		_, err = c.GetProfile(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(gotPath).To(Equal("/api/v2/profile"))
	})
})

var _ = Describe("Client", func() {
	Describe("GetProfile", func() {
		It("decodes the profile document", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal(http.MethodGet))
				Expect(r.URL.Path).To(Equal("/api/v1/profile"))
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"basics":{"id":1,"full_name":"Ada Lovelace"},"experience":[]}`))
			}))
			defer server.Close()

			p, err := newClient(server).GetProfile(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Basics.FullName).To(Equal("Ada Lovelace"))
		})

		It("reports a server error with its detail", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"detail":"database offline"}`))
			}))
			defer server.Close()

			_, err := newClient(server).GetProfile(context.Background())

			var terr *client.TransportError
			Expect(errors.As(err, &terr)).To(BeTrue())
			Expect(terr.StatusCode).To(Equal(http.StatusServiceUnavailable))
			Expect(terr.Detail).To(Equal("database offline"))
			Expect(terr.Error()).To(Equal("GET /profile: backend returned 503: database offline"))
		})

		It("reports an unreachable backend", func() {
			server := httptest.NewServer(http.NotFoundHandler())
			url := server.URL
			server.Close()

			c, err := client.NewClient(client.Config{BaseURL: url}, nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.GetProfile(context.Background())
			var terr *client.TransportError
			Expect(errors.As(err, &terr)).To(BeTrue())
			Expect(terr.StatusCode).To(BeZero())
			Expect(terr.Err).To(HaveOccurred())
		})
	})

	Describe("sessions", func() {
		It("creates a session", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal(http.MethodPost))
				Expect(r.URL.Path).To(Equal("/api/v1/chat/session/new"))
				fmt.Fprintf(w, `{"session_id":%q,"message_count":0,"first_message_at":"2026-03-01T10:00:00.123456","last_message_at":"2026-03-01T10:00:00.123456"}`, sessionID)
			}))
			defer server.Close()

			s, err := newClient(server).CreateSession(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(s.SessionID).To(Equal(sessionID))
			Expect(s.MessageCount).To(BeZero())
			Expect(s.FirstMessageAt.Time).To(Equal(time.Date(2026, 3, 1, 10, 0, 0, 123456000, time.UTC)))
		})

		It("fetches a session with RFC 3339 timestamps", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/api/v1/chat/session/" + sessionID.String()))
				fmt.Fprintf(w, `{"session_id":%q,"message_count":4,"first_message_at":"2026-03-01T10:00:00Z","last_message_at":"2026-03-01T11:30:00+01:00"}`, sessionID)
			}))
			defer server.Close()

			s, err := newClient(server).GetSession(context.Background(), sessionID)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.MessageCount).To(Equal(4))
			Expect(s.LastMessageAt.UTC()).To(Equal(time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)))
		})

		It("reports an unknown session as not found", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"detail":"Session not found"}`))
			}))
			defer server.Close()

			_, err := newClient(server).GetSession(context.Background(), sessionID)
			Expect(client.IsNotFound(err)).To(BeTrue())
			Expect(err).To(MatchError(ContainSubstring("Session not found")))
		})
	})

	Describe("SendMessage", func() {
		It("posts the message and streams the reply", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal(http.MethodPost))
				Expect(r.URL.Path).To(Equal("/api/v1/chat/message"))
				Expect(r.Header.Get("Content-Type")).To(Equal("application/json"))

				var body map[string]any
				Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
				Expect(body).To(HaveKeyWithValue("message", "Who are you?"))
				Expect(body).To(HaveKeyWithValue("session_id", BeNil()))

				w.Header().Set("Content-Type", "text/event-stream")
				flusher := w.(http.Flusher)
				for _, part := range []string{
					`data: {"session_id":"` + sessionID.String() + `"}` + "\n\n",
					`data: {"tok`, `en":"Hi"}` + "\n\n",
					`data: {"done":true,"response_time_ms":12}` + "\n\n",
				} {
					io.WriteString(w, part)
					flusher.Flush()
				}
			}))
			defer server.Close()

			stream, err := newClient(server).SendMessage(context.Background(), "Who are you?", uuid.Nil)
			Expect(err).NotTo(HaveOccurred())
			defer stream.Close()

			events, err := drain(stream)
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(Equal([]sse.Event{
				sse.SessionEvent{SessionID: sessionID},
				sse.TokenEvent{Token: "Hi"},
				sse.DoneEvent{ResponseTime: 12 * time.Millisecond, HasResponseTime: true},
			}))
		})

		It("sends the held session id", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var body map[string]any
				Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
				Expect(body).To(HaveKeyWithValue("session_id", sessionID.String()))
				io.WriteString(w, "data: {\"done\":true}\n\n")
			}))
			defer server.Close()

			stream, err := newClient(server).SendMessage(context.Background(), "hi", sessionID)
			Expect(err).NotTo(HaveOccurred())
			defer stream.Close()

			events, err := drain(stream)
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(Equal([]sse.Event{sse.DoneEvent{}}))
		})

		It("tees the raw reply when asked", func() {
			const wire = ": hello\ndata: {\"token\":\"a\"}\n\n"
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				io.WriteString(w, wire)
			}))
			defer server.Close()

			var raw bytes.Buffer
			stream, err := newClient(server).SendMessage(context.Background(), "hi", uuid.Nil, sse.WithTee(&raw))
			Expect(err).NotTo(HaveOccurred())
			defer stream.Close()

			_, err = drain(stream)
			Expect(err).NotTo(HaveOccurred())
			Expect(raw.String()).To(Equal(wire))
		})

		It("surfaces a malformed record", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				io.WriteString(w, "data: {\"token\":\"a\"}\n\ndata: {bad json\n\n")
			}))
			defer server.Close()

			stream, err := newClient(server).SendMessage(context.Background(), "hi", uuid.Nil)
			Expect(err).NotTo(HaveOccurred())
			defer stream.Close()

			events, err := drain(stream)
			Expect(events).To(Equal([]sse.Event{sse.TokenEvent{Token: "a"}}))
			var malformed *sse.MalformedPayloadError
			Expect(errors.As(err, &malformed)).To(BeTrue())
		})

		It("reports a body cut off mid-stream as a transport error", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				io.WriteString(w, "data: {\"token\":\"a\"}\n\n")
				w.(http.Flusher).Flush()
				panic(http.ErrAbortHandler)
			}))
			defer server.Close()

			stream, err := newClient(server).SendMessage(context.Background(), "hi", uuid.Nil)
			Expect(err).NotTo(HaveOccurred())
			defer stream.Close()

			events, err := drain(stream)
			Expect(events).To(Equal([]sse.Event{sse.TokenEvent{Token: "a"}}))
			var terr *client.TransportError
			Expect(errors.As(err, &terr)).To(BeTrue())
			Expect(terr.Op).To(Equal("POST /chat/message"))
		})

		It("reports validation failures from the backend", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				w.Write([]byte(`{"detail":[{"loc":["body","message"],"msg":"String should have at most 500 characters"}]}`))
			}))
			defer server.Close()

			_, err := newClient(server).SendMessage(context.Background(), "hi", uuid.Nil)
			var terr *client.TransportError
			Expect(errors.As(err, &terr)).To(BeTrue())
			Expect(terr.StatusCode).To(Equal(http.StatusUnprocessableEntity))
			Expect(terr.Detail).To(Equal("String should have at most 500 characters"))
		})

		Context("validation before any request", func() {
			var hits int
			var server *httptest.Server

			BeforeEach(func() {
				hits = 0
				server = httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { hits++ }))
				DeferCleanup(server.Close)
			})

			It("rejects a blank message", func() {
				_, err := newClient(server).SendMessage(context.Background(), "  \n\t", uuid.Nil)
				Expect(err).To(MatchError(client.ErrEmptyMessage))
				Expect(hits).To(BeZero())
			})

			It("rejects a message longer than the backend allows", func() {
				_, err := newClient(server).SendMessage(context.Background(), strings.Repeat("a", client.MaxMessageLength+1), uuid.Nil)
				Expect(err).To(MatchError(client.ErrMessageTooLong))
				Expect(hits).To(BeZero())
			})

			It("counts runes rather than bytes", func() {
				Expect(client.ValidateMessage(strings.Repeat("ö", client.MaxMessageLength))).To(Succeed())
			})
		})
	})
})
