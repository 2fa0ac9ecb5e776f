package chat_test

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
	"sync"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frantai/folio/pkg/chat"
	"github.com/frantai/folio/pkg/client"
	"github.com/frantai/folio/pkg/session"
	"github.com/frantai/folio/pkg/sse"
	"github.com/frantai/folio/pkg/transcript"
)

// fakeBackend serves the chat routes with a canned reply body.
type fakeBackend struct {
	mu       sync.Mutex
	reply    string
	status   int
	release  chan struct{}
	received []map[string]any
	newID    uuid.UUID
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v1/chat/session/new":
		fmt.Fprintf(w, `{"session_id":%q,"message_count":0,"first_message_at":null,"last_message_at":null}`, f.newID)
	case "/api/v1/chat/message":
		var body map[string]any
		Expect(jsonDecode(r.Body, &body)).To(Succeed())
		f.mu.Lock()
		f.received = append(f.received, body)
		f.mu.Unlock()

		if f.status != 0 {
			w.WriteHeader(f.status)
			w.Write([]byte(`{"detail":"nope"}`))
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		if f.release != nil {
			w.(http.Flusher).Flush()
			<-f.release
		}
		w.Write([]byte(f.reply))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeBackend) requests() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.received
}

// recorder collects enqueued exchanges.
type recorder struct {
	mu        sync.Mutex
	exchanges []transcript.Exchange
}

func (r *recorder) Enqueue(ex transcript.Exchange) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exchanges = append(r.exchanges, ex)
	return true
}

func reply(id uuid.UUID, tokens ...string) string {
	var b strings.Builder
	if id != uuid.Nil {
		fmt.Fprintf(&b, "data: {\"session_id\":%q}\n\n", id)
	}
	for _, t := range tokens {
		fmt.Fprintf(&b, "data: {\"token\":%q}\n\n", t)
	}
	b.WriteString("data: {\"done\":true,\"response_time_ms\":420}\n\n")
	return b.String()
}

var _ = Describe("Runner", func() {
	var (
		backend *fakeBackend
		server  *httptest.Server
		store   *session.MemoryStore
		rec     *recorder
		runner  *chat.Runner
		ctx     context.Context
		newID   uuid.UUID
	)

	BeforeEach(func() {
		ctx = context.Background()
		newID = uuid.New()
		backend = &fakeBackend{reply: reply(newID, "Hel", "lo"), newID: uuid.New()}
		server = httptest.NewServer(backend)
		DeferCleanup(server.Close)

		c, err := client.NewClient(client.Config{BaseURL: server.URL}, nil)
		Expect(err).NotTo(HaveOccurred())

		store = session.NewMemoryStore()
		rec = &recorder{}
		runner = chat.NewRunner(c, store, chat.WithRecorder(rec), chat.WithSubject("Ada"))
	})

	It("opens with the greeting", func() {
		msgs := runner.Conversation().Messages()
		Expect(msgs).To(HaveLen(1))
		Expect(msgs[0].Content).To(Equal(chat.Greeting("Ada")))
	})

	Describe("Ask", func() {
		It("streams a reply and adopts the announced session", func() {
			var kinds []sse.Kind
			msg, err := runner.Ask(ctx, "Hi there", func(ev sse.Event) {
				kinds = append(kinds, ev.Kind())
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(msg.Content).To(Equal("Hello"))
			Expect(msg.ResponseTime).To(Equal(420 * time.Millisecond))
			Expect(kinds).To(Equal([]sse.Kind{sse.KindSession, sse.KindToken, sse.KindToken, sse.KindDone}))

			Expect(backend.requests()[0]["session_id"]).To(BeNil())
			Expect(runner.SessionID()).To(Equal(newID))

			Expect(rec.exchanges).To(HaveLen(1))
			Expect(rec.exchanges[0].SessionID).To(Equal(newID))
			Expect(rec.exchanges[0].Question).To(Equal("Hi there"))
			Expect(rec.exchanges[0].Answer).To(Equal("Hello"))
			Expect(rec.exchanges[0].ResponseTime).To(Equal(420 * time.Millisecond))
			Expect(rec.exchanges[0].Failed).To(BeFalse())
		})

		It("sends the held session id and keeps it", func() {
			held := uuid.New()
			Expect(store.Set(held)).To(Succeed())
			backend.reply = reply(uuid.Nil, "ok")

			_, err := runner.Ask(ctx, "again", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(backend.requests()[0]["session_id"]).To(Equal(held.String()))
			Expect(runner.SessionID()).To(Equal(held))
		})

		It("does not replace a held session with an announced one", func() {
			held := uuid.New()
			Expect(store.Set(held)).To(Succeed())

			_, err := runner.Ask(ctx, "again", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(runner.SessionID()).To(Equal(held))
		})

		It("rejects empty input without touching the conversation", func() {
			_, err := runner.Ask(ctx, "   ", nil)
			Expect(err).To(MatchError(client.ErrEmptyMessage))
			Expect(runner.Conversation().Messages()).To(HaveLen(1))
			Expect(backend.requests()).To(BeEmpty())
		})

		It("rejects over-long input", func() {
			_, err := runner.Ask(ctx, strings.Repeat("x", client.MaxMessageLength+1), nil)
			Expect(err).To(MatchError(client.ErrMessageTooLong))
		})

		It("turns an error event into a failed reply", func() {
			backend.reply = fmt.Sprintf("data: {\"session_id\":%q}\n\ndata: {\"token\":\"par\"}\n\ndata: {\"error\":\"model offline\"}\n\n", newID)

			msg, err := runner.Ask(ctx, "hi", nil)
			var backendErr *chat.BackendError
			Expect(errors.As(err, &backendErr)).To(BeTrue())
			Expect(backendErr.Message).To(Equal("model offline"))
			Expect(msg.Content).To(Equal(chat.FailureText))
			Expect(msg.Failed).To(BeTrue())

			Expect(rec.exchanges).To(HaveLen(1))
			Expect(rec.exchanges[0].Failed).To(BeTrue())
			Expect(rec.exchanges[0].Answer).To(Equal("par"))
		})

		It("fails on a malformed line", func() {
			backend.reply = "data: {\"token\":\"a\"}\n\ndata: {broken\n\n"

			msg, err := runner.Ask(ctx, "hi", nil)
			var malformed *sse.MalformedPayloadError
			Expect(errors.As(err, &malformed)).To(BeTrue())
			Expect(msg.Failed).To(BeTrue())
		})

		It("keeps a finished reply when garbage follows done", func() {
			backend.reply = reply(newID, "Hel", "lo") + "data: {bad\n"

			msg, err := runner.Ask(ctx, "hi", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(msg.Content).To(Equal("Hello"))
			Expect(msg.Failed).To(BeFalse())

			Expect(rec.exchanges).To(HaveLen(1))
			Expect(rec.exchanges[0].Answer).To(Equal("Hello"))
			Expect(rec.exchanges[0].Failed).To(BeFalse())
		})

		It("fails on a non-success status", func() {
			backend.status = http.StatusInternalServerError

			msg, err := runner.Ask(ctx, "hi", nil)
			var transportErr *client.TransportError
			Expect(errors.As(err, &transportErr)).To(BeTrue())
			Expect(transportErr.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(msg.Content).To(Equal(chat.FailureText))
			Expect(rec.exchanges).To(BeEmpty())
		})

		It("accepts a reply that ends without done", func() {
			backend.reply = fmt.Sprintf("data: {\"session_id\":%q}\n\ndata: {\"token\":\"cut\"}\n\n", newID)

			msg, err := runner.Ask(ctx, "hi", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(msg.Content).To(Equal("cut"))
			Expect(msg.Streaming).To(BeFalse())
			Expect(msg.ResponseTime).To(BeZero())
		})

		It("rejects a second question while a reply streams", func() {
			backend.release = make(chan struct{})

			done := make(chan error, 1)
			go func() {
				defer GinkgoRecover()
				_, err := runner.Ask(ctx, "first", nil)
				done <- err
			}()

			Eventually(backend.requests).Should(HaveLen(1))
			_, err := runner.Ask(ctx, "second", nil)
			Expect(err).To(MatchError(chat.ErrBusy))

			close(backend.release)
			Eventually(done).Should(Receive(BeNil()))
		})

		It("tees the raw reply", func() {
			var raw bytes.Buffer
			c, err := client.NewClient(client.Config{BaseURL: server.URL}, nil)
			Expect(err).NotTo(HaveOccurred())
			teed := chat.NewRunner(c, session.NewMemoryStore(), chat.WithTee(&raw))

			_, err = teed.Ask(ctx, "hi", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(raw.String()).To(Equal(backend.reply))
		})
	})

	Describe("NewChat", func() {
		It("replaces the session and resets the conversation", func() {
			_, err := runner.Ask(ctx, "Hi", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(runner.Conversation().Messages()).To(HaveLen(3))

			s, err := runner.NewChat(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.SessionID).To(Equal(backend.newID))
			Expect(runner.SessionID()).To(Equal(backend.newID))
			Expect(runner.Conversation().Messages()).To(HaveLen(1))
		})

		It("leaves no session held when the backend fails", func() {
			Expect(store.Set(uuid.New())).To(Succeed())
			server.Close()

			_, err := runner.NewChat(ctx)
			Expect(err).To(HaveOccurred())
			Expect(store.Has()).To(BeFalse())
		})
	})
})

func jsonDecode(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}
