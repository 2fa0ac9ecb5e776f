package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frantai/folio/pkg/client"
	"github.com/frantai/folio/pkg/logger"
	"github.com/frantai/folio/pkg/profile"
	"github.com/frantai/folio/pkg/sse"
)

func postMessage(s *Server, body string) *http.Response {
	req, err := http.NewRequest(http.MethodPost, "/api/v1/chat/message", strings.NewReader(body))
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.app.Test(req, -1)
	Expect(err).NotTo(HaveOccurred())
	return resp
}

func readDetail(resp *http.Response) any {
	var body detailResponse
	Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
	return body.Detail
}

func decodeEvents(r io.Reader) []sse.Event {
	var events []sse.Event
	for ev, err := range sse.NewStream(r).All() {
		Expect(err).NotTo(HaveOccurred())
		events = append(events, ev)
	}
	return events
}

var _ = Describe("Server", func() {
	var server *Server

	BeforeEach(func() {
		server = NewServer(Config{ListenAddr: ":0"}, logger.Nop())
	})

	Describe("GET /ping", func() {
		It("answers pong", func() {
			resp, err := server.app.Test(httptestRequest(http.MethodGet, "/ping"))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			body, _ := io.ReadAll(resp.Body)
			Expect(string(body)).To(Equal(`"pong"`))
		})
	})

	Describe("GET /profile", func() {
		It("serves the sample profile by default", func() {
			resp, err := server.app.Test(httptestRequest(http.MethodGet, "/api/v1/profile"))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var p profile.Profile
			Expect(json.NewDecoder(resp.Body).Decode(&p)).To(Succeed())
			Expect(p.Basics.FullName).To(Equal(profile.Sample().Basics.FullName))
		})

		It("serves under a custom prefix", func() {
			server = NewServer(Config{APIPrefix: "preview/"}, nil)

			resp, err := server.app.Test(httptestRequest(http.MethodGet, "/preview/profile"))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		})
	})

	Describe("SetProfile", func() {
		It("serves and answers from the new profile", func() {
			server.SetProfile(&profile.Profile{
				Basics: &profile.Basics{FullName: "Ada Lovelace"},
				Skills: []profile.SkillCategory{{Name: "Maths", Skills: []profile.Skill{{Name: "Analysis"}}}},
			})
			Expect(server.Profile().Basics.FullName).To(Equal("Ada Lovelace"))

			resp := postMessage(server, `{"message":"What skills?"}`)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var answer strings.Builder
			for _, ev := range decodeEvents(resp.Body) {
				if tok, ok := ev.(sse.TokenEvent); ok {
					answer.WriteString(tok.Token)
				}
			}
			Expect(answer.String()).To(Equal("Ada Lovelace works with Analysis."))
		})

		It("falls back to the sample for nil", func() {
			server.SetProfile(nil)
			Expect(server.Profile().Basics.FullName).To(Equal(profile.Sample().Basics.FullName))
		})
	})

	Describe("sessions", func() {
		It("creates and fetches a session", func() {
			resp, err := server.app.Test(httptestRequest(http.MethodPost, "/api/v1/chat/session/new"))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var created client.Session
			Expect(json.NewDecoder(resp.Body).Decode(&created)).To(Succeed())
			Expect(created.SessionID).NotTo(Equal(uuid.Nil))
			Expect(created.MessageCount).To(BeZero())

			resp, err = server.app.Test(httptestRequest(http.MethodGet, "/api/v1/chat/session/"+created.SessionID.String()))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var fetched client.Session
			Expect(json.NewDecoder(resp.Body).Decode(&fetched)).To(Succeed())
			Expect(fetched.SessionID).To(Equal(created.SessionID))
		})

		It("returns 404 for an unknown session", func() {
			resp, err := server.app.Test(httptestRequest(http.MethodGet, "/api/v1/chat/session/"+uuid.NewString()))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
			Expect(readDetail(resp)).To(Equal("Session not found"))
		})

		It("returns 422 for a malformed id", func() {
			resp, err := server.app.Test(httptestRequest(http.MethodGet, "/api/v1/chat/session/not-a-uuid"))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusUnprocessableEntity))
		})
	})

	Describe("POST /chat/message", func() {
		It("streams session, tokens and done", func() {
			resp := postMessage(server, `{"message":"What is your experience?","session_id":null}`)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(HavePrefix("text/event-stream"))

			events := decodeEvents(resp.Body)
			Expect(len(events)).To(BeNumerically(">=", 3))

			first, ok := events[0].(sse.SessionEvent)
			Expect(ok).To(BeTrue())
			Expect(first.SessionID).NotTo(Equal(uuid.Nil))

			var answer strings.Builder
			for _, ev := range events[1 : len(events)-1] {
				tok, ok := ev.(sse.TokenEvent)
				Expect(ok).To(BeTrue())
				answer.WriteString(tok.Token)
			}
			Expect(answer.String()).To(ContainSubstring("Senior Engineer at Streamline"))

			done, ok := events[len(events)-1].(sse.DoneEvent)
			Expect(ok).To(BeTrue())
			Expect(done.HasResponseTime).To(BeTrue())

			session, found := server.sessions.get(first.SessionID)
			Expect(found).To(BeTrue())
			Expect(session.MessageCount).To(Equal(2))
		})

		It("continues an existing session", func() {
			existing := server.sessions.create()

			resp := postMessage(server, fmt.Sprintf(`{"message":"hi","session_id":%q}`, existing.SessionID))
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			events := decodeEvents(resp.Body)
			Expect(events[0]).To(Equal(sse.SessionEvent{SessionID: existing.SessionID}))
		})

		It("rejects a zero-length message as a validation error", func() {
			resp := postMessage(server, `{"message":""}`)
			Expect(resp.StatusCode).To(Equal(fiber.StatusUnprocessableEntity))

			detail, ok := readDetail(resp).([]any)
			Expect(ok).To(BeTrue())
			Expect(detail).To(HaveLen(1))
			Expect(detail[0]).To(HaveKeyWithValue("type", "string_too_short"))
			Expect(detail[0]).To(HaveKeyWithValue("loc", []any{"body", "message"}))
		})

		It("rejects a blank message with 400", func() {
			resp := postMessage(server, `{"message":"   "}`)
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
			Expect(readDetail(resp)).To(Equal("Message cannot be empty"))
		})

		It("rejects an over-long message with 422", func() {
			resp := postMessage(server, fmt.Sprintf(`{"message":%q}`, strings.Repeat("ü", client.MaxMessageLength+1)))
			Expect(resp.StatusCode).To(Equal(fiber.StatusUnprocessableEntity))
		})

		It("accepts a message of exactly the maximum length", func() {
			resp := postMessage(server, fmt.Sprintf(`{"message":%q}`, strings.Repeat("ü", client.MaxMessageLength)))
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		})

		It("rejects a missing message with 422", func() {
			resp := postMessage(server, `{}`)
			Expect(resp.StatusCode).To(Equal(fiber.StatusUnprocessableEntity))
		})

		It("rejects a malformed session id with 422", func() {
			resp := postMessage(server, `{"message":"hi","session_id":"nope"}`)
			Expect(resp.StatusCode).To(Equal(fiber.StatusUnprocessableEntity))
		})

		It("rejects an unknown session with 404", func() {
			resp := postMessage(server, fmt.Sprintf(`{"message":"hi","session_id":%q}`, uuid.New()))
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})

		It("sends an error record when the responder fails", func() {
			server = NewServer(Config{
				Responder: ResponderFunc(func(context.Context, string) (string, error) {
					return "", errors.New("model offline")
				}),
			}, nil)

			resp := postMessage(server, `{"message":"hi"}`)
			events := decodeEvents(resp.Body)
			Expect(events).To(HaveLen(2))
			Expect(events[1]).To(Equal(sse.ErrorEvent{Message: "model offline"}))
		})

		It("produces the same events when fragmented", func() {
			server = NewServer(Config{FragmentSize: 3}, nil)

			resp := postMessage(server, `{"message":"skills?"}`)
			events := decodeEvents(resp.Body)
			Expect(events[len(events)-1].Kind()).To(Equal(sse.KindDone))

			var answer strings.Builder
			for _, ev := range events {
				if tok, ok := ev.(sse.TokenEvent); ok {
					answer.WriteString(tok.Token)
				}
			}
			Expect(answer.String()).To(ContainSubstring("Go"))
		})
	})

	Context("with the folio client", func() {
		var (
			httpServer *httptest.Server
			c          *client.Client
			ctx        context.Context
		)

		BeforeEach(func() {
			ctx = context.Background()
			httpServer = httptest.NewServer(server.Handler())
			DeferCleanup(httpServer.Close)

			var err error
			c, err = client.NewClient(client.Config{BaseURL: httpServer.URL}, nil)
			Expect(err).NotTo(HaveOccurred())
		})

		It("fetches the profile", func() {
			p, err := c.GetProfile(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Basics.FullName).To(Equal(profile.Sample().Basics.FullName))
		})

		It("round-trips a chat", func() {
			s, err := c.CreateSession(ctx)
			Expect(err).NotTo(HaveOccurred())

			stream, err := c.SendMessage(ctx, "Tell me about your projects", s.SessionID)
			Expect(err).NotTo(HaveOccurred())
			defer stream.Close()

			var kinds []sse.Kind
			for ev, err := range stream.All() {
				Expect(err).NotTo(HaveOccurred())
				kinds = append(kinds, ev.Kind())
			}
			Expect(kinds[0]).To(Equal(sse.KindSession))
			Expect(kinds[len(kinds)-1]).To(Equal(sse.KindDone))

			Eventually(func() int {
				got, err := c.GetSession(ctx, s.SessionID)
				Expect(err).NotTo(HaveOccurred())
				return got.MessageCount
			}).Should(Equal(2))
		})

		It("surfaces an unknown session as not found", func() {
			_, err := c.GetSession(ctx, uuid.New())
			Expect(client.IsNotFound(err)).To(BeTrue())

			var transportErr *client.TransportError
			Expect(errors.As(err, &transportErr)).To(BeTrue())
			Expect(transportErr.Detail).To(Equal("Session not found"))
		})
	})
})

var _ = Describe("splitTokens", func() {
	It("splits into words that concatenate back", func() {
		tokens := splitTokens("Hello there, world ")
		Expect(tokens).To(Equal([]string{"Hello ", "there, ", "world "}))
		Expect(strings.Join(tokens, "")).To(Equal("Hello there, world "))
	})

	It("returns nothing for an empty answer", func() {
		Expect(splitTokens("")).To(BeEmpty())
	})
})

var _ = Describe("ScriptedResponder", func() {
	It("falls back to the summary", func() {
		r := NewScriptedResponder(profile.Sample())
		answer, err := r.Respond(context.Background(), "hello")
		Expect(err).NotTo(HaveOccurred())
		Expect(answer).To(ContainSubstring(profile.Sample().Basics.Summary))
	})

	It("handles an empty profile", func() {
		r := NewScriptedResponder(&profile.Profile{})
		answer, err := r.Respond(context.Background(), "what projects?")
		Expect(err).NotTo(HaveOccurred())
		Expect(answer).To(Equal("this person has not listed any projects yet."))
	})
})

func httptestRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}
