// Package testutils holds helpers shared by folio's test suites.
package testutils

import (
	"context"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frantai/folio/pkg/transcript"
)

// NewTestExchange creates an exchange at a fixed offset from base.
func NewTestExchange(sessionID uuid.UUID, question string, at time.Time) *transcript.Exchange {
	return &transcript.Exchange{
		SessionID:    sessionID,
		Question:     question,
		Answer:       "answer to " + question,
		ResponseTime: 250 * time.Millisecond,
		CreatedAt:    at,
	}
}

// ItBehavesLikeATranscriptDriver registers the specs every transcript.Driver
// must pass. newDriver is called before each test; the driver is closed after.
func ItBehavesLikeATranscriptDriver(newDriver func() transcript.Driver) {
	var (
		driver transcript.Driver
		ctx    context.Context
		base   time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		base = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		driver = newDriver()
		DeferCleanup(func() { driver.Close() })
	})

	Describe("Put", func() {
		It("assigns increasing ids", func() {
			id := uuid.New()
			first := NewTestExchange(id, "one", base)
			second := NewTestExchange(id, "two", base.Add(time.Second))

			Expect(driver.Put(ctx, first)).To(Succeed())
			Expect(driver.Put(ctx, second)).To(Succeed())
			Expect(first.ID).To(BeNumerically(">", 0))
			Expect(second.ID).To(BeNumerically(">", first.ID))
		})

		It("stamps a missing creation time", func() {
			ex := &transcript.Exchange{SessionID: uuid.New(), Question: "q"}
			Expect(driver.Put(ctx, ex)).To(Succeed())
			Expect(ex.CreatedAt).NotTo(BeZero())
		})

		It("rejects nil", func() {
			Expect(driver.Put(ctx, nil)).To(HaveOccurred())
		})
	})

	Describe("List", func() {
		It("returns a session's exchanges oldest first", func() {
			id := uuid.New()
			Expect(driver.Put(ctx, NewTestExchange(id, "later", base.Add(time.Minute)))).To(Succeed())
			Expect(driver.Put(ctx, NewTestExchange(id, "earlier", base))).To(Succeed())
			Expect(driver.Put(ctx, NewTestExchange(uuid.New(), "other", base))).To(Succeed())

			list, err := driver.List(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(2))
			Expect(list[0].Question).To(Equal("earlier"))
			Expect(list[1].Question).To(Equal("later"))
		})

		It("round-trips every field", func() {
			id := uuid.New()
			ex := &transcript.Exchange{
				SessionID:    id,
				Question:     "Wie geht's? ✓",
				Answer:       "partial",
				ResponseTime: 1250 * time.Millisecond,
				Failed:       true,
				CreatedAt:    base,
			}
			Expect(driver.Put(ctx, ex)).To(Succeed())

			list, err := driver.List(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))

			got := list[0]
			Expect(got.ID).To(Equal(ex.ID))
			Expect(got.SessionID).To(Equal(id))
			Expect(got.Question).To(Equal(ex.Question))
			Expect(got.Answer).To(Equal(ex.Answer))
			Expect(got.ResponseTime).To(Equal(ex.ResponseTime))
			Expect(got.Failed).To(BeTrue())
			Expect(got.CreatedAt.Equal(base)).To(BeTrue())
		})

		It("keeps an unknown response time as zero", func() {
			id := uuid.New()
			ex := NewTestExchange(id, "q", base)
			ex.ResponseTime = 0
			Expect(driver.Put(ctx, ex)).To(Succeed())

			list, err := driver.List(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(list[0].ResponseTime).To(BeZero())
		})

		It("returns ErrNotFound for an unknown session", func() {
			id := uuid.New()
			_, err := driver.List(ctx, id)

			var notFound transcript.ErrNotFound
			Expect(err).To(BeAssignableToTypeOf(notFound))
			Expect(err.(transcript.ErrNotFound).SessionID).To(Equal(id))
		})
	})

	Describe("Sessions", func() {
		It("is empty for an empty store", func() {
			sessions, err := driver.Sessions(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(BeEmpty())
		})

		It("summarises sessions, most recently active first", func() {
			older, newer := uuid.New(), uuid.New()
			Expect(driver.Put(ctx, NewTestExchange(older, "a", base))).To(Succeed())
			Expect(driver.Put(ctx, NewTestExchange(newer, "b", base.Add(time.Minute)))).To(Succeed())
			Expect(driver.Put(ctx, NewTestExchange(older, "c", base.Add(2*time.Minute)))).To(Succeed())
			Expect(driver.Put(ctx, NewTestExchange(newer, "d", base.Add(3*time.Minute)))).To(Succeed())
			Expect(driver.Put(ctx, NewTestExchange(newer, "e", base.Add(4*time.Minute)))).To(Succeed())

			sessions, err := driver.Sessions(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(HaveLen(2))

			Expect(sessions[0].SessionID).To(Equal(newer))
			Expect(sessions[0].Exchanges).To(Equal(3))
			Expect(sessions[0].FirstAt.Equal(base.Add(time.Minute))).To(BeTrue())
			Expect(sessions[0].LastAt.Equal(base.Add(4 * time.Minute))).To(BeTrue())

			Expect(sessions[1].SessionID).To(Equal(older))
			Expect(sessions[1].Exchanges).To(Equal(2))
		})
	})
}
