package eventstream_test

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frantai/folio/pkg/eventstream"
	"github.com/frantai/folio/pkg/transcript"
)

var _ = Describe("Event", func() {
	var ex *transcript.Exchange

	BeforeEach(func() {
		ex = &transcript.Exchange{
			ID:           7,
			SessionID:    uuid.MustParse("6f1c2a52-8c1e-4a8e-9a61-0d3b1c2e7f10"),
			Question:     "What do you build?",
			Answer:       "Mostly Go services.",
			ResponseTime: 1250 * time.Millisecond,
			CreatedAt:    time.Unix(1735689600, 0),
		}
	})

	It("copies the exchange into a v1 event", func() {
		event := eventstream.NewExchangeRecordedEvent(ex, eventstream.EventSource{Component: "chat"})

		Expect(event.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(event.EventType).To(Equal(eventstream.EventTypeExchangeRecorded))
		Expect(event.EventID).To(HavePrefix("evt_"))
		Expect(event.EmittedAt).NotTo(BeZero())
		Expect(event.Exchange.ID).To(Equal(int64(7)))
		Expect(event.Exchange.SessionID).To(Equal(ex.SessionID))
		Expect(event.Exchange.ResponseTimeMs).To(Equal(int64(1250)))
		Expect(event.Exchange.CreatedAt.Location()).To(Equal(time.UTC))
	})

	It("gives every event its own id", func() {
		a := eventstream.NewExchangeRecordedEvent(ex, eventstream.EventSource{})
		b := eventstream.NewExchangeRecordedEvent(ex, eventstream.EventSource{})
		Expect(a.EventID).NotTo(Equal(b.EventID))
	})

	It("marshals with the expected top-level keys", func() {
		payload, err := json.Marshal(eventstream.NewExchangeRecordedEvent(ex, eventstream.EventSource{Component: "mcp"}))
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())
		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKeyWithValue("source", HaveKeyWithValue("component", "mcp")))
		Expect(got).To(HaveKeyWithValue("exchange", HaveKeyWithValue("session_id", "6f1c2a52-8c1e-4a8e-9a61-0d3b1c2e7f10")))
	})

	It("defines stable event constants", func() {
		Expect(eventstream.EventTypeExchangeRecorded).To(Equal("folio.exchange.recorded"))
		Expect(eventstream.ErrNilExchangeEvent).To(MatchError("nil exchange event"))
	})
})
