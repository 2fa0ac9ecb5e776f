package nop_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frantai/folio/pkg/eventstream"
	"github.com/frantai/folio/pkg/eventstream/nop"
)

var _ = Describe("Publisher", func() {
	It("rejects nil events", func() {
		err := nop.NewPublisher().PublishExchange(context.Background(), nil)
		Expect(err).To(MatchError(eventstream.ErrNilExchangeEvent))
	})

	It("accepts events", func() {
		err := nop.NewPublisher().PublishExchange(context.Background(), &eventstream.ExchangeRecordedEvent{})
		Expect(err).NotTo(HaveOccurred())
	})

	It("closes", func() {
		Expect(nop.NewPublisher().Close()).To(Succeed())
	})
})
