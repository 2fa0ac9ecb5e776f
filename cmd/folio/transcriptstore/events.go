package transcriptstore

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/frantai/folio/pkg/eventstream"
	"github.com/frantai/folio/pkg/eventstream/kafka"
	"github.com/frantai/folio/pkg/eventstream/nop"
)

// EventOptions selects where recorded exchanges are published.
type EventOptions struct {
	// KafkaBrokers is comma separated. Empty disables publishing.
	KafkaBrokers string
	KafkaTopic   string
}

// OpenPublisher returns a Kafka publisher when brokers are configured and a
// no-op publisher otherwise.
func OpenPublisher(opts EventOptions, logger *zap.Logger) (eventstream.Publisher, error) {
	if strings.TrimSpace(opts.KafkaBrokers) == "" {
		return nop.NewPublisher(), nil
	}

	pub, err := kafka.NewPublisher(kafka.Config{
		Brokers: strings.Split(opts.KafkaBrokers, ","),
		Topic:   opts.KafkaTopic,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
	}

	logger.Info("publishing exchange events to Kafka",
		zap.String("brokers", opts.KafkaBrokers),
		zap.String("topic", opts.KafkaTopic),
	)
	return pub, nil
}
