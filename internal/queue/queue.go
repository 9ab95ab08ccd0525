// Package queue constructs the Kafka-backed message transport: the
// subscriber feeding the dispatcher's three subscriptions and the
// publisher the webhook receiver writes jobs to.
package queue

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/taskbridge/taskbridge/internal/config"
)

// NewSubscriber creates the consumer-group subscriber shared by the
// three dispatcher subscriptions.
func NewSubscriber(cfg *config.Config, logger *slog.Logger) (message.Subscriber, error) {
	sub, err := kafka.NewSubscriber(
		kafka.SubscriberConfig{
			Brokers:       cfg.KafkaBrokers,
			Unmarshaler:   kafka.DefaultMarshaler{},
			ConsumerGroup: cfg.ConsumerGroup,
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka subscriber: %w", err)
	}
	return sub, nil
}

// NewPublisher creates the publisher used to enqueue normalized job
// messages.
func NewPublisher(cfg *config.Config, logger *slog.Logger) (message.Publisher, error) {
	pub, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   cfg.KafkaBrokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}
	return pub, nil
}
