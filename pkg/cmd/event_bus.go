// Package cmd holds the constructors shared by the service entrypoints.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/ruleintake/pkg/channels/gochannel"
	"github.com/dukex/ruleintake/pkg/channels/kafka"
	"github.com/dukex/ruleintake/pkg/eventbus"
)

const (
	EventBusNone      = "none"
	EventBusGoChannel = "gochannel"
	EventBusKafka     = "kafka"
)

var ErrUnsupportedEventBus = errors.New("unsupported event bus provider")

// NewEventPublisher creates the publishing side of the event bus selected by
// provider. It returns nil for EventBusNone, in which case submissions are only
// logged. Kafka gets a publisher without a consumer group.
func NewEventPublisher(provider string, brokers []string, logger *slog.Logger) (eventbus.PublishCloser, error) {
	switch provider {
	case "", EventBusNone:
		return nil, nil
	case EventBusGoChannel:
		pub, sub := gochannel.CreateChannel(watermill.NewSlogLogger(logger))

		return eventbus.NewWatermillEventBus(pub, sub), nil
	case EventBusKafka:
		pub, err := kafka.CreatePublisher(watermill.NewSlogLogger(logger), brokers)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, nil), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEventBus, provider)
	}
}
