// Package kafka wires watermill's Kafka publisher.
package kafka

import (
	"errors"
	"time"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
)

const (
	netTimeout      = 2 * time.Second
	producerTimeout = 2 * time.Second
	producerRetry   = 1
	retryBackoff    = 100 * time.Millisecond
)

var ErrNoBrokers = errors.New("no kafka brokers configured")

// CreatePublisher creates a watermill Kafka publisher. Consumers of the published
// events run in their own services, so no subscriber or consumer group is created.
func CreatePublisher(logger watermill.LoggerAdapter, brokers []string) (*kafka.Publisher, error) {
	if len(brokers) == 0 || brokers[0] == "" {
		return nil, ErrNoBrokers
	}

	return kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:               brokers,
			Marshaler:             kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: publisherSaramaConfig(),
			OTELEnabled:           true,
		},
		logger,
	)
}

// publisherSaramaConfig keeps an unreachable broker from holding a publish for
// sarama's default minute-long network and retry windows.
func publisherSaramaConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Timeout = producerTimeout
	config.Producer.Retry.Max = producerRetry
	config.Producer.Retry.Backoff = retryBackoff
	config.Metadata.Retry.Max = producerRetry
	config.Metadata.Retry.Backoff = retryBackoff
	config.Net.DialTimeout = netTimeout
	config.Net.ReadTimeout = netTimeout
	config.Net.WriteTimeout = netTimeout

	return config
}
