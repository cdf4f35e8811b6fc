// Package eventbus provides the publish/subscribe plumbing used to announce received rule sets.
package eventbus

import (
	"context"
	"errors"

	"github.com/dukex/ruleintake/pkg/events"
)

var ErrNoSubscriber = errors.New("event bus has no subscriber")

type Event interface {
	GetType() events.EventType
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}

// PublishCloser is the publishing half of a bus, as used by services that only emit events.
type PublishCloser interface {
	EventPublisher
	Close() error
}
