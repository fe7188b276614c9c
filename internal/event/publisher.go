package event

import (
	"context"

	"github.com/dshills/numbertheorist/internal/event/topic"
)

// Publisher stamps events with a fixed source before handing them to a Bus.
type Publisher struct {
	bus    Bus
	source string
}

// NewPublisher creates a new Publisher wrapping the given bus.
// The source parameter identifies where events originate (e.g., "ledger", "skill.auto").
func NewPublisher(bus Bus, source string) *Publisher {
	return &Publisher{
		bus:    bus,
		source: source,
	}
}

// Publish sends payload on topic t with the publisher's source.
func (p *Publisher) Publish(ctx context.Context, t topic.Topic, payload any) error {
	return p.bus.PublishEvent(ctx, Envelope{
		Topic:    t,
		Payload:  payload,
		Metadata: Metadata{Source: p.source},
	})
}

// PublishEvent sends a payload that knows its own topic.
func (p *Publisher) PublishEvent(ctx context.Context, event TopicProvider) error {
	if event == nil {
		return ErrInvalidEvent
	}
	return p.Publish(ctx, event.EventTopic(), event)
}

// Source returns the publisher's source identifier.
func (p *Publisher) Source() string {
	return p.source
}

// Bus returns the underlying bus.
func (p *Publisher) Bus() Bus {
	return p.bus
}
