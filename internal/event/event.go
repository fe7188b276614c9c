package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/dshills/numbertheorist/internal/event/topic"
)

// Envelope is the unit of delivery on the bus: a topic plus an optional,
// unconstrained payload. Envelopes have no persistent identity.
type Envelope struct {
	// Topic is the event name.
	Topic topic.Topic

	// Payload is the type-erased event payload. It may be nil.
	Payload any

	// Metadata is the event metadata.
	Metadata Metadata
}

// Metadata contains standard information attached to every event.
type Metadata struct {
	// ID is a unique identifier for this event instance.
	ID string

	// Timestamp is when the event was published.
	Timestamp time.Time

	// Source identifies the component that published the event.
	Source string
}

// EventTopic returns the envelope topic.
func (e Envelope) EventTopic() topic.Topic {
	return e.Topic
}

// TopicProvider is implemented by payload types that know their own topic.
// Such values can be published directly with Bus.PublishEvent.
type TopicProvider interface {
	EventTopic() topic.Topic
}

// PayloadAs returns the envelope payload as T.
// The second result is false when the payload is missing or of another type.
func PayloadAs[T any](env Envelope) (T, bool) {
	p, ok := env.Payload.(T)
	return p, ok
}

// generateID generates a unique event or subscription ID.
func generateID() string {
	return uuid.NewString()
}
