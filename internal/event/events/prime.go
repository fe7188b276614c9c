package events

import "github.com/dshills/numbertheorist/internal/event/topic"

// TopicPrimeDiscovered is published whenever a prime is consumed from the generator.
const TopicPrimeDiscovered topic.Topic = "prime.discovered"

// PrimeDiscovered is the payload of TopicPrimeDiscovered.
type PrimeDiscovered struct {
	// Value is the prime.
	Value int

	// Count is the number of primes consumed so far, including Value.
	Count int
}

// EventTopic implements event.TopicProvider.
func (PrimeDiscovered) EventTopic() topic.Topic { return TopicPrimeDiscovered }
