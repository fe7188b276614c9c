package event

import "context"

// Priority determines handler execution order.
// Lower values execute first; equal priorities run in registration order.
type Priority int

const (
	// PriorityCritical is for core bookkeeping that other handlers rely on.
	PriorityCritical Priority = 0

	// PriorityHigh is for progression handlers such as the ledger.
	PriorityHigh Priority = 100

	// PriorityNormal is the default priority for skills.
	PriorityNormal Priority = 200

	// PriorityLow is for presentation and logging handlers that run last.
	PriorityLow Priority = 300
)

// String returns a human-readable priority name.
func (p Priority) String() string {
	switch {
	case p <= PriorityCritical:
		return "critical"
	case p <= PriorityHigh:
		return "high"
	case p <= PriorityNormal:
		return "normal"
	default:
		return "low"
	}
}

// Handler is the interface for event handlers.
type Handler interface {
	// Handle processes an event. Returning an error does not stop
	// delivery to other subscribers; the bus reports it to the publisher.
	Handle(ctx context.Context, env Envelope) error
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(ctx context.Context, env Envelope) error

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, env Envelope) error {
	return f(ctx, env)
}

// FilterFunc is a predicate for filtering events.
// Return true to allow the event, false to filter it out.
type FilterFunc func(env Envelope) bool

// Stats contains event bus statistics.
type Stats struct {
	// EventsPublished is the number of published events that had at least one subscriber.
	EventsPublished uint64

	// HandlersExecuted is the total number of handler executions.
	HandlersExecuted uint64

	// HandlerErrors is the number of handlers that returned errors.
	HandlerErrors uint64

	// HandlerPanics is the number of handlers that panicked.
	HandlerPanics uint64

	// ActiveSubscribers is the current number of active subscriptions.
	ActiveSubscribers int
}

// PanicHandler is called when a handler panics.
type PanicHandler func(env Envelope, recovered any, stack []byte)
