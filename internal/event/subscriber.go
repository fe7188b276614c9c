package event

import (
	"context"
	"sync"

	"github.com/dshills/numbertheorist/internal/event/topic"
)

// Group owns a set of subscriptions that share a lifetime.
// Components register through a Group and cancel everything at once
// when they are disposed.
type Group struct {
	bus    Bus
	subs   []Subscription
	mu     sync.Mutex
	closed bool
}

// NewGroup creates a new subscription group on bus.
func NewGroup(bus Bus) *Group {
	return &Group{bus: bus}
}

// Subscribe creates a subscription and adds it to the group.
func (g *Group) Subscribe(topicPattern topic.Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil, ErrGroupClosed
	}

	sub, err := g.bus.Subscribe(topicPattern, handler, opts...)
	if err != nil {
		return nil, err
	}

	g.subs = append(g.subs, sub)
	return sub, nil
}

// SubscribeFunc creates a subscription with a function handler.
func (g *Group) SubscribeFunc(topicPattern topic.Topic, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return g.Subscribe(topicPattern, fn, opts...)
}

// SubscribePayload subscribes a handler that receives the payload as T.
// Events whose payload is not a T are skipped.
func SubscribePayload[T any](g *Group, topicPattern topic.Topic, handler func(ctx context.Context, payload T) error, opts ...SubscriptionOption) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	return g.SubscribeFunc(topicPattern, func(ctx context.Context, env Envelope) error {
		payload, ok := PayloadAs[T](env)
		if !ok {
			return nil
		}
		return handler(ctx, payload)
	}, opts...)
}

// CancelAll cancels all subscriptions in the group.
// The group stays usable for new subscriptions.
func (g *Group) CancelAll() {
	g.mu.Lock()
	subs := g.subs
	g.subs = nil
	g.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
}

// Close cancels all subscriptions and rejects further ones.
func (g *Group) Close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	g.CancelAll()
}

// Count returns the number of subscriptions in the group.
func (g *Group) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.subs)
}

// IsClosed reports whether Close has been called.
func (g *Group) IsClosed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// Bus returns the underlying bus.
func (g *Group) Bus() Bus {
	return g.bus
}

// Subscribe registers a handler on bus that receives the payload as T.
// Events whose payload is not a T are skipped.
func Subscribe[T any](bus Bus, topicPattern topic.Topic, handler func(ctx context.Context, payload T) error, opts ...SubscriptionOption) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	return bus.SubscribeFunc(topicPattern, func(ctx context.Context, env Envelope) error {
		payload, ok := PayloadAs[T](env)
		if !ok {
			return nil
		}
		return handler(ctx, payload)
	}, opts...)
}
