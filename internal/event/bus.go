package event

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dshills/numbertheorist/internal/event/dispatch"
	"github.com/dshills/numbertheorist/internal/event/topic"
)

// Bus is the central event bus interface.
//
// Publishing is synchronous: every handler matching the topic runs to
// completion, in delivery order, before Publish returns.
type Bus interface {
	// Publishing
	Publish(ctx context.Context, t topic.Topic, payload any) error
	PublishEvent(ctx context.Context, event any) error

	// Subscription
	Subscribe(topicPattern topic.Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error)
	SubscribeFunc(topicPattern topic.Topic, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error)
	Unsubscribe(sub Subscription) error

	// Status
	Stats() Stats
}

// bus is the default Bus implementation.
type bus struct {
	registry   *Registry
	dispatcher *dispatch.SyncDispatcher
	config     busConfig

	eventsPublished  atomic.Uint64
	handlersExecuted atomic.Uint64
	handlerErrors    atomic.Uint64
	handlerPanics    atomic.Uint64
}

// NewBus creates a new event bus with the given options.
func NewBus(opts ...BusOption) Bus {
	config := defaultBusConfig()
	for _, opt := range opts {
		opt(&config)
	}

	b := &bus{
		registry: NewRegistry(),
		config:   config,
	}

	b.dispatcher = dispatch.NewSyncDispatcher(
		dispatch.WithPanicHandler(func(ev any, panicValue any, stack []byte) {
			env, _ := ev.(Envelope)
			b.config.logger.Error("event handler panicked",
				zap.String("topic", env.Topic.String()),
				zap.Any("panic", panicValue),
				zap.ByteString("stack", stack),
			)
			if b.config.panicHandler != nil {
				b.config.panicHandler(env, panicValue, stack)
			}
		}),
	)

	return b
}

// Publish delivers payload to every subscriber whose pattern matches t.
// Handler failures do not interrupt delivery; they are joined into the
// returned error as *HandlerError and *PanicError values.
func (b *bus) Publish(ctx context.Context, t topic.Topic, payload any) error {
	return b.deliver(ctx, Envelope{Topic: t, Payload: payload})
}

// PublishEvent publishes an Envelope or a payload implementing TopicProvider.
func (b *bus) PublishEvent(ctx context.Context, event any) error {
	switch ev := event.(type) {
	case Envelope:
		return b.deliver(ctx, ev)
	case *Envelope:
		if ev == nil {
			return ErrInvalidEvent
		}
		return b.deliver(ctx, *ev)
	case TopicProvider:
		return b.deliver(ctx, Envelope{Topic: ev.EventTopic(), Payload: event})
	default:
		return ErrInvalidEvent
	}
}

// deliver runs the matching handlers for env over a snapshot of the
// registry taken before the first handler executes.
func (b *bus) deliver(ctx context.Context, env Envelope) error {
	if !env.Topic.IsValid() || env.Topic.IsWildcard() {
		return ErrInvalidTopic
	}
	if env.Metadata.ID == "" {
		env.Metadata.ID = generateID()
	}
	if env.Metadata.Timestamp.IsZero() {
		env.Metadata.Timestamp = b.config.now()
	}

	subs := b.registry.Match(env.Topic)
	if len(subs) == 0 {
		return nil
	}
	b.eventsPublished.Add(1)

	var errs []error
	for _, sub := range subs {
		if !sub.accepts(env) {
			continue
		}
		if sub.config.Once {
			// Claim the single delivery before running the handler so a
			// re-entrant publish cannot deliver it twice.
			if !sub.markCancelled() {
				continue
			}
			b.registry.Remove(sub.id)
		}

		result := b.dispatcher.Dispatch(ctx, env, handlerAdapter{sub.handler})
		if result.Skipped {
			errs = append(errs, result.Error)
			break
		}
		b.handlersExecuted.Add(1)

		switch {
		case result.Panicked:
			b.handlerPanics.Add(1)
			errs = append(errs, &PanicError{
				SubscriptionID: sub.id,
				Topic:          env.Topic.String(),
				Value:          result.PanicValue,
				Stack:          string(result.PanicStack),
			})
		case result.Error != nil:
			b.handlerErrors.Add(1)
			b.config.logger.Debug("event handler failed",
				zap.String("topic", env.Topic.String()),
				zap.String("subscription", sub.id),
				zap.Error(result.Error),
			)
			errs = append(errs, &HandlerError{
				SubscriptionID: sub.id,
				Topic:          env.Topic.String(),
				Err:            result.Error,
			})
		}
	}

	return errors.Join(errs...)
}

// Subscribe registers handler for events whose topic matches topicPattern.
func (b *bus) Subscribe(topicPattern topic.Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if !topicPattern.IsValid() {
		return nil, ErrInvalidTopic
	}

	sub := newSubscription(generateID(), topicPattern, handler, opts...)
	b.registry.Add(sub)
	return sub, nil
}

// SubscribeFunc is a convenience method for subscribing with a function.
func (b *bus) SubscribeFunc(topicPattern topic.Topic, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(topicPattern, fn, opts...)
}

// Unsubscribe removes a subscription.
// It returns ErrSubscriptionNotFound if the subscription is no longer registered.
func (b *bus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return ErrInvalidSubscription
	}

	removed := b.registry.Remove(sub.ID())
	sub.Cancel()

	if !removed {
		return ErrSubscriptionNotFound
	}
	return nil
}

// Stats returns current bus statistics.
func (b *bus) Stats() Stats {
	return Stats{
		EventsPublished:   b.eventsPublished.Load(),
		HandlersExecuted:  b.handlersExecuted.Load(),
		HandlerErrors:     b.handlerErrors.Load(),
		HandlerPanics:     b.handlerPanics.Load(),
		ActiveSubscribers: b.registry.Count(),
	}
}

// handlerAdapter adapts an event.Handler to dispatch.Handler.
type handlerAdapter struct {
	h Handler
}

// Handle implements dispatch.Handler.
func (a handlerAdapter) Handle(ctx context.Context, ev any) error {
	env, ok := ev.(Envelope)
	if !ok {
		return ErrInvalidEvent
	}
	return a.h.Handle(ctx, env)
}
