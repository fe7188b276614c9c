package event

import (
	"sort"
	"sync"

	"github.com/dshills/numbertheorist/internal/event/topic"
)

// Registry holds subscriptions in delivery order: ascending priority,
// then registration order. It is thread-safe for concurrent access.
type Registry struct {
	mu      sync.RWMutex
	ordered []*subscription
	byID    map[string]*subscription
	nextSeq uint64
}

// NewRegistry creates a new subscription registry.
func NewRegistry() *Registry {
	return &Registry{
		byID: make(map[string]*subscription),
	}
}

// Add registers a subscription and binds it to the registry so that
// Cancel removes it.
func (r *Registry) Add(sub *subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextSeq++
	sub.seq = r.nextSeq
	sub.registry = r

	r.ordered = append(r.ordered, sub)
	sort.SliceStable(r.ordered, func(i, j int) bool {
		a, b := r.ordered[i], r.ordered[j]
		if a.config.Priority != b.config.Priority {
			return a.config.Priority < b.config.Priority
		}
		return a.seq < b.seq
	})

	r.byID[sub.id] = sub
}

// Remove removes a subscription by ID.
// It returns false if the subscription was not registered.
func (r *Registry) Remove(subID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[subID]; !exists {
		return false
	}
	delete(r.byID, subID)

	for i, s := range r.ordered {
		if s.id == subID {
			// Copy into a fresh slice; in-flight dispatches hold the old one.
			next := make([]*subscription, 0, len(r.ordered)-1)
			next = append(next, r.ordered[:i]...)
			next = append(next, r.ordered[i+1:]...)
			r.ordered = next
			break
		}
	}
	return true
}

// Get returns a subscription by ID.
func (r *Registry) Get(subID string) (*subscription, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, exists := r.byID[subID]
	return sub, exists
}

// Match returns the subscriptions whose pattern matches the event topic,
// in delivery order. The result is a snapshot: later registrations and
// cancellations do not affect it.
func (r *Registry) Match(eventTopic topic.Topic) []*subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*subscription
	for _, sub := range r.ordered {
		if eventTopic.Matches(sub.topic) {
			matched = append(matched, sub)
		}
	}
	return matched
}

// Count returns the number of registered subscriptions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byID)
}

// Clear cancels and removes all subscriptions.
func (r *Registry) Clear() {
	r.mu.Lock()
	subs := r.ordered
	r.ordered = nil
	r.byID = make(map[string]*subscription)
	r.mu.Unlock()

	for _, sub := range subs {
		sub.markCancelled()
	}
}
