// Package event provides the synchronous publish/subscribe bus that
// connects the game's components.
//
// Publishers and subscribers share only topics and payload shapes; no
// component references another directly. The prime generator, the ledger,
// every skill and the console all talk through a single Bus.
//
// # Architecture
//
//	                    ┌──────────────────────────────────────────┐
//	                    │               Event Bus                   │
//	                    │  - Subscriber registry                    │
//	                    │  - Wildcard topic matching                │
//	                    │  - Synchronous dispatch                   │
//	                    └──────────────────────────────────────────┘
//	                                      │
//	          ┌───────────────────────────┼───────────────────────────┐
//	          ▼                           ▼                           ▼
//	┌─────────────────┐         ┌─────────────────┐         ┌─────────────────┐
//	│    Registry     │         │     Filter      │         │     Group       │
//	│  - Priority +   │         │  - Source-based │         │  - Shared       │
//	│    insertion    │         │  - Payload      │         │    lifetime     │
//	└─────────────────┘         └─────────────────┘         └─────────────────┘
//
// # Event Topics
//
// Events use hierarchical topics with dot notation:
//
//	input.primary              - The player pressed the primary button
//	prime.discovered           - A prime was consumed from the generator
//	progress.level.changed     - The ledger gained a level
//	display.slot.populated     - A skill was placed in a roster slot
//
// # Wildcard Patterns
//
//	display.*        matches display.log, display.cooldown
//	display.**       matches display.log, display.slot.cleared
//	**               matches everything
//
// # Delivery
//
// Publish is synchronous and re-entrant. Handlers run on the caller's
// goroutine in priority order, then in registration order. The set of
// handlers is captured when dispatch begins: a handler registered during
// a publish first sees the next publish, and a handler cancelled during
// a publish still runs for the one in flight.
//
// A handler error or panic does not stop delivery to the others. Every
// failure is returned to the publisher, joined with errors.Join:
//
//	err := bus.Publish(ctx, events.TopicPrimaryInput, nil)
//	var perr *event.PanicError
//	if errors.As(err, &perr) {
//	    // a handler panicked
//	}
//
// # Subscription Lifetime
//
// Subscribe returns a Subscription whose Cancel removes the registration.
// Cancel is idempotent. Components with several registrations use a Group
// and call CancelAll when they are torn down.
package event
