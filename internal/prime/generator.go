// Package prime produces the infinite, strictly increasing sequence of
// primes consumed by the game.
//
// Primes are found by trial division against the primes already known
// and handed out from a buffer. When the buffer runs low the generator
// schedules a background extension on the cooperative scheduler, so
// consumers never wait on prime testing in the common case.
package prime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/numbertheorist/internal/schedule"
)

// ErrInvalidCount is returned by Restore for a negative count.
var ErrInvalidCount = errors.New("prime: invalid consumed count")

// Defaults for buffering.
const (
	DefaultLowWater       = 4
	DefaultBatch          = 10
	DefaultExtensionDelay = 3 * time.Millisecond
)

// Generator hands out primes in increasing order.
//
// The generator is the only writer of its buffers. It must be used from
// the scheduler goroutine.
type Generator struct {
	sched  schedule.Scheduler
	logger *zap.Logger

	lowWater int
	batch    int
	delay    time.Duration

	// next is the next odd candidate to test.
	next int

	// generated holds every prime found so far; generated[consumed:] is
	// the unvisited buffer.
	generated []int
	consumed  int

	cancelPending context.CancelFunc
}

// Option configures a Generator.
type Option func(*Generator)

// WithLowWater sets the buffer size below which an extension is scheduled.
func WithLowWater(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.lowWater = n
		}
	}
}

// WithBatch sets how many primes each extension generates.
func WithBatch(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.batch = n
		}
	}
}

// WithExtensionDelay sets how long after a low-water crossing the
// background extension runs.
func WithExtensionDelay(d time.Duration) Option {
	return func(g *Generator) {
		if d >= 0 {
			g.delay = d
		}
	}
}

// WithLogger sets the generator logger.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New creates a generator with an initial batch of primes buffered.
func New(sched schedule.Scheduler, opts ...Option) *Generator {
	g := &Generator{
		sched:    sched,
		logger:   zap.NewNop(),
		lowWater: DefaultLowWater,
		batch:    DefaultBatch,
		delay:    DefaultExtensionDelay,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.Reset()
	return g
}

// Next consumes and returns the oldest unvisited prime.
func (g *Generator) Next() int {
	if g.consumed == len(g.generated) {
		g.extend(g.batch)
	}

	p := g.generated[g.consumed]
	g.consumed++

	if g.buffered() < g.lowWater {
		g.scheduleExtension()
	}
	return p
}

// Current returns the most recently consumed prime, or 0 if none has been consumed.
func (g *Generator) Current() int {
	if g.consumed == 0 {
		return 0
	}
	return g.generated[g.consumed-1]
}

// Count returns the number of primes consumed.
func (g *Generator) Count() int {
	return g.consumed
}

// Generated returns the number of primes found so far.
func (g *Generator) Generated() int {
	return len(g.generated)
}

// Restore fast-forwards a fresh generator so that exactly n primes have
// been consumed and none are buffered.
func (g *Generator) Restore(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCount, n)
	}

	g.Reset()
	if n == 0 {
		return nil
	}
	if missing := n - len(g.generated); missing > 0 {
		g.extend(missing)
	}
	g.consumed = n
	g.generated = g.generated[:n]
	g.next = nextCandidate(g.generated)

	g.logger.Debug("prime generator restored", zap.Int("count", n))
	g.scheduleExtension()
	return nil
}

// Reset returns the generator to its initial state and cancels a pending extension.
func (g *Generator) Reset() {
	g.Close()
	g.generated = []int{2}
	g.next = 3
	g.consumed = 0
	g.extend(g.batch)
}

// Close cancels a pending background extension.
func (g *Generator) Close() {
	if g.cancelPending != nil {
		g.cancelPending()
		g.cancelPending = nil
	}
}

// buffered returns the number of unvisited primes.
func (g *Generator) buffered() int {
	return len(g.generated) - g.consumed
}

// scheduleExtension queues one background extension unless one is pending.
func (g *Generator) scheduleExtension() {
	if g.cancelPending != nil || g.sched == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	g.cancelPending = cancel
	g.sched.AfterFunc(ctx, g.delay, func() {
		cancel()
		g.cancelPending = nil
		g.extend(g.batch)
	})
}

// extend appends n more primes found by trial division.
func (g *Generator) extend(n int) {
	for found := 0; found < n; g.next += 2 {
		if isPrime(g.next, g.generated) {
			g.generated = append(g.generated, g.next)
			found++
		}
	}
}

// isPrime tests an odd candidate against the complete list of smaller primes.
func isPrime(candidate int, primes []int) bool {
	for _, p := range primes {
		if p*p > candidate {
			return true
		}
		if candidate%p == 0 {
			return false
		}
	}
	return true
}

// nextCandidate returns the odd number following the largest known prime.
func nextCandidate(primes []int) int {
	if len(primes) == 0 {
		return 3
	}
	last := primes[len(primes)-1]
	if last == 2 {
		return 3
	}
	return last + 2
}
