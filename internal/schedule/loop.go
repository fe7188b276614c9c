package schedule

import (
	"context"
	"errors"
	"runtime/debug"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrLoopRunning is returned by Run when the loop is already running.
var ErrLoopRunning = errors.New("schedule: loop already running")

// idleWait bounds how long Run sleeps when nothing is queued.
const idleWait = time.Minute

// Loop is a real-time Scheduler. Tasks run on the goroutine that calls
// Run; AfterFunc, Every and Post may be called from any goroutine.
type Loop struct {
	clock  Clock
	logger *zap.Logger
	queue  queue
	wake   chan struct{}

	running atomic.Bool
	panics  atomic.Uint64
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithLoopLogger sets the logger used to report panicking tasks.
func WithLoopLogger(logger *zap.Logger) LoopOption {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoop creates a new real-time loop.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		clock:  SystemClock{},
		logger: zap.NewNop(),
		wake:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Now returns the current time.
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// AfterFunc implements Scheduler.
func (l *Loop) AfterFunc(ctx context.Context, d time.Duration, fn func()) {
	l.queue.push(ctx, l.Now().Add(normalizeDelay(d)), 0, fn)
	l.notify()
}

// Every implements Scheduler.
func (l *Loop) Every(ctx context.Context, d time.Duration, fn func()) {
	d = normalizePeriod(d)
	l.queue.push(ctx, l.Now().Add(d), d, fn)
	l.notify()
}

// Post implements Scheduler.
func (l *Loop) Post(fn func()) {
	l.queue.push(context.Background(), l.Now(), 0, fn)
	l.notify()
}

// PostContext runs fn as soon as the loop is free unless ctx is done first.
func (l *Loop) PostContext(ctx context.Context, fn func()) {
	l.queue.push(ctx, l.Now(), 0, fn)
	l.notify()
}

// Pending returns the number of queued tasks that will still run.
func (l *Loop) Pending() int {
	return l.queue.live()
}

// Panics returns the number of tasks that panicked.
func (l *Loop) Panics() uint64 {
	return l.panics.Load()
}

// Run executes tasks until ctx is done. It returns nil on cancellation.
// Queued tasks are discarded when Run returns.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer l.running.Store(false)
	defer l.queue.clear()

	for {
		for {
			if ctx.Err() != nil {
				return nil
			}
			now := l.Now()
			t := l.queue.popDue(now)
			if t == nil {
				break
			}
			l.execute(t)
			if t.period > 0 && !t.cancelled() {
				l.queue.reschedule(t, l.Now())
			}
		}

		wait := idleWait
		if due, ok := l.queue.nextDue(); ok {
			wait = due.Sub(l.Now())
		}
		if wait <= 0 {
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-l.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// IsRunning reports whether Run is executing.
func (l *Loop) IsRunning() bool {
	return l.running.Load()
}

// execute runs a task, recovering and logging panics.
func (l *Loop) execute(t *task) {
	defer func() {
		if r := recover(); r != nil {
			l.panics.Add(1)
			l.logger.Error("scheduled task panicked",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()
	t.fn()
}

// notify wakes Run so it can re-evaluate the next due time.
func (l *Loop) notify() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
