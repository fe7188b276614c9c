package dispatch

import (
	"context"
	"sync/atomic"
	"time"
)

// SyncDispatcher executes handlers synchronously in the caller's goroutine.
// It provides panic recovery and context support.
type SyncDispatcher struct {
	executor *Executor

	dispatched  atomic.Uint64
	succeeded   atomic.Uint64
	failed      atomic.Uint64
	panicked    atomic.Uint64
	skipped     atomic.Uint64
	totalTimeNs atomic.Int64
}

// NewSyncDispatcher creates a new synchronous dispatcher.
func NewSyncDispatcher(opts ...SyncOption) *SyncDispatcher {
	d := &SyncDispatcher{
		executor: NewExecutor(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SyncOption configures a SyncDispatcher.
type SyncOption func(*SyncDispatcher)

// WithPanicHandler sets the panic handler for the dispatcher.
func WithPanicHandler(h PanicHandler) SyncOption {
	return func(d *SyncDispatcher) {
		d.executor = NewExecutor(WithExecutorPanicHandler(h))
	}
}

// Dispatch executes a handler synchronously with the given event.
// It blocks until the handler completes or panics.
func (d *SyncDispatcher) Dispatch(ctx context.Context, event any, handler Handler) Result {
	d.dispatched.Add(1)

	result := d.executor.Execute(ctx, event, handler)

	d.totalTimeNs.Add(result.Duration.Nanoseconds())

	switch {
	case result.Skipped:
		d.skipped.Add(1)
	case result.Panicked:
		d.panicked.Add(1)
	case result.Error != nil:
		d.failed.Add(1)
	case result.Success:
		d.succeeded.Add(1)
	}

	return result
}

// DispatchAll executes multiple handlers sequentially.
// Returns results for all handlers in order. A failing handler does not
// stop later handlers; a cancelled context marks the rest as skipped.
func (d *SyncDispatcher) DispatchAll(ctx context.Context, event any, handlers []Handler) []Result {
	results := make([]Result, len(handlers))
	for i, handler := range handlers {
		results[i] = d.Dispatch(ctx, event, handler)
	}
	return results
}

// Stats returns dispatch statistics.
func (d *SyncDispatcher) Stats() SyncDispatcherStats {
	dispatched := d.dispatched.Load()
	totalNs := d.totalTimeNs.Load()

	var avgNs int64
	if dispatched > 0 {
		avgNs = totalNs / int64(dispatched)
	}

	return SyncDispatcherStats{
		Dispatched:    dispatched,
		Succeeded:     d.succeeded.Load(),
		Failed:        d.failed.Load(),
		Panicked:      d.panicked.Load(),
		Skipped:       d.skipped.Load(),
		TotalDuration: time.Duration(totalNs),
		AvgDuration:   time.Duration(avgNs),
	}
}

// SyncDispatcherStats contains statistics for a sync dispatcher.
type SyncDispatcherStats struct {
	Dispatched    uint64
	Succeeded     uint64
	Failed        uint64
	Panicked      uint64
	Skipped       uint64
	TotalDuration time.Duration
	AvgDuration   time.Duration
}
