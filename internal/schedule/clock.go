package schedule

import (
	"context"
	"time"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// Scheduler runs tasks cooperatively on a single logical thread.
type Scheduler interface {
	Clock

	// AfterFunc runs fn once, d from now, unless ctx is done first.
	AfterFunc(ctx context.Context, d time.Duration, fn func())

	// Every runs fn every d, first d from now, until ctx is done.
	Every(ctx context.Context, d time.Duration, fn func())

	// Post runs fn as soon as the scheduler is free.
	Post(fn func())
}

// SystemClock is a Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// MinInterval is the shortest period accepted by Every.
const MinInterval = time.Millisecond
