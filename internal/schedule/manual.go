package schedule

import (
	"context"
	"time"
)

// Epoch is the default start time of a Manual scheduler.
var Epoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Manual is a Scheduler driven by a virtual clock. Time only moves when
// Advance is called, and tasks run on the caller's goroutine.
//
// Panics raised by tasks are not recovered.
type Manual struct {
	now   time.Time
	queue queue
}

// NewManual creates a Manual scheduler starting at start.
// A zero start uses Epoch.
func NewManual(start time.Time) *Manual {
	if start.IsZero() {
		start = Epoch
	}
	return &Manual{now: start}
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time {
	return m.now
}

// AfterFunc implements Scheduler.
func (m *Manual) AfterFunc(ctx context.Context, d time.Duration, fn func()) {
	m.queue.push(ctx, m.now.Add(normalizeDelay(d)), 0, fn)
}

// Every implements Scheduler.
func (m *Manual) Every(ctx context.Context, d time.Duration, fn func()) {
	d = normalizePeriod(d)
	m.queue.push(ctx, m.now.Add(d), d, fn)
}

// Post implements Scheduler.
func (m *Manual) Post(fn func()) {
	m.queue.push(context.Background(), m.now, 0, fn)
}

// Advance moves the clock forward by d, running every task that falls
// due on the way. The clock is set to each task's due time while it runs.
// It returns the number of tasks executed.
func (m *Manual) Advance(d time.Duration) int {
	target := m.now.Add(normalizeDelay(d))
	ran := 0
	for {
		t := m.queue.popDue(target)
		if t == nil {
			break
		}
		if t.due.After(m.now) {
			m.now = t.due
		}
		m.run(t)
		ran++
	}
	m.now = target
	return ran
}

// RunPending runs every task due at the current time, including tasks
// those tasks schedule with no delay. It returns the number executed.
func (m *Manual) RunPending() int {
	return m.Advance(0)
}

// Pending returns the number of queued tasks that will still run.
func (m *Manual) Pending() int {
	return m.queue.live()
}

// NextDue returns the due time of the earliest queued task.
func (m *Manual) NextDue() (time.Time, bool) {
	return m.queue.nextDue()
}

func (m *Manual) run(t *task) {
	t.fn()
	if t.period > 0 && !t.cancelled() {
		m.queue.reschedule(t, m.now)
	}
}
