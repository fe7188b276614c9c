package schedule

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// task is a unit of scheduled work.
type task struct {
	due    time.Time
	seq    uint64
	ctx    context.Context
	fn     func()
	period time.Duration // zero for one-shot tasks
}

// cancelled reports whether the task's owner has given it up.
func (t *task) cancelled() bool {
	return t.ctx.Err() != nil
}

// taskHeap is a min-heap of tasks ordered by due time, then submission order.
type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}
func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) {
	*h = append(*h, x.(*task)) //nolint:errcheck // heap.Interface requires any; we only push *task
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// queue is a goroutine-safe task heap shared by the scheduler implementations.
type queue struct {
	mu    sync.Mutex
	tasks taskHeap
	seq   uint64
}

// push schedules fn at due. Tasks with a nil context are never cancelled.
func (q *queue) push(ctx context.Context, due time.Time, period time.Duration, fn func()) {
	if ctx == nil {
		ctx = context.Background()
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.seq++
	heap.Push(&q.tasks, &task{
		due:    due,
		seq:    q.seq,
		ctx:    ctx,
		fn:     fn,
		period: period,
	})
}

// reschedule re-queues a periodic task for its next period.
func (q *queue) reschedule(t *task, now time.Time) {
	next := t.due.Add(t.period)
	if next.Before(now) {
		next = now.Add(t.period)
	}
	q.push(t.ctx, next, t.period, t.fn)
}

// popDue removes and returns the earliest task due at or before now.
// Cancelled tasks are discarded on the way. It returns nil if nothing is due.
func (q *queue) popDue(now time.Time) *task {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.tasks.Len() > 0 {
		next := q.tasks[0]
		if next.cancelled() {
			heap.Pop(&q.tasks)
			continue
		}
		if next.due.After(now) {
			return nil
		}
		return heap.Pop(&q.tasks).(*task) //nolint:errcheck // only *task is pushed
	}
	return nil
}

// nextDue returns the due time of the earliest live task.
func (q *queue) nextDue() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.tasks.Len() > 0 {
		if q.tasks[0].cancelled() {
			heap.Pop(&q.tasks)
			continue
		}
		return q.tasks[0].due, true
	}
	return time.Time{}, false
}

// live returns the number of queued tasks whose context is not done.
func (q *queue) live() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for _, t := range q.tasks {
		if !t.cancelled() {
			n++
		}
	}
	return n
}

// clear drops every queued task.
func (q *queue) clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.tasks = nil
}

func normalizeDelay(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

func normalizePeriod(d time.Duration) time.Duration {
	if d < MinInterval {
		return MinInterval
	}
	return d
}
