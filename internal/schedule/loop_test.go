package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func runLoop(t *testing.T, l *Loop) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	return cancel, done
}

func TestLoop_RunsPostedTasks(t *testing.T) {
	l := NewLoop()
	cancel, done := runLoop(t, l)

	var mu sync.Mutex
	var order []int
	finished := make(chan struct{})
	for i := 1; i <= 3; i++ {
		i := i
		l.Post(func() {
			mu.Lock()
			order = append(order, i)
			n := len(order)
			mu.Unlock()
			if n == 3 {
				close(finished)
			}
		})
	}

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("posted tasks did not run")
	}

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestLoop_AfterFuncAndEvery(t *testing.T) {
	l := NewLoop()
	cancel, done := runLoop(t, l)
	defer func() {
		cancel()
		<-done
	}()

	fired := make(chan struct{})
	l.AfterFunc(context.Background(), 5*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("AfterFunc task did not run")
	}

	tickCtx, stop := context.WithCancel(context.Background())
	ticks := make(chan struct{}, 10)
	l.Every(tickCtx, 2*time.Millisecond, func() {
		ticks <- struct{}{}
	})

	for i := 0; i < 3; i++ {
		select {
		case <-ticks:
		case <-time.After(2 * time.Second):
			t.Fatalf("tick %d did not arrive", i)
		}
	}
	stop()
}

func TestLoop_CancelledTaskDoesNotRun(t *testing.T) {
	l := NewLoop()

	ctx, cancel := context.WithCancel(context.Background())
	ran := make(chan struct{}, 1)
	l.AfterFunc(ctx, 10*time.Millisecond, func() { ran <- struct{}{} })
	cancel()
	assert.Equal(t, 0, l.Pending())

	stopLoop, done := runLoop(t, l)

	marker := make(chan struct{})
	l.AfterFunc(context.Background(), 30*time.Millisecond, func() { close(marker) })
	<-marker

	stopLoop()
	require.NoError(t, <-done)

	select {
	case <-ran:
		t.Fatal("cancelled task ran")
	default:
	}
}

func TestLoop_RecoversPanics(t *testing.T) {
	l := NewLoop(WithLoopLogger(zap.NewNop()))
	cancel, done := runLoop(t, l)

	after := make(chan struct{})
	l.Post(func() { panic("boom") })
	l.Post(func() { close(after) })

	select {
	case <-after:
	case <-time.After(2 * time.Second):
		t.Fatal("loop stopped after a panicking task")
	}

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, uint64(1), l.Panics())
}

func TestLoop_RunTwice(t *testing.T) {
	l := NewLoop()
	cancel, done := runLoop(t, l)

	started := make(chan struct{})
	l.Post(func() { close(started) })
	<-started

	assert.True(t, l.IsRunning())
	assert.ErrorIs(t, l.Run(context.Background()), ErrLoopRunning)

	cancel()
	require.NoError(t, <-done)
	assert.False(t, l.IsRunning())
}
