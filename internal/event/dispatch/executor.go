package dispatch

import (
	"context"
	"runtime/debug"
	"time"
)

// Executor handles the actual execution of event handlers with
// panic recovery and timing.
type Executor struct {
	panicHandler PanicHandler
	now          func() time.Time
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		panicHandler: defaultPanicHandler,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithExecutorPanicHandler sets the panic handler for the executor.
func WithExecutorPanicHandler(h PanicHandler) ExecutorOption {
	return func(e *Executor) {
		if h != nil {
			e.panicHandler = h
		}
	}
}

// Execute runs a handler with the given event and returns the result.
// It recovers from panics and captures timing information.
func (e *Executor) Execute(ctx context.Context, event any, handler Handler) (result Result) {
	if err := ctx.Err(); err != nil {
		return Result{Error: err, Skipped: true}
	}

	start := e.now()

	defer func() {
		result.Duration = e.now().Sub(start)

		if r := recover(); r != nil {
			stack := debug.Stack()

			result.Success = false
			result.Panicked = true
			result.PanicValue = r
			result.PanicStack = stack

			// A panicking panic handler must not escape either.
			func() {
				defer func() { _ = recover() }()
				e.panicHandler(event, r, stack)
			}()
		}
	}()

	if err := handler.Handle(ctx, event); err != nil {
		result.Error = err
		return result
	}
	result.Success = true
	return result
}
