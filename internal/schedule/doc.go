// Package schedule provides the cooperative scheduler that all game logic
// runs on.
//
// A Scheduler executes tasks one at a time. Tasks never run in parallel
// with each other, so a task and every synchronous publish it performs
// complete before the next task starts. Waiting is expressed as a task
// scheduled for later rather than as blocking.
//
// Every task is bound to a context.Context. When the context is done the
// task is dropped without running; this is how owners cancel the timers
// they started:
//
//	ctx, cancel := context.WithCancel(parent)
//	sched.Every(ctx, interval, tick)
//	// later
//	cancel() // pending ticks become no-ops
//
// Two implementations are provided. Loop runs against the wall clock on
// the goroutine that calls Run and accepts work from any goroutine.
// Manual uses a virtual clock that only moves when Advance is called,
// which makes timing-dependent behaviour deterministic in tests and
// headless simulations.
package schedule
