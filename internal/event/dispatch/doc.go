// Package dispatch executes event handlers on behalf of the event bus.
//
// Delivery is synchronous: a handler runs on the publisher's goroutine and
// the dispatcher returns only after it completes. This keeps the game's
// cooperative model intact, since every publish and its subscriber chain
// finish before the scheduler runs the next task.
//
// # Panic Recovery
//
// The executor recovers from panics in handlers so that one misbehaving
// subscriber cannot take down the rest of a dispatch pass. Panics are
// reported in the Result and via a configurable PanicHandler callback.
//
// # Usage
//
//	dispatcher := dispatch.NewSyncDispatcher(
//	    dispatch.WithPanicHandler(func(event any, v any, stack []byte) {
//	        logger.Error("handler panic", zap.Any("value", v), zap.ByteString("stack", stack))
//	    }),
//	)
//	result := dispatcher.Dispatch(ctx, event, handler)
//	if !result.IsSuccess() {
//	    // Handle error or panic
//	}
package dispatch
