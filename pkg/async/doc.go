// Package async runs functions in the background and hands back a Future
// for their result.
//
// A Queue runs its tasks one after another on a single goroutine, so their
// side effects happen in submission order. Close stops accepting new work
// and waits for what is still queued:
//
//	var q async.Queue
//	f := async.Submit(&q, ctx, ev, publish)
//	// caller may ignore f entirely
//	...
//	_ = q.Close(shutdownCtx)
//
// Futures are completed exactly once. A cancelled context completes the
// future with ctx.Err() without calling the function, and a panicking
// function completes it with ErrPanic.
package async
