// Package dispatch delivers lifecycle states to a subscriber from a single
// background worker.
//
// Producers call [Pipeline.Enqueue], which never blocks: states go into an
// unbounded FIFO. One goroutine running [Pipeline.Run] drains the FIFO and
// invokes the [Handler] synchronously, one state at a time, in arrival order.
// A handler that needs to do slow work should hand it off to its own
// goroutine, otherwise later states wait behind it.
//
// # Shutdown
//
// [Pipeline.Close] stops accepting states. With [Drain] the worker delivers
// everything already queued and then exits; with [Discard] it drops pending
// states and exits after the callback in flight, if any. [Pipeline.Abandon]
// turns a drain into a discard, which callers use when a bounded wait for the
// drain expires.
//
// # Failures
//
// A panic in the handler is recovered at the worker boundary, logged with its
// stack, and counted. The worker moves on to the next state.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package dispatch
