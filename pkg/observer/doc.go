// Package observer watches package lifecycle signals on a host and delivers
// classified lifecycle states to a subscriber.
//
// # Basic Usage
//
//	broadcaster := host.NewBroadcaster(nil)
//
//	obs, err := observer.NewFunc(broadcaster, func(s state.LifecycleState) {
//	    fmt.Println("package state changed:", s)
//	})
//	if err != nil {
//	    log.Fatal(err) // wraps feed.ErrRegistration
//	}
//	defer obs.Release()
//
// New registers with the host immediately. Callbacks run on a dedicated
// worker goroutine, one at a time, in the order the host delivered the
// signals. Handlers that need to touch a UI or do slow I/O should hand the
// state off instead of doing the work inline.
//
// # Release
//
// [Observer.Release] deregisters from the host first, then drains the
// delivery queue (or discards it, see [WithShutdownPolicy]) within the
// shutdown timeout. If the timeout expires, pending states are dropped,
// no further callbacks fire, and [lifecycle.ErrShutdownTimeout] is returned.
// Calling Release again is a no-op.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package observer
