// Package lifecycle provides the state machine that guards an observer's
// start and release, plus a bounded join for its worker goroutine.
//
// # Usage
//
//	manager := lifecycle.NewManager(logger, emitter)
//
//	if err := manager.TransitionTo(lifecycle.StateStarting, "constructing"); err != nil {
//	    return err
//	}
//
//	manager.AddWorker()
//	go func() {
//	    defer manager.WorkerDone()
//	    pipeline.Run()
//	}()
//
//	// Release
//	if err := manager.WaitWithTimeout(5 * time.Second); err != nil {
//	    return err // lifecycle.ErrShutdownTimeout
//	}
//
// # State Machine
//
// Valid state transitions:
//   - Idle -> Starting
//   - Starting -> Running, Failed
//   - Running -> Releasing
//   - Releasing -> Released
//
// Released and Failed are terminal: an observer is never restarted.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package lifecycle
