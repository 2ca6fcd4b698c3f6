// Package pkgwatch observes package lifecycle changes on a host and reports
// them as LifecycleState values.
//
// Example usage:
//
//	b := host.NewBroadcaster(nil) // or dirhost.Open(dir, dirhost.DefaultConfig())
//	obs, err := pkgwatch.NewFunc(b, func(s pkgwatch.LifecycleState) {
//	    fmt.Println(s.Package(), s.Kind())
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer obs.Release()
package pkgwatch

import (
	"github.com/bft-labs/pkgwatch/pkg/dispatch"
	"github.com/bft-labs/pkgwatch/pkg/host"
	"github.com/bft-labs/pkgwatch/pkg/observer"
	"github.com/bft-labs/pkgwatch/pkg/state"
)

// Observer delivers classified lifecycle states to one handler.
type Observer = observer.Observer

// Option configures an Observer.
type Option = observer.Option

// LifecycleState pairs a package identifier with its new state.
type LifecycleState = state.LifecycleState

// Kind is a package lifecycle state.
type Kind = state.Kind

// Handler receives lifecycle states on the observer's delivery goroutine.
type Handler = dispatch.Handler

// HandlerFunc adapts a function to Handler.
type HandlerFunc = dispatch.HandlerFunc

// Handlers fans each state out to several handlers in order.
type Handlers = dispatch.Handlers

// Lifecycle kinds.
const (
	Installed             = state.Installed
	Updating              = state.Updating
	Updated               = state.Updated
	Removed               = state.Removed
	FullyRemoved          = state.FullyRemoved
	UpdateRemoved         = state.UpdateRemoved
	ChangeEnabledSettings = state.ChangeEnabledSettings
)

// New registers with the host and starts delivering states to handler.
// Call Release on the returned Observer to stop.
func New(ctx host.Context, handler Handler, opts ...Option) (*Observer, error) {
	return observer.New(ctx, handler, opts...)
}

// NewFunc is New with a plain callback.
func NewFunc(ctx host.Context, fn func(LifecycleState), opts ...Option) (*Observer, error) {
	return observer.NewFunc(ctx, fn, opts...)
}

// Version is the observer module version.
const Version = observer.Version
