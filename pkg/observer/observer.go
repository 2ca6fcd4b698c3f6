package observer

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/bft-labs/pkgwatch/pkg/classify"
	"github.com/bft-labs/pkgwatch/pkg/dispatch"
	"github.com/bft-labs/pkgwatch/pkg/feed"
	"github.com/bft-labs/pkgwatch/pkg/host"
	"github.com/bft-labs/pkgwatch/pkg/lifecycle"
	"github.com/bft-labs/pkgwatch/pkg/log"
	"github.com/bft-labs/pkgwatch/pkg/metrics"
	"github.com/bft-labs/pkgwatch/pkg/state"
)

var (
	// ErrNilHost is returned by New when no host context is supplied.
	ErrNilHost = errors.New("pkgwatch: host context is nil")

	// ErrNilHandler is returned by New when no handler is supplied.
	ErrNilHandler = errors.New("pkgwatch: handler is nil")
)

// Stats is a snapshot of observer counters.
type Stats struct {
	dispatch.Stats

	// Signals counts raw signals received from the host.
	Signals uint64
	// Ignored counts raw signals that classified to no state.
	Ignored uint64
}

// Observer ties the signal feed, classifier and dispatch pipeline together.
type Observer struct {
	opts      options
	logger    log.Logger
	recorder  metrics.Recorder
	lifecycle *lifecycle.DefaultManager
	feed      *feed.Adapter
	handle    feed.Handle
	pipeline  *dispatch.Pipeline

	signals atomic.Uint64
	ignored atomic.Uint64

	mu       sync.Mutex
	released bool
}

// New registers with the host and starts delivering lifecycle states to
// handler. If the host refuses the registration, New returns an error
// wrapping feed.ErrRegistration and nothing is left running.
func New(ctx host.Context, handler dispatch.Handler, opts ...Option) (*Observer, error) {
	if ctx == nil {
		return nil, ErrNilHost
	}
	if handler == nil {
		return nil, ErrNilHandler
	}

	// Validate module version compatibility
	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	obs := &Observer{
		opts:      o,
		logger:    log.WithComponent(o.logger, "observer"),
		recorder:  o.recorder,
		lifecycle: lifecycle.NewManager(o.logger, o.eventHandler),
	}

	if err := obs.lifecycle.TransitionTo(lifecycle.StateStarting, "New() called"); err != nil {
		return nil, err
	}

	obs.pipeline = dispatch.New(handler,
		dispatch.WithLogger(log.WithComponent(o.logger, "dispatch")),
		dispatch.WithRecorder(o.recorder),
	)

	obs.lifecycle.AddWorker()
	go func() {
		defer obs.lifecycle.WorkerDone()
		if err := obs.pipeline.Run(); err != nil {
			obs.logger.Error("dispatch worker error", log.Err(err))
		}
	}()

	obs.feed = feed.New(ctx,
		feed.WithLogger(log.WithComponent(o.logger, "feed")),
		feed.WithRecorder(o.recorder),
	)

	handle, err := obs.feed.Start(obs.onSignal)
	if err != nil {
		obs.logger.Error("host registration failed", log.Err(err))
		obs.pipeline.Close(dispatch.Discard)
		if waitErr := obs.lifecycle.WaitWithTimeout(o.shutdownTimeout); waitErr != nil {
			obs.pipeline.Abandon()
		}
		_ = obs.lifecycle.TransitionTo(lifecycle.StateFailed, "host registration failed")
		return nil, err
	}
	obs.handle = handle

	if err := obs.lifecycle.TransitionTo(lifecycle.StateRunning, "feed registered"); err != nil {
		return nil, err
	}
	obs.logger.Info("observer started",
		log.String("policy", o.policy.String()),
		log.Duration("shutdown_timeout", o.shutdownTimeout),
	)
	return obs, nil
}

// NewFunc is New with a plain callback.
func NewFunc(ctx host.Context, fn func(state.LifecycleState), opts ...Option) (*Observer, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return New(ctx, dispatch.HandlerFunc(fn), opts...)
}

// onSignal runs on the host's delivery goroutine.
func (o *Observer) onSignal(sig classify.RawSignal) {
	o.signals.Add(1)

	s, ok := classify.Resolve(sig)
	if !ok {
		o.ignored.Add(1)
		o.recorder.IncDropped(sig.Action.String())
		o.logger.Debug("signal ignored", log.Stringer("signal", sig))
		return
	}

	if err := o.pipeline.Enqueue(s); err != nil {
		o.logger.Debug("state dropped after release", log.Stringer("state", s))
		return
	}
	o.logger.Debug("state queued", log.Stringer("state", s))
}

// Release stops observing. The host registration is removed before the
// delivery worker is told to stop, so no new signals are classified while
// the queue winds down. Release is safe to call more than once; calls after
// the first return nil.
func (o *Observer) Release() error {
	o.mu.Lock()
	if o.released {
		o.mu.Unlock()
		return nil
	}
	o.released = true
	o.mu.Unlock()

	_ = o.lifecycle.TransitionTo(lifecycle.StateReleasing, "Release() called")

	stopErr := o.feed.Stop(o.handle)
	if stopErr != nil {
		o.logger.Warn("feed stop failed", log.Err(stopErr))
	}

	o.pipeline.Close(o.opts.policy)

	waitErr := o.lifecycle.WaitWithTimeout(o.opts.shutdownTimeout)
	if waitErr != nil {
		// The in-flight callback keeps running; nothing after it is delivered.
		o.pipeline.Abandon()
		_ = o.lifecycle.TransitionTo(lifecycle.StateReleased, "shutdown timeout")
	} else {
		_ = o.lifecycle.TransitionTo(lifecycle.StateReleased, "graceful release")
	}

	stats := o.pipeline.Stats()
	o.logger.Info("observer released",
		log.Uint64("delivered", stats.Delivered),
		log.Uint64("discarded", stats.Discarded),
	)

	return errors.Join(stopErr, waitErr)
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (o *Observer) Status() lifecycle.State {
	return o.lifecycle.State()
}

// Stats returns a snapshot of the observer counters.
func (o *Observer) Stats() Stats {
	return Stats{
		Stats:   o.pipeline.Stats(),
		Signals: o.signals.Load(),
		Ignored: o.ignored.Load(),
	}
}
