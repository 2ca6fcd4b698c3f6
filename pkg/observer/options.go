package observer

import (
	"time"

	"github.com/bft-labs/pkgwatch/pkg/dispatch"
	"github.com/bft-labs/pkgwatch/pkg/lifecycle"
	"github.com/bft-labs/pkgwatch/pkg/log"
	"github.com/bft-labs/pkgwatch/pkg/metrics"
)

// Option configures optional behavior of an Observer.
type Option func(*options)

// options holds the optional configuration for an Observer.
type options struct {
	logger          log.Logger
	recorder        metrics.Recorder
	policy          dispatch.Policy
	shutdownTimeout time.Duration
	eventHandler    lifecycle.EventEmitter
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{
		logger:          log.NewNoopLogger(),
		recorder:        metrics.NoopRecorder{},
		policy:          dispatch.Drain,
		shutdownTimeout: lifecycle.DefaultShutdownTimeout,
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics sets the recorder for feed and dispatch metrics.
func WithMetrics(r metrics.Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithShutdownPolicy chooses whether Release drains or discards queued states.
// The default is dispatch.Drain.
func WithShutdownPolicy(p dispatch.Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithShutdownTimeout bounds how long Release waits for the worker.
// Non-positive values keep the default of lifecycle.DefaultShutdownTimeout.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.shutdownTimeout = d
		}
	}
}

// WithEventHandler receives observer lifecycle transitions.
// Events are called synchronously from the goroutine causing the transition.
func WithEventHandler(h lifecycle.EventEmitter) Option {
	return func(o *options) {
		o.eventHandler = h
	}
}
