// Package app wires the pkgwatch daemon: a manifest directory host, the
// package observer, and the configured outputs.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/bft-labs/pkgwatch/internal/cliconfig"
	"github.com/bft-labs/pkgwatch/pkg/dispatch"
	"github.com/bft-labs/pkgwatch/pkg/lifecycle"
	"github.com/bft-labs/pkgwatch/pkg/log"
	"github.com/bft-labs/pkgwatch/pkg/metrics"
	"github.com/bft-labs/pkgwatch/pkg/observer"
	"github.com/bft-labs/pkgwatch/pkg/state"
	"github.com/bft-labs/pkgwatch/plugins/dirhost"
	"github.com/bft-labs/pkgwatch/plugins/natssink"
)

// Daemon runs one observer over a manifest directory until its context ends.
type Daemon struct {
	cfg    cliconfig.Config
	base   log.Logger
	logger log.Logger
	extra  dispatch.Handlers

	backoffInitial time.Duration
	backoffMax     time.Duration

	mu          sync.Mutex
	metricsAddr string
	obs         *observer.Observer
	ready       chan struct{}
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithHandler adds a handler that receives every state after the built-in
// outputs.
func WithHandler(h dispatch.Handler) Option {
	return func(d *Daemon) {
		if h != nil {
			d.extra = append(d.extra, h)
		}
	}
}

// WithBackoff sets the retry bounds used while waiting for the manifest
// directory to appear.
func WithBackoff(initial, max time.Duration) Option {
	return func(d *Daemon) {
		d.backoffInitial = initial
		d.backoffMax = max
	}
}

// NewDaemon builds a daemon. cfg must already be validated.
func NewDaemon(cfg cliconfig.Config, logger log.Logger, opts ...Option) *Daemon {
	d := &Daemon{
		cfg:            cfg,
		base:           logger,
		logger:         log.WithComponent(logger, "daemon"),
		backoffInitial: DefaultBackoffInitial,
		backoffMax:     DefaultBackoffMax,
		ready:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Ready is closed once the observer is running.
func (d *Daemon) Ready() <-chan struct{} { return d.ready }

// MetricsAddr returns the address the metrics endpoint listens on, or "" if
// metrics are disabled or not started yet.
func (d *Daemon) MetricsAddr() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.metricsAddr
}

// Stats returns the observer counters, or zero values before Ready.
func (d *Daemon) Stats() observer.Stats {
	d.mu.Lock()
	obs := d.obs
	d.mu.Unlock()
	if obs == nil {
		return observer.Stats{}
	}
	return obs.Stats()
}

// Run blocks until ctx is done, then releases the observer and closes every
// output. A cancelled context is a clean shutdown and returns nil.
func (d *Daemon) Run(ctx context.Context) error {
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if d.cfg.MetricsAddr != "" {
		reg := prom.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder = metrics.NewPrometheusRecorder(reg)

		stop, err := d.serveMetrics(reg)
		if err != nil {
			return err
		}
		defer stop()
	}

	handlers := dispatch.Handlers{dispatch.HandlerFunc(d.logState)}
	if d.cfg.NATSURL != "" {
		sink, err := natssink.Connect(d.cfg.NATSURL, d.cfg.NATSSubject, d.base)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := sink.Close(); cerr != nil {
				d.logger.Warn("nats close failed", log.Err(cerr))
			}
		}()
		handlers = append(handlers, sink)
	}
	handlers = append(handlers, d.extra...)

	host, err := d.openHost(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	defer func() {
		if cerr := host.Close(); cerr != nil {
			d.logger.Warn("manifest watcher close failed", log.Err(cerr))
		}
	}()

	obs, err := observer.New(host, handlers,
		observer.WithLogger(d.base),
		observer.WithMetrics(recorder),
		observer.WithShutdownPolicy(d.cfg.Policy()),
		observer.WithShutdownTimeout(d.cfg.ShutdownTimeout),
		observer.WithEventHandler(lifecycleLogger{d.logger}),
	)
	if err != nil {
		return fmt.Errorf("start observer: %w", err)
	}

	d.mu.Lock()
	d.obs = obs
	d.mu.Unlock()
	close(d.ready)

	<-ctx.Done()
	d.logger.Info("shutting down", log.String("policy", d.cfg.ShutdownPolicy))

	if err := obs.Release(); err != nil {
		return fmt.Errorf("release observer: %w", err)
	}
	return nil
}

// openHost retries until the manifest directory can be watched.
func (d *Daemon) openHost(ctx context.Context) (*dirhost.Host, error) {
	b := newBackoff(d.backoffInitial, d.backoffMax)
	for {
		_, err := os.Stat(d.cfg.Dir)
		if err == nil {
			return dirhost.Open(d.cfg.Dir, dirhost.Config{
				ReplaceWindow: d.cfg.ReplaceWindow,
				Logger:        d.base,
			})
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", d.cfg.Dir, err)
		}

		d.logger.Warn("manifest directory not available, retrying",
			log.String("dir", d.cfg.Dir),
			log.Duration("retry_in", b.Current()),
		)
		if werr := b.Wait(ctx); werr != nil {
			return nil, werr
		}
	}
}

func (d *Daemon) serveMetrics(reg *prom.Registry) (func(), error) {
	ln, err := net.Listen("tcp", d.cfg.MetricsAddr)
	if err != nil {
		return nil, fmt.Errorf("listen metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	d.mu.Lock()
	d.metricsAddr = ln.Addr().String()
	d.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error("metrics server failed", log.Err(err))
		}
	}()
	d.logger.Info("serving metrics", log.String("addr", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func (d *Daemon) logState(s state.LifecycleState) {
	d.logger.Info("package state changed",
		log.String("package", s.Package()),
		log.Stringer("state", s.Kind()),
	)
}

type lifecycleLogger struct{ logger log.Logger }

func (l lifecycleLogger) OnStateChange(previous, current lifecycle.State, reason string) {
	l.logger.Debug("observer state",
		log.Stringer("from", previous),
		log.Stringer("to", current),
		log.String("reason", reason),
	)
}
