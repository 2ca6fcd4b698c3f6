package dispatch

import (
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bft-labs/pkgwatch/pkg/log"
	"github.com/bft-labs/pkgwatch/pkg/metrics"
	"github.com/bft-labs/pkgwatch/pkg/state"
)

var (
	// ErrClosed is returned by Enqueue after Close.
	ErrClosed = errors.New("pkgwatch: dispatch pipeline closed")

	// ErrAlreadyRunning is returned when Run is called while a worker is active.
	ErrAlreadyRunning = errors.New("pkgwatch: dispatch worker already running")
)

// Stats is a snapshot of pipeline counters.
type Stats struct {
	Enqueued  uint64
	Delivered uint64
	Discarded uint64
	Rejected  uint64
	Panics    uint64
}

type entry struct {
	state    state.LifecycleState
	enqueued time.Time
}

// Pipeline is a single-consumer ordered delivery queue.
type Pipeline struct {
	handler  Handler
	logger   log.Logger
	recorder metrics.Recorder

	mu        sync.Mutex
	queue     []entry
	closed    bool
	policy    Policy
	abandoned bool

	wake    chan struct{}
	done    chan struct{}
	running atomic.Bool

	enqueued  atomic.Uint64
	delivered atomic.Uint64
	discarded atomic.Uint64
	rejected  atomic.Uint64
	panics    atomic.Uint64
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(l log.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// New creates a pipeline delivering to handler. The worker is not started;
// run it with go p.Run().
func New(handler Handler, opts ...Option) *Pipeline {
	if handler == nil {
		handler = HandlerFunc(func(state.LifecycleState) {})
	}
	p := &Pipeline{
		handler:  handler,
		logger:   log.NewNoopLogger(),
		recorder: metrics.NoopRecorder{},
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Enqueue appends s to the queue without blocking.
func (p *Pipeline) Enqueue(s state.LifecycleState) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.rejected.Add(1)
		p.recorder.IncRejected()
		return ErrClosed
	}
	p.queue = append(p.queue, entry{state: s, enqueued: time.Now()})
	depth := len(p.queue)
	p.mu.Unlock()

	p.enqueued.Add(1)
	p.recorder.SetQueueDepth(depth)
	p.signal()
	return nil
}

// Run is the worker loop. It blocks until the pipeline is closed and the
// shutdown policy has been applied, then closes Done.
func (p *Pipeline) Run() error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(p.done)

	p.logger.Debug("dispatch worker started")
	for {
		e, ok := p.next()
		if !ok {
			p.logger.Debug("dispatch worker exited",
				log.Uint64("delivered", p.delivered.Load()),
				log.Uint64("discarded", p.discarded.Load()),
			)
			return nil
		}
		p.deliver(e)
	}
}

// next blocks until an entry is available or the worker should exit.
func (p *Pipeline) next() (entry, bool) {
	for {
		p.mu.Lock()
		stop := p.abandoned || (p.closed && (p.policy == Discard || len(p.queue) == 0))
		if stop {
			dropped := len(p.queue)
			p.queue = nil
			p.mu.Unlock()

			if dropped > 0 {
				p.discarded.Add(uint64(dropped))
				p.recorder.IncDiscarded(dropped)
				p.logger.Warn("discarded pending states", log.Int("count", dropped))
			}
			p.recorder.SetQueueDepth(0)
			return entry{}, false
		}

		if len(p.queue) > 0 {
			e := p.queue[0]
			p.queue[0] = entry{}
			p.queue = p.queue[1:]
			depth := len(p.queue)
			p.mu.Unlock()

			p.recorder.SetQueueDepth(depth)
			return e, true
		}
		p.mu.Unlock()

		<-p.wake
	}
}

func (p *Pipeline) deliver(e entry) {
	defer func() {
		if r := recover(); r != nil {
			p.panics.Add(1)
			p.recorder.IncSubscriberPanic()
			p.logger.Error("subscriber panicked",
				log.Stringer("state", e.state),
				log.Any("panic", r),
				log.String("stack", string(debug.Stack())),
			)
		}
	}()

	p.handler.OnPackageStateChanged(e.state)

	p.delivered.Add(1)
	p.recorder.IncDelivered(e.state.Kind().Name())
	p.recorder.ObserveDeliveryLatency(time.Since(e.enqueued))
}

// Close stops accepting states and tells the worker to finish according to
// policy. Only the first call has effect.
func (p *Pipeline) Close(policy Policy) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.policy = policy
	pending := len(p.queue)
	p.mu.Unlock()

	p.logger.Debug("dispatch pipeline closing",
		log.String("policy", policy.String()),
		log.Int("pending", pending),
	)
	p.signal()
}

// Abandon closes the pipeline if needed and suppresses every delivery that
// has not started yet.
func (p *Pipeline) Abandon() {
	p.mu.Lock()
	p.closed = true
	p.abandoned = true
	p.mu.Unlock()
	p.signal()
}

// Done is closed when Run returns.
func (p *Pipeline) Done() <-chan struct{} {
	return p.done
}

// Pending returns the number of queued states.
func (p *Pipeline) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Closed reports whether Close or Abandon has been called.
func (p *Pipeline) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Stats returns a snapshot of the counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Enqueued:  p.enqueued.Load(),
		Delivered: p.delivered.Load(),
		Discarded: p.discarded.Load(),
		Rejected:  p.rejected.Load(),
		Panics:    p.panics.Load(),
	}
}

func (p *Pipeline) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}
