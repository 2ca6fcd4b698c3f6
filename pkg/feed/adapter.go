package feed

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/bft-labs/pkgwatch/pkg/classify"
	"github.com/bft-labs/pkgwatch/pkg/host"
	"github.com/bft-labs/pkgwatch/pkg/log"
	"github.com/bft-labs/pkgwatch/pkg/metrics"
)

var (
	// ErrRegistration is returned when the host refuses the receiver registration.
	ErrRegistration = errors.New("pkgwatch: feed registration failed")

	// ErrNilCallback is returned by Start when no callback is supplied.
	ErrNilCallback = errors.New("pkgwatch: feed callback is nil")
)

var actionMap = map[string]classify.Action{
	host.ActionPackageAdded:        classify.ActionAdded,
	host.ActionPackageReplaced:     classify.ActionReplaced,
	host.ActionPackageRemoved:      classify.ActionRemoved,
	host.ActionPackageFullyRemoved: classify.ActionFullyRemoved,
	host.ActionPackageChanged:      classify.ActionChanged,
}

// Filter returns the fixed host filter used by every adapter.
func Filter() host.Filter {
	return host.Filter{
		Actions: []string{
			host.ActionPackageAdded,
			host.ActionPackageChanged,
			host.ActionPackageRemoved,
			host.ActionPackageFullyRemoved,
			host.ActionPackageReplaced,
		},
		Schemes: []string{host.SchemePackage},
	}
}

// ToSignal converts an intent into a RawSignal. It returns false for actions
// outside the filter.
func ToSignal(intent host.Intent) (classify.RawSignal, bool) {
	action, ok := actionMap[intent.Action]
	if !ok {
		return classify.RawSignal{}, false
	}
	return classify.RawSignal{
		Action:  action,
		Package: intent.SchemeSpecificPart(),
		Flags: classify.Flags{
			Replacing:   intent.BoolExtra(host.ExtraReplacing),
			DataRemoved: intent.BoolExtra(host.ExtraDataRemoved),
		},
	}, true
}

// Handle identifies a started subscription.
type Handle struct {
	id uuid.UUID
}

// ID returns the handle identifier; uuid.Nil for the zero handle.
func (h Handle) ID() uuid.UUID { return h.id }

type subscription struct {
	reg      host.Registration
	onSignal func(classify.RawSignal)
	active   atomic.Bool
}

// Adapter registers with a host and forwards raw signals.
type Adapter struct {
	host     host.Context
	logger   log.Logger
	recorder metrics.Recorder

	mu   sync.Mutex
	subs map[uuid.UUID]*subscription
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter logger.
func WithLogger(l log.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(a *Adapter) {
		if r != nil {
			a.recorder = r
		}
	}
}

// New creates an Adapter for the given host.
func New(ctx host.Context, opts ...Option) *Adapter {
	a := &Adapter{
		host:     ctx,
		logger:   log.NewNoopLogger(),
		recorder: metrics.NoopRecorder{},
		subs:     make(map[uuid.UUID]*subscription),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start registers with the host. onSignal is called synchronously for every
// matching intent until Stop is called.
func (a *Adapter) Start(onSignal func(classify.RawSignal)) (Handle, error) {
	if onSignal == nil {
		return Handle{}, ErrNilCallback
	}
	if a.host == nil {
		return Handle{}, fmt.Errorf("%w: no host context", ErrRegistration)
	}

	sub := &subscription{onSignal: onSignal}
	sub.active.Store(true)

	reg, err := a.host.RegisterReceiver(Filter(), host.ReceiverFunc(func(intent host.Intent) {
		a.receive(sub, intent)
	}))
	if err != nil {
		return Handle{}, fmt.Errorf("%w: %w", ErrRegistration, err)
	}
	sub.reg = reg

	h := Handle{id: uuid.New()}
	a.mu.Lock()
	a.subs[h.id] = sub
	a.mu.Unlock()

	a.logger.Info("feed started", log.String("handle", h.id.String()))
	return h, nil
}

// Stop deregisters the subscription identified by h. Stopping a zero,
// unknown or already stopped handle is a no-op.
func (a *Adapter) Stop(h Handle) error {
	a.mu.Lock()
	sub, ok := a.subs[h.id]
	delete(a.subs, h.id)
	a.mu.Unlock()

	if !ok {
		return nil
	}

	// Deliveries already in flight on the host goroutine are dropped from here on.
	sub.active.Store(false)

	if err := a.host.UnregisterReceiver(sub.reg); err != nil && !errors.Is(err, host.ErrNotRegistered) {
		a.logger.Warn("feed deregistration failed",
			log.String("handle", h.id.String()),
			log.Err(err),
		)
		return fmt.Errorf("unregister receiver: %w", err)
	}

	a.logger.Info("feed stopped", log.String("handle", h.id.String()))
	return nil
}

// Active returns the number of started subscriptions.
func (a *Adapter) Active() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.subs)
}

func (a *Adapter) receive(sub *subscription, intent host.Intent) {
	if !sub.active.Load() {
		return
	}

	sig, ok := ToSignal(intent)
	if !ok {
		return
	}

	a.logger.Debug("intent received",
		log.String("action", sig.Action.String()),
		log.String("package", sig.Package),
		log.String("extras", formatExtras(intent.Extras)),
	)
	a.recorder.IncSignal(sig.Action.String())

	sub.onSignal(sig)
}

func formatExtras(extras map[string]bool) string {
	if len(extras) == 0 {
		return ""
	}
	keys := make([]string, 0, len(extras))
	for k := range extras {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := ""
	for i, k := range keys {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%t", k, extras[k])
	}
	return out
}
