package host

import (
	"sync"

	"github.com/google/uuid"

	"github.com/bft-labs/pkgwatch/pkg/log"
)

type registration struct {
	id       uuid.UUID
	filter   Filter
	receiver Receiver
}

// Broadcaster is an in-process Context. Broadcast delivers synchronously on
// the caller's goroutine, to matching receivers in registration order.
type Broadcaster struct {
	mu     sync.RWMutex
	regs   []registration
	closed bool
	logger log.Logger
}

// NewBroadcaster creates an open Broadcaster. A nil logger discards output.
func NewBroadcaster(logger log.Logger) *Broadcaster {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Broadcaster{logger: logger}
}

// RegisterReceiver implements Context.
func (b *Broadcaster) RegisterReceiver(filter Filter, r Receiver) (Registration, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return Registration{}, ErrClosed
	}

	id := uuid.New()
	b.regs = append(b.regs, registration{id: id, filter: filter, receiver: r})
	b.logger.Debug("receiver registered",
		log.String("registration", id.String()),
		log.Int("actions", len(filter.Actions)),
	)
	return Registration{ID: id}, nil
}

// UnregisterReceiver implements Context.
func (b *Broadcaster) UnregisterReceiver(reg Registration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, r := range b.regs {
		if r.id == reg.ID {
			b.regs = append(b.regs[:i:i], b.regs[i+1:]...)
			b.logger.Debug("receiver unregistered", log.String("registration", reg.ID.String()))
			return nil
		}
	}
	return ErrNotRegistered
}

// Broadcast delivers the intent and returns the number of receivers reached.
// Receivers are invoked outside the lock, so they may register or unregister.
func (b *Broadcaster) Broadcast(intent Intent) int {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return 0
	}
	targets := make([]Receiver, 0, len(b.regs))
	for _, r := range b.regs {
		if r.filter.Matches(intent) {
			targets = append(targets, r.receiver)
		}
	}
	b.mu.RUnlock()

	for _, r := range targets {
		r.OnReceive(intent)
	}
	return len(targets)
}

// Receivers returns the number of active registrations.
func (b *Broadcaster) Receivers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.regs)
}

// Close drops all registrations and rejects new ones. It is idempotent.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.regs = nil
}

var _ Context = (*Broadcaster)(nil)
