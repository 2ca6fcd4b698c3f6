package host

import (
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrClosed is returned when registering with a closed host.
	ErrClosed = errors.New("pkgwatch: host closed")

	// ErrNotRegistered is returned when unregistering an unknown registration.
	ErrNotRegistered = errors.New("pkgwatch: receiver not registered")
)

// Receiver handles intents delivered by a host.
type Receiver interface {
	OnReceive(intent Intent)
}

// ReceiverFunc adapts a function to Receiver.
type ReceiverFunc func(intent Intent)

// OnReceive calls f(intent).
func (f ReceiverFunc) OnReceive(intent Intent) { f(intent) }

// Registration identifies a registered receiver.
type Registration struct {
	ID uuid.UUID
}

// IsZero reports whether r was never issued by a host.
func (r Registration) IsZero() bool {
	return r.ID == uuid.Nil
}

// Context is the host registration contract.
type Context interface {
	// RegisterReceiver starts delivering intents matching filter to r.
	RegisterReceiver(filter Filter, r Receiver) (Registration, error)

	// UnregisterReceiver stops delivery for a registration.
	UnregisterReceiver(reg Registration) error
}
