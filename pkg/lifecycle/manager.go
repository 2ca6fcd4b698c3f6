package lifecycle

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/pkgwatch/pkg/log"
)

// Common lifecycle errors.
var (
	ErrInvalidTransition = errors.New("pkgwatch: invalid lifecycle transition")
	ErrReleased          = errors.New("pkgwatch: observer released")
	ErrShutdownTimeout   = errors.New("pkgwatch: shutdown timeout")
)

// DefaultShutdownTimeout is the default maximum time to wait for the worker on release.
const DefaultShutdownTimeout = 5 * time.Second

var validTransitions = map[State][]State{
	StateIdle:      {StateStarting},
	StateStarting:  {StateRunning, StateFailed},
	StateRunning:   {StateReleasing},
	StateReleasing: {StateReleased},
}

// DefaultManager implements Manager with a state machine for lifecycle management.
type DefaultManager struct {
	mu           sync.RWMutex
	state        State
	wg           sync.WaitGroup
	logger       log.Logger
	eventEmitter EventEmitter
}

// NewManager creates a new lifecycle manager in StateIdle.
func NewManager(logger log.Logger, emitter EventEmitter) *DefaultManager {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &DefaultManager{
		state:        StateIdle,
		logger:       logger,
		eventEmitter: emitter,
	}
}

// State returns the current lifecycle state.
func (l *DefaultManager) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// TransitionTo attempts to transition to a new state.
// Returns an error wrapping ErrInvalidTransition (and ErrReleased when the
// current state is terminal) if the transition is not valid.
func (l *DefaultManager) TransitionTo(newState State, reason string) error {
	l.mu.Lock()
	oldState := l.state

	if !canTransition(oldState, newState) {
		l.mu.Unlock()
		if oldState.Terminal() {
			return fmt.Errorf("%w: %w: %s -> %s", ErrInvalidTransition, ErrReleased, oldState, newState)
		}
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, oldState, newState)
	}

	l.state = newState
	l.mu.Unlock()

	// Emit event outside of lock
	if l.eventEmitter != nil {
		l.eventEmitter.OnStateChange(oldState, newState, reason)
	}

	l.logger.Debug("state transition",
		log.String("from", oldState.String()),
		log.String("to", newState.String()),
		log.String("reason", reason),
	)

	return nil
}

func canTransition(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// AddWorker increments the worker count.
func (l *DefaultManager) AddWorker() {
	l.wg.Add(1)
}

// WorkerDone decrements the worker count.
func (l *DefaultManager) WorkerDone() {
	l.wg.Done()
}

// WaitWithTimeout waits for all workers to finish with a timeout.
// Returns ErrShutdownTimeout if the timeout expires.
func (l *DefaultManager) WaitWithTimeout(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		l.logger.Warn("shutdown timeout, abandoning worker",
			log.Duration("timeout", timeout),
		)
		return ErrShutdownTimeout
	}
}

var _ Manager = (*DefaultManager)(nil)
