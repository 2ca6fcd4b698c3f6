package dispatch

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPolicy is returned by ParsePolicy for unrecognized names.
var ErrUnknownPolicy = errors.New("pkgwatch: unknown shutdown policy")

// Policy decides what happens to queued states when the pipeline closes.
type Policy int

const (
	// Drain delivers every queued state before the worker exits.
	Drain Policy = iota
	// Discard drops queued states; only the callback in flight completes.
	Discard
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case Drain:
		return "drain"
	case Discard:
		return "discard"
	default:
		return "unknown"
	}
}

// ParsePolicy parses "drain" or "discard" (case-insensitive).
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "drain":
		return Drain, nil
	case "discard":
		return Discard, nil
	default:
		return Drain, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}
