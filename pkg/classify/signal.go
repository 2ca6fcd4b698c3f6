package classify

import (
	"errors"
	"fmt"
)

// ErrUnknownAction is returned when an action name cannot be parsed.
var ErrUnknownAction = errors.New("pkgwatch: unknown signal action")

// Action is the kind of raw notification received from the host.
type Action int

const (
	ActionUnknown Action = iota
	ActionAdded
	ActionReplaced
	ActionRemoved
	ActionFullyRemoved
	ActionChanged
)

// String returns a human-readable representation of the action.
func (a Action) String() string {
	switch a {
	case ActionAdded:
		return "Added"
	case ActionReplaced:
		return "Replaced"
	case ActionRemoved:
		return "Removed"
	case ActionFullyRemoved:
		return "FullyRemoved"
	case ActionChanged:
		return "Changed"
	default:
		return "Unknown"
	}
}

// ParseAction parses the String form of an action.
func ParseAction(s string) (Action, error) {
	for _, a := range Actions() {
		if a.String() == s {
			return a, nil
		}
	}
	return ActionUnknown, fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Actions returns the five actions a feed can deliver.
func Actions() []Action {
	return []Action{ActionAdded, ActionReplaced, ActionRemoved, ActionFullyRemoved, ActionChanged}
}

// Flags are the boolean extras carried by a raw notification.
// Absent flags are false.
type Flags struct {
	Replacing   bool
	DataRemoved bool
}

// RawSignal is a single unclassified host notification.
type RawSignal struct {
	Action  Action
	Package string
	Flags   Flags
}

// String renders the signal for logs.
func (s RawSignal) String() string {
	return fmt.Sprintf("%s(%s replacing=%t data_removed=%t)",
		s.Action, s.Package, s.Flags.Replacing, s.Flags.DataRemoved)
}
