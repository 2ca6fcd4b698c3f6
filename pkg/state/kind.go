package state

import (
	"errors"
	"fmt"
)

// ErrUnknownKind is returned when a kind name cannot be parsed.
var ErrUnknownKind = errors.New("pkgwatch: unknown state kind")

// Kind identifies one of the seven lifecycle states.
type Kind int

const (
	// Unknown is the zero value and is never emitted.
	Unknown Kind = iota
	Installed
	Updating
	Updated
	Removed
	FullyRemoved
	UpdateRemoved
	ChangeEnabledSettings
)

var kindNames = map[Kind]string{
	Installed:             "installed",
	Updating:              "updating",
	Updated:               "updated",
	Removed:               "removed",
	FullyRemoved:          "fully_removed",
	UpdateRemoved:         "update_removed",
	ChangeEnabledSettings: "change_enabled_settings",
}

// Kinds returns every valid kind.
func Kinds() []Kind {
	return []Kind{
		Installed,
		Updating,
		Updated,
		Removed,
		FullyRemoved,
		UpdateRemoved,
		ChangeEnabledSettings,
	}
}

// Valid reports whether k is one of the seven lifecycle kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case Installed:
		return "Installed"
	case Updating:
		return "Updating"
	case Updated:
		return "Updated"
	case Removed:
		return "Removed"
	case FullyRemoved:
		return "FullyRemoved"
	case UpdateRemoved:
		return "UpdateRemoved"
	case ChangeEnabledSettings:
		return "ChangeEnabledSettings"
	default:
		return "Unknown"
	}
}

// Name returns the snake_case wire name of the kind, or "unknown".
func (k Kind) Name() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// ParseKind parses a wire name such as "fully_removed".
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// MarshalText implements encoding.TextMarshaler using the wire name.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(k.Name()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
