package state

import (
	"encoding/json"
	"fmt"
)

// LifecycleState is an immutable value pairing a package with its new state.
// Two values are equal when both package and kind match, so == works.
type LifecycleState struct {
	pkg  string
	kind Kind
}

// New builds a LifecycleState. The package identifier may be empty when the
// host did not supply one.
func New(pkg string, kind Kind) LifecycleState {
	return LifecycleState{pkg: pkg, kind: kind}
}

// Package returns the package identifier.
func (s LifecycleState) Package() string { return s.pkg }

// Kind returns the lifecycle kind.
func (s LifecycleState) Kind() Kind { return s.kind }

// String renders the state for logs.
func (s LifecycleState) String() string {
	return fmt.Sprintf("LifecycleState{package=%s, state=%s}", s.pkg, s.kind)
}

type wireState struct {
	Package string `json:"package"`
	State   Kind   `json:"state"`
}

// MarshalJSON encodes the state as {"package":...,"state":...}.
func (s LifecycleState) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireState{Package: s.pkg, State: s.kind})
}

// UnmarshalJSON decodes the form produced by MarshalJSON.
func (s *LifecycleState) UnmarshalJSON(b []byte) error {
	var w wireState
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*s = New(w.Package, w.State)
	return nil
}
