package classify

import "github.com/bft-labs/pkgwatch/pkg/state"

// Classify returns the lifecycle kind for sig, or false when the signal does
// not correspond to a distinct state. It is pure and safe for concurrent use.
func Classify(sig RawSignal) (state.Kind, bool) {
	switch sig.Action {
	case ActionAdded:
		if sig.Flags.Replacing {
			// First half of an update; the Replaced signal follows.
			return state.Unknown, false
		}
		return state.Installed, true

	case ActionReplaced:
		return state.Updated, true

	case ActionRemoved:
		switch {
		case sig.Flags.DataRemoved && sig.Flags.Replacing:
			return state.UpdateRemoved, true
		case sig.Flags.DataRemoved:
			return state.Removed, true
		case sig.Flags.Replacing:
			return state.Updating, true
		default:
			return state.Unknown, false
		}

	case ActionFullyRemoved:
		return state.FullyRemoved, true

	case ActionChanged:
		return state.ChangeEnabledSettings, true
	}

	return state.Unknown, false
}

// Resolve classifies sig and builds the resulting LifecycleState.
func Resolve(sig RawSignal) (state.LifecycleState, bool) {
	kind, ok := Classify(sig)
	if !ok {
		return state.LifecycleState{}, false
	}
	return state.New(sig.Package, kind), true
}
