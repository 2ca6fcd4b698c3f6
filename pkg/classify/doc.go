// Package classify maps raw package signals to lifecycle states.
//
// Host platforms report package changes as overlapping notifications: an
// update shows up as a removal with the replacing flag set, then as an add
// with the replacing flag set, then as a replace. [Classify] resolves each
// notification on its own into at most one [state.Kind]:
//
//	action        replacing  data_removed  result
//	Added         true       -             none
//	Added         false      -             Installed
//	Replaced      -          -             Updated
//	Removed       false      true          Removed
//	Removed       true       true          UpdateRemoved
//	Removed       true       false         Updating
//	Removed       false      false         none
//	FullyRemoved  -          -             FullyRemoved
//	Changed       -          -             ChangeEnabledSettings
//
// Signals that classify to none are dropped by callers without error.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package classify
