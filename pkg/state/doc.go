// Package state defines the lifecycle states published by pkgwatch.
//
// A [LifecycleState] pairs a package identifier with one of seven [Kind]
// values. Each value is independent: a new raw signal always yields a fresh
// classification, and no state carries memory of earlier ones.
//
// # Kinds
//
//   - [Installed]: a package was added for the first time
//   - [Updating]: the old version of a package is being replaced
//   - [Updated]: a new version of a package replaced the old one
//   - [Removed]: a package was uninstalled and its data removed
//   - [FullyRemoved]: a package is completely gone from the host
//   - [UpdateRemoved]: an update was rolled back and its data removed
//   - [ChangeEnabledSettings]: a package or one of its components was enabled or disabled
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package state
