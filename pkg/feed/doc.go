// Package feed adapts a host.Context into a stream of classify.RawSignal.
//
// [Adapter.Start] registers a fixed filter for the five package actions
// scoped to the "package" data scheme, converts every matching intent into a
// RawSignal, and calls the supplied callback synchronously on whatever
// goroutine the host delivers on. The adapter introduces no concurrency of
// its own.
//
// [Adapter.Stop] deregisters. It tolerates zero, unknown, and already
// stopped handles, and signals that race with deregistration are dropped.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package feed
