// Package log provides the logging abstraction shared by pkgwatch components.
//
// Components accept a Logger and default to a no-op implementation, so an
// embedding application decides where log output goes. A zerolog adapter is
// provided for the CLI and for applications already using zerolog.
//
// # Usage
//
//	logger := log.NewZerologAdapterWithLogger(zerolog.New(os.Stderr))
//	feedLogger := log.WithComponent(logger, "feed")
//	feedLogger.Debug("intent received", log.String("action", action))
//
// Tests typically pass log.NewNoopLogger().
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package log
