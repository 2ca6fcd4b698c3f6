// Package metrics defines observability hooks for the signal feed and the
// dispatch pipeline.
//
// Components accept a [Recorder] and default to [NoopRecorder]. The
// [PrometheusRecorder] registers its collectors on a caller-supplied
// registry; [HTTPHandler] serves that registry.
package metrics
