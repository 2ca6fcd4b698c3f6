package log

// NoopLogger is the Logger components fall back to when the caller passes
// nil, so the observer, pipeline and hosts can log unconditionally.
type NoopLogger struct{}

// NewNoopLogger returns a logger that drops every entry.
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

func (NoopLogger) Debug(string, ...Field) {}
func (NoopLogger) Info(string, ...Field)  {}
func (NoopLogger) Warn(string, ...Field)  {}
func (NoopLogger) Error(string, ...Field) {}
