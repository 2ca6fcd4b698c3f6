package metrics

import "time"

// Recorder receives counts and timings from the feed and dispatch pipeline.
// Implementations must be safe for concurrent use.
type Recorder interface {
	IncSignal(action string)
	IncDropped(action string)
	IncDelivered(kind string)
	IncSubscriberPanic()
	IncRejected()
	IncDiscarded(n int)
	SetQueueDepth(n int)
	ObserveDeliveryLatency(d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncSignal(string)                     {}
func (NoopRecorder) IncDropped(string)                    {}
func (NoopRecorder) IncDelivered(string)                  {}
func (NoopRecorder) IncSubscriberPanic()                  {}
func (NoopRecorder) IncRejected()                         {}
func (NoopRecorder) IncDiscarded(int)                     {}
func (NoopRecorder) SetQueueDepth(int)                    {}
func (NoopRecorder) ObserveDeliveryLatency(time.Duration) {}

var _ Recorder = NoopRecorder{}
