package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pkgwatch"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	signals    *prom.CounterVec
	dropped    *prom.CounterVec
	delivered  *prom.CounterVec
	panics     prom.Counter
	rejected   prom.Counter
	discarded  prom.Counter
	queueDepth prom.Gauge
	latency    prom.Histogram
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
// A nil reg gets a fresh private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		signals: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "signals_total",
			Help:      "Raw package signals received from the host, by action",
		}, []string{"action"}),
		dropped: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "signals_dropped_total",
			Help:      "Raw signals that classified to no lifecycle state, by action",
		}, []string{"action"}),
		delivered: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "states_delivered_total",
			Help:      "Lifecycle states delivered to the subscriber, by state",
		}, []string{"state"}),
		panics: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "subscriber_panics_total",
			Help:      "Subscriber callbacks that panicked",
		}),
		rejected: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "enqueue_rejected_total",
			Help:      "States rejected because the pipeline was closed",
		}),
		discarded: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "states_discarded_total",
			Help:      "Queued states discarded at shutdown",
		}),
		queueDepth: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "States waiting for delivery",
		}),
		latency: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "delivery_latency_seconds",
			Help:      "Time from enqueue to subscriber callback completion",
			Buckets:   prom.DefBuckets,
		}),
	}
	reg.MustRegister(pr.signals, pr.dropped, pr.delivered, pr.panics, pr.rejected, pr.discarded, pr.queueDepth, pr.latency)
	return pr
}

func (p *PrometheusRecorder) IncSignal(action string) {
	if p == nil || p.signals == nil {
		return
	}
	p.signals.WithLabelValues(action).Inc()
}

func (p *PrometheusRecorder) IncDropped(action string) {
	if p == nil || p.dropped == nil {
		return
	}
	p.dropped.WithLabelValues(action).Inc()
}

func (p *PrometheusRecorder) IncDelivered(kind string) {
	if p == nil || p.delivered == nil {
		return
	}
	p.delivered.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncSubscriberPanic() {
	if p == nil || p.panics == nil {
		return
	}
	p.panics.Inc()
}

func (p *PrometheusRecorder) IncRejected() {
	if p == nil || p.rejected == nil {
		return
	}
	p.rejected.Inc()
}

func (p *PrometheusRecorder) IncDiscarded(n int) {
	if p == nil || p.discarded == nil || n <= 0 {
		return
	}
	p.discarded.Add(float64(n))
}

func (p *PrometheusRecorder) SetQueueDepth(n int) {
	if p == nil || p.queueDepth == nil {
		return
	}
	p.queueDepth.Set(float64(n))
}

func (p *PrometheusRecorder) ObserveDeliveryLatency(d time.Duration) {
	if p == nil || p.latency == nil {
		return
	}
	p.latency.Observe(d.Seconds())
}

// HTTPHandler returns an http.Handler that serves Prometheus metrics for the provided registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	if reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

var _ Recorder = (*PrometheusRecorder)(nil)
