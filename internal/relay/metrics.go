package relay

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks delivery outcomes on a private registry so tests can run
// agents side by side without collisions.
type Metrics struct {
	registry *prometheus.Registry

	Forwarded    *prometheus.CounterVec
	Failed       *prometheus.CounterVec
	SendDuration prometheus.Histogram
}

// NewMetrics builds and registers the relay collectors.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.Forwarded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relay",
		Name:      "hits_forwarded_total",
		Help:      "Events successfully delivered to the collection endpoint.",
	}, []string{"type"})

	m.Failed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relay",
		Name:      "hits_failed_total",
		Help:      "Events that could not be delivered, by event type (or decode).",
	}, []string{"type"})

	m.SendDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "relay",
		Name:      "send_duration_seconds",
		Help:      "End-to-end time to map and deliver one event.",
		Buckets:   prometheus.DefBuckets,
	})

	m.registry.MustRegister(m.Forwarded, m.Failed, m.SendDuration)
	return m
}

// Handler serves the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
