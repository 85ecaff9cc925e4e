package monitor

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics wraps a private prometheus.Registry with the gauges/counters a
// running service exposes, grounded on the same pattern yarpc's internal
// pally wrapper and go-ethereum's metrics/prometheus package use: a small
// typed façade in front of the client library rather than scattering raw
// prometheus calls through the sampler/receiver. This is purely additive
// to the spec's HTTP-POST sink - it never affects sampling correctness.
type Metrics struct {
	registry         *prometheus.Registry
	viewSize         prometheus.Gauge
	messagesSent     *prometheus.CounterVec
	messagesReceived *prometheus.CounterVec
	cycleDuration    prometheus.Histogram
}

// NewMetrics builds a fresh registry labelled with the node's address.
func NewMetrics(nodeAddress string) *Metrics {
	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{"node": nodeAddress}

	m := &Metrics{
		registry: registry,
		viewSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "gbps",
			Name:        "view_size",
			Help:        "Current number of peers held in the local view.",
			ConstLabels: labels,
		}),
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "gbps",
			Name:        "messages_sent_total",
			Help:        "Messages sent by the sampler/receiver, by type.",
			ConstLabels: labels,
		}, []string{"type"}),
		messagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "gbps",
			Name:        "messages_received_total",
			Help:        "Messages received by the listener, by type.",
			ConstLabels: labels,
		}, []string{"type"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "gbps",
			Name:        "cycle_duration_seconds",
			Help:        "Wall-clock time spent inside a single sampler cycle (excludes sleep).",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(m.viewSize, m.messagesSent, m.messagesReceived, m.cycleDuration)
	return m
}

// ObserveCycle implements core.Metrics.
func (m *Metrics) ObserveCycle(d time.Duration) { m.cycleDuration.Observe(d.Seconds()) }

// ObserveViewSize implements core.Metrics.
func (m *Metrics) ObserveViewSize(n int) { m.viewSize.Set(float64(n)) }

// CountMessageSent implements core.Metrics.
func (m *Metrics) CountMessageSent(isRequest bool) {
	m.messagesSent.WithLabelValues(messageTypeLabel(isRequest)).Inc()
}

// CountMessageReceived implements core.Metrics.
func (m *Metrics) CountMessageReceived(isRequest bool) {
	m.messagesReceived.WithLabelValues(messageTypeLabel(isRequest)).Inc()
}

func messageTypeLabel(isRequest bool) string {
	if isRequest {
		return "request"
	}
	return "response"
}

// Handler returns the promhttp handler for this registry, to be mounted
// by the caller (e.g. under Service's optional metrics listener).
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
