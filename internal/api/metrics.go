package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects transport-level counters for the bot endpoints.
type Metrics struct {
	registry *prometheus.Registry

	messagesTotal  *prometheus.CounterVec
	repliesTotal   *prometheus.CounterVec
	mutationsTotal *prometheus.CounterVec
	handleDuration prometheus.Histogram
	wsClients      prometheus.Gauge
}

// NewMetrics creates a metrics collector with its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	messagesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grocery_messages_total",
			Help: "Messages received, by endpoint",
		},
		[]string{"endpoint"},
	)

	repliesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grocery_replies_total",
			Help: "Replies sent, by whether a confirmation is pending",
		},
		[]string{"awaiting_confirmation"},
	)

	mutationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grocery_ledger_mutations_total",
			Help: "Committed ledger events, by kind",
		},
		[]string{"kind"},
	)

	handleDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "grocery_handle_duration_seconds",
			Help:    "End-to-end message handling time",
			Buckets: prometheus.DefBuckets,
		},
	)

	wsClients := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "grocery_ws_clients",
			Help: "Connected event-feed clients",
		},
	)

	registry.MustRegister(messagesTotal, repliesTotal, mutationsTotal, handleDuration, wsClients)

	return &Metrics{
		registry:       registry,
		messagesTotal:  messagesTotal,
		repliesTotal:   repliesTotal,
		mutationsTotal: mutationsTotal,
		handleDuration: handleDuration,
		wsClients:      wsClients,
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) recordMessage(endpoint string) {
	m.messagesTotal.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) recordReply(awaiting bool, seconds float64) {
	label := "false"
	if awaiting {
		label = "true"
	}
	m.repliesTotal.WithLabelValues(label).Inc()
	m.handleDuration.Observe(seconds)
}
