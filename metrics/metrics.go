// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	// MessagesClassified counts gateway classifications by content type.
	MessagesClassified *prometheus.CounterVec

	// AgentResults counts agent outcomes by agent id and status.
	AgentResults *prometheus.CounterVec

	// RouteResults counts router outcomes by task and provider.
	RouteResults *prometheus.CounterVec

	// RouteDuration observes route call latency by task.
	RouteDuration *prometheus.HistogramVec

	// DigestRuns counts scheduler-triggered digest executions by outcome.
	DigestRuns *prometheus.CounterVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		MessagesClassified: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contentmind",
			Name:      "gateway_messages_classified_total",
			Help:      "Messages classified by the gateway, by content type.",
		}, []string{"content_type"}),
		AgentResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contentmind",
			Name:      "agent_results_total",
			Help:      "Agent process outcomes, by agent and status.",
		}, []string{"agent", "status"}),
		RouteResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contentmind",
			Name:      "router_results_total",
			Help:      "Router outcomes, by task and serving provider.",
		}, []string{"task", "provider"}),
		RouteDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "contentmind",
			Name:      "router_duration_seconds",
			Help:      "Route call latency, by task.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"task"}),
		DigestRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contentmind",
			Name:      "scheduler_digest_runs_total",
			Help:      "Scheduled digest executions, by outcome.",
		}, []string{"outcome"}),
	}
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
