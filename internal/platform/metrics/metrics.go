// Package metrics registers the Prometheus instruments for the vetting
// engine and access gate.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	TransitionsTotal     *prometheus.CounterVec
	TransitionsRejected  *prometheus.CounterVec
	AccessDecisionsTotal *prometheus.CounterVec
	CacheLookupsTotal    *prometheus.CounterVec
	NotificationFailures prometheus.Counter
	RequestDuration      *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		TransitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "membergate_vetting_transitions_total",
			Help: "Successful vetting status transitions by target status",
		}, []string{"target"}),
		TransitionsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "membergate_vetting_transitions_rejected_total",
			Help: "Rejected transition requests by error code",
		}, []string{"code"}),
		AccessDecisionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "membergate_access_decisions_total",
			Help: "Access-gate decisions by action and outcome",
		}, []string{"action", "outcome"}),
		CacheLookupsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "membergate_access_cache_lookups_total",
			Help: "Access-gate status cache lookups by result",
		}, []string{"result"}),
		NotificationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "membergate_notification_failures_total",
			Help: "Status-update notifications that could not be dispatched",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "membergate_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "status"}),
	}
}
