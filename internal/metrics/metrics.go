// Package metrics exposes Prometheus instrumentation for the club engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "golfclub"

// Metrics holds the collectors for one process. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	memberTransitions     *prometheus.CounterVec
	tournamentTransitions *prometheus.CounterVec
	registrations         *prometheus.CounterVec
	conflicts             *prometheus.CounterVec
	httpDuration          *prometheus.HistogramVec
}

// New creates a Metrics with its own registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		memberTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "member_status_transitions_total",
			Help:      "Member status changes by target status.",
		}, []string{"status"}),
		tournamentTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tournament_status_transitions_total",
			Help:      "Tournament status changes by target status.",
		}, []string{"status"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registration_operations_total",
			Help:      "Register and withdraw attempts by outcome.",
		}, []string{"action", "outcome"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "version_conflicts_total",
			Help:      "Writes rejected because the entity changed since it was read.",
		}, []string{"operation"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.memberTransitions, m.tournamentTransitions, m.registrations, m.conflicts, m.httpDuration)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// MemberTransition counts a member moving to status
func (m *Metrics) MemberTransition(status string) {
	if m == nil {
		return
	}
	m.memberTransitions.WithLabelValues(status).Inc()
}

// TournamentTransition counts a tournament moving to status
func (m *Metrics) TournamentTransition(status string) {
	if m == nil {
		return
	}
	m.tournamentTransitions.WithLabelValues(status).Inc()
}

// Registration counts a register or withdraw attempt
func (m *Metrics) Registration(action string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	m.registrations.WithLabelValues(action, outcome).Inc()
}

// Conflict counts a stale-version rejection for operation
func (m *Metrics) Conflict(operation string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(operation).Inc()
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
