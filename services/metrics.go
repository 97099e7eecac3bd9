package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the gate's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	LoginsTotal         *prometheus.CounterVec
	LoginDuration       prometheus.Histogram
	GuardDecisionsTotal *prometheus.CounterVec
	TransitionsTotal    *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assessgate_logins_total",
				Help: "Total number of login attempts by outcome",
			},
			[]string{"outcome"},
		),
		LoginDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "assessgate_login_duration_seconds",
				Help:    "Time spent waiting on the authentication collaborator",
				Buckets: prometheus.DefBuckets,
			},
		),
		GuardDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assessgate_guard_decisions_total",
				Help: "Total number of route guard decisions",
			},
			[]string{"route", "decision"},
		),
		TransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assessgate_session_transitions_total",
				Help: "Total number of applied session transitions",
			},
			[]string{"transition"},
		),
	}

	reg.MustRegister(
		m.LoginsTotal,
		m.LoginDuration,
		m.GuardDecisionsTotal,
		m.TransitionsTotal,
	)

	return m
}

// Login outcomes
const (
	outcomeSuccess    = "success"
	outcomeRejected   = "rejected"
	outcomeInvalid    = "invalid"
	outcomeSuperseded = "superseded"
	outcomePersist    = "persist_error"
	outcomeAborted    = "aborted"
)

// Session transitions
const (
	transitionHydrated  = "hydrated"
	transitionDiscarded = "hydration_discarded"
	transitionLogin     = "login"
	transitionLogout    = "logout"
)

func (m *Metrics) recordLogin(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(outcome).Inc()
	if took > 0 {
		m.LoginDuration.Observe(took.Seconds())
	}
}

func (m *Metrics) recordDecision(route, decision string) {
	if m == nil {
		return
	}
	m.GuardDecisionsTotal.WithLabelValues(route, decision).Inc()
}

func (m *Metrics) recordTransition(transition string) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(transition).Inc()
}
