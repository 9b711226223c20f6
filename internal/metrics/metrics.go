// Package metrics exposes Prometheus counters for consent activity.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	consentDecisions *prometheus.CounterVec
	grantsRevoked    prometheus.Counter
)

// Register initializes the collectors and returns the /metrics handler.
// Safe to call more than once; registration happens on the first call.
func Register(registry prometheus.Registerer) http.Handler {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	once.Do(func() {
		consentDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "consent_decisions_total",
			Help: "Consent decisions processed, by flow and outcome",
		}, []string{"flow", "outcome"})

		grantsRevoked = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grants_revoked_total",
			Help: "Grants revoked from the grant inventory page",
		})

		registry.MustRegister(consentDecisions, grantsRevoked)
	})

	return promhttp.Handler()
}

// ConsentDecision records one processed consent decision.
func ConsentDecision(flow, outcome string) {
	if consentDecisions != nil {
		consentDecisions.WithLabelValues(flow, outcome).Inc()
	}
}

// GrantRevoked records one revocation.
func GrantRevoked() {
	if grantsRevoked != nil {
		grantsRevoked.Inc()
	}
}
