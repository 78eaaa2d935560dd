package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels queries that produced a passing answer.
	OutcomeSuccess = "success"
	// OutcomeError labels queries that failed in the pipeline or a dependency.
	OutcomeError = "error"
)

var (
	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage_engine",
			Name:      "queries_total",
			Help:      "Total number of diagnostic queries handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	queryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "triage_engine",
			Name:      "query_seconds",
			Help:      "Diagnostic query latency in seconds.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)

	auditViolationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage_engine",
			Name:      "audit_violations_total",
			Help:      "Self-audit violations detected, partitioned by kind.",
		},
		[]string{"kind"},
	)

	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "triage_engine",
			Name:      "sessions_active",
			Help:      "Number of conversation sessions currently cached.",
		},
	)
)

// Register attaches triage-engine collectors to the supplied Prometheus
// registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		queriesTotal,
		queryDurationSeconds,
		auditViolationsTotal,
		sessionsActive,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveQuery records one query's duration and outcome label.
func ObserveQuery(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	queriesTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	queryDurationSeconds.Observe(duration.Seconds())
}

// CountAuditViolation increments the violation counter for one violation
// kind, e.g. CONTRACT_VIOLATION or SCOPE_VIOLATION.
func CountAuditViolation(kind string) {
	auditViolationsTotal.WithLabelValues(kind).Inc()
}

// SetActiveSessions updates the cached-session gauge.
func SetActiveSessions(n int) {
	sessionsActive.Set(float64(n))
}
