package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the engine. Construction takes an
// explicit registerer so tests can build isolated instances without tripping
// duplicate-registration panics.
type Metrics struct {
	ClaimsStarted   prometheus.Counter
	ClaimsCompleted prometheus.Counter
	ClaimsFailed    *prometheus.CounterVec
	GrantsAdmitted  prometheus.Counter
	PollCycles      *prometheus.CounterVec
	PollFailures    *prometheus.CounterVec
	AdminActions    *prometheus.CounterVec
	ClaimStepMs     *prometheus.HistogramVec
}

// New creates and registers all metrics against the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ClaimsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "vouch_claims_started_total",
			Help: "Total number of identity claim sessions started",
		}),
		ClaimsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "vouch_claims_completed_total",
			Help: "Total number of identity claim sessions that reached done",
		}),
		ClaimsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_claims_failed_total",
			Help: "Total number of identity claim sessions that ended in error, by failing step",
		}, []string{"step"}),
		GrantsAdmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "vouch_grants_admitted_total",
			Help: "Total number of credential grants admitted",
		}),
		PollCycles: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_poll_cycles_total",
			Help: "Total number of watcher poll cycles, by watcher name",
		}, []string{"watcher"}),
		PollFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_poll_failures_total",
			Help: "Total number of failed watcher poll cycles, by watcher name",
		}, []string{"watcher"}),
		AdminActions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_admin_actions_total",
			Help: "Total number of admin registration actions, by action and outcome",
		}, []string{"action", "outcome"}),
		ClaimStepMs: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vouch_claim_step_duration_ms",
			Help:    "Latency of claim state machine steps in milliseconds",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000, 15000, 60000},
		}, []string{"step"}),
	}
}
