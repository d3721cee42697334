package action

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels of the action counter.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeInvalid  = "invalid"
	OutcomeDenied   = "denied"
	OutcomeError    = "error"
)

//nolint:gochecknoglobals
var resultsCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "admin_actions_total",
		Help: "Number of admin mutations, differentiated by entity, operation and outcome.",
	},
	[]string{"entity", "operation", "outcome"},
)

func observe(m Mutation, outcome string) {
	resultsCounter.WithLabelValues(m.Entity, string(m.Op), outcome).Inc()
}
