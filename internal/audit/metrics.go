package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels of the audit counter.
const (
	OutcomeWritten = "written"
	OutcomeDropped = "dropped"
	OutcomeFailed  = "failed"
)

//nolint:gochecknoglobals
var entriesCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "audit_entries_total",
		Help: "Number of audit entries, differentiated by outcome.",
	},
	[]string{"outcome"},
)
