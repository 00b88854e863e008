package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	jobVisit = "jobvisit"

	guardrailBlockedTotal = "guardrail_blocked_fields_total"
	scopePatchesTotal     = "scope_patches_total"
	checkoutsTotal        = "checkouts_total"
	checkInsTotal         = "checkins_total"

	// Labels
	fieldLabel  = "field"
	sourceLabel = "source"
	resultLabel = "result"
)

// Results used with the scope patch and checkout counters.
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultEmpty    = "empty"
	ResultTrivial  = "trivial"
	ResultRejected = "rejected"
)

var guardrailBlockedMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: jobVisit,
		Name:      guardrailBlockedTotal,
		Help:      "number of completion-gated fields stripped from draft writes",
	},
	[]string{fieldLabel, sourceLabel},
)

var scopePatchesMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: jobVisit,
		Name:      scopePatchesTotal,
		Help:      "number of scope patch submissions partitioned by result",
	},
	[]string{resultLabel},
)

var checkoutsMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: jobVisit,
		Name:      checkoutsTotal,
		Help:      "number of checkout attempts partitioned by result",
	},
	[]string{resultLabel},
)

var checkInsMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: jobVisit,
		Name:      checkInsTotal,
		Help:      "number of technician check-ins",
	},
)

func IncreaseGuardrailBlockedMetric(field, source string) {
	guardrailBlockedMetric.With(prometheus.Labels{fieldLabel: field, sourceLabel: source}).Inc()
}

func IncreaseScopePatchMetric(result string) {
	scopePatchesMetric.With(prometheus.Labels{resultLabel: result}).Inc()
}

func IncreaseCheckoutMetric(result string) {
	checkoutsMetric.With(prometheus.Labels{resultLabel: result}).Inc()
}

func IncreaseCheckInMetric() {
	checkInsMetric.Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(guardrailBlockedMetric)
	prometheus.MustRegister(scopePatchesMetric)
	prometheus.MustRegister(checkoutsMetric)
	prometheus.MustRegister(checkInsMetric)
}
