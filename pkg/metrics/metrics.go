// Package metrics defines the Prometheus collectors for search rounds and
// the HTTP API.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Region outcome labels.
const (
	OutcomeOK               = "ok"
	OutcomeTransportError   = "transport_error"
	OutcomeTimeout          = "timeout"
	OutcomeMalformedPayload = "malformed_payload"
)

var (
	RoundsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gsuggest",
			Name:      "rounds_started_total",
			Help:      "Total number of search rounds started",
		},
	)

	RoundsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gsuggest",
			Name:      "rounds_completed_total",
			Help:      "Total number of search rounds where every region reported",
		},
	)

	RoundsSuperseded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gsuggest",
			Name:      "rounds_superseded_total",
			Help:      "Total number of search rounds replaced before completing",
		},
	)

	RegionOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gsuggest",
			Name:      "region_outcomes_total",
			Help:      "Region responses applied to a round, by outcome",
		},
		[]string{"region", "outcome"},
	)

	StaleResponses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gsuggest",
			Name:      "stale_responses_total",
			Help:      "Responses discarded because their round was superseded",
		},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gsuggest",
			Name:      "region_request_duration_seconds",
			Help:      "Region request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"region"},
	)

	SuggestionsMerged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gsuggest",
			Name:      "suggestions_merged_total",
			Help:      "Unique suggestions added to round results",
		},
	)
)

func init() {
	prometheus.MustRegister(RoundsStarted)
	prometheus.MustRegister(RoundsCompleted)
	prometheus.MustRegister(RoundsSuperseded)
	prometheus.MustRegister(RegionOutcomes)
	prometheus.MustRegister(StaleResponses)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(SuggestionsMerged)
}
