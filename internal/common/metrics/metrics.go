// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submissions_total",
			Help: "Total number of invoice submissions by outcome",
		},
		[]string{"source", "outcome"},
	)

	SubmissionsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submissions_failed_total",
			Help: "Total number of rejected or failed submissions by error code",
		},
		[]string{"source", "error_code"},
	)

	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intake_submission_duration_seconds",
			Help:    "Duration of submission processing in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"source"},
	)

	SubmissionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "intake_submissions_active",
			Help: "Number of submissions currently being processed",
		},
		[]string{"source"},
	)

	SinkCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_sink_calls_total",
			Help: "Calls made to external sinks by result",
		},
		[]string{"sink", "result"},
	)
)
