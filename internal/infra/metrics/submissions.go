package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	submissionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "submissions_created_total",
			Help: "Count of submissions that completed the two-phase write.",
		},
	)

	submissionsDuplicate = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "submissions_duplicate_total",
			Help: "Count of submit attempts blocked by the duplicate guard.",
		},
	)

	submissionsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submissions_failed_total",
			Help: "Count of failed submit attempts by phase (upload|persist).",
		},
		[]string{"phase"},
	)

	uploadDurationMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "submission_upload_duration_ms",
			Help:    "Object-store write latency distribution in milliseconds.",
			Buckets: []float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_status_transitions_total",
			Help: "Count of recruiter status updates by target status.",
		},
		[]string{"status"},
	)
)

func init() {
	register(submissionsCreated, submissionsDuplicate, submissionsFailed, uploadDurationMs, statusTransitions)
}

func IncSubmissionCreated() { submissionsCreated.Inc() }

func IncSubmissionDuplicate() { submissionsDuplicate.Inc() }

func IncSubmissionFailed(phase string) { submissionsFailed.WithLabelValues(phase).Inc() }

func ObserveUploadDuration(d time.Duration) {
	uploadDurationMs.Observe(float64(d.Milliseconds()))
}

func IncStatusTransition(status string) { statusTransitions.WithLabelValues(status).Inc() }
