package metrics

import "github.com/prometheus/client_golang/prometheus"

// FeedbackMetrics holds Prometheus metrics for the submission pipeline.
type FeedbackMetrics struct {
	Submissions           *prometheus.CounterVec
	EligibilityRejections *prometheus.CounterVec
	CreationRetries       prometheus.Counter
}

// NewFeedbackMetrics creates and registers submission metrics on the given registry.
func NewFeedbackMetrics(reg prometheus.Registerer) *FeedbackMetrics {
	m := &FeedbackMetrics{
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Total number of accepted meal feedback submissions, by meal.",
		}, []string{"meal"}),
		EligibilityRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "eligibility_rejections_total",
			Help:      "Total number of rejected submissions, by meal and state.",
		}, []string{"meal", "state"}),
		CreationRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_creation_retries_total",
			Help:      "Total number of submissions retried after losing the record creation race.",
		}),
	}

	reg.MustRegister(m.Submissions, m.EligibilityRejections, m.CreationRetries)
	return m
}
