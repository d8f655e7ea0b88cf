package metrics

import "github.com/prometheus/client_golang/prometheus"

// AnalysisMetrics holds Prometheus metrics for the analytics path.
type AnalysisMetrics struct {
	DelegateInvocations *prometheus.CounterVec
	DelegateDuration    *prometheus.HistogramVec
	CacheHits           prometheus.Counter
	CacheMisses         prometheus.Counter
}

// NewAnalysisMetrics creates and registers analytics metrics on the given registry.
func NewAnalysisMetrics(reg prometheus.Registerer) *AnalysisMetrics {
	m := &AnalysisMetrics{
		DelegateInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "delegate_invocations_total",
			Help:      "Total number of analysis delegate invocations, by script and outcome.",
		}, []string{"script", "outcome"}),
		DelegateDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "delegate_duration_seconds",
			Help:      "Duration of analysis delegate invocations in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"script"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "report_cache_hits_total",
			Help:      "Total number of analytics report cache hits.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "report_cache_misses_total",
			Help:      "Total number of analytics report cache misses.",
		}),
	}

	reg.MustRegister(m.DelegateInvocations, m.DelegateDuration, m.CacheHits, m.CacheMisses)
	return m
}
