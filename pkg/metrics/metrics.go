// Package metrics exposes the pipeline's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	QueriesTotal  *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	AlertsTotal   *prometheus.CounterVec
}

// New registers the pipeline collectors on the given registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		QueriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinical_assist",
			Name:      "queries_total",
			Help:      "Terminal query outcomes by audit outcome and error class.",
		}, []string{"outcome", "class"}),

		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinical_assist",
			Name:      "stage_duration_seconds",
			Help:      "Latency of each pipeline stage.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),

		AlertsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinical_assist",
			Name:      "security_alerts_total",
			Help:      "Security alerts raised, by class.",
		}, []string{"class"}),
	}
}
