package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// AnalysisTotal counts analysis round trips by pipeline and outcome.
	AnalysisTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skncr",
		Subsystem: "analysis",
		Name:      "requests_total",
		Help:      "Total number of analysis round trips, labeled by pipeline and outcome.",
	}, []string{"pipeline", "outcome"})

	// AnalysisDurationSeconds is the time from submitting a still to a validated result or failure.
	AnalysisDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "skncr",
		Subsystem: "analysis",
		Name:      "duration_seconds",
		Help:      "Time spent in the analysis round trip, including sanitizing and validation.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"pipeline", "outcome"})

	// TransitionsTotal counts state machine transitions by target state.
	TransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skncr",
		Subsystem: "session",
		Name:      "transitions_total",
		Help:      "Total number of capture state machine transitions, labeled by pipeline and target state.",
	}, []string{"pipeline", "state"})

	// StaleRepliesTotal counts analysis replies discarded because their session was gone.
	StaleRepliesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skncr",
		Subsystem: "session",
		Name:      "stale_replies_total",
		Help:      "Total number of analysis replies ignored after reset or close.",
	}, []string{"pipeline"})

	// PipelinesActive is the number of pipelines registered with the server.
	PipelinesActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "skncr",
		Subsystem: "server",
		Name:      "pipelines_active",
		Help:      "Current number of open capture pipelines.",
	})
)

// Register registers scanner metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			AnalysisTotal,
			AnalysisDurationSeconds,
			TransitionsTotal,
			StaleRepliesTotal,
			PipelinesActive,
		)
	})
}
