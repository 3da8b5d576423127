package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lens_fetch_total",
		Help: "Backend queries completed, by kind and result",
	}, []string{"kind", "result"})

	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lens_fetch_duration_seconds",
		Help:    "Latency of backend queries",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"kind"})

	staleResponsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lens_stale_responses_total",
		Help: "Responses discarded because a newer one was already applied",
	}, []string{"kind"})

	engineErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lens_engine_errors_total",
		Help: "Errors reported by the engine, by context",
	}, []string{"context"})

	dataEndGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lens_data_end_seconds",
		Help: "Latest known end of recorded data",
	})

	threadsKnownGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lens_threads_known",
		Help: "Number of threads discovered so far",
	})

	telemetryDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lens_telemetry_dropped_total",
		Help: "Telemetry events dropped because the aggregator buffer was full",
	})
)

func resultLabel(success bool) string {
	if success {
		return "ok"
	}
	return "error"
}
