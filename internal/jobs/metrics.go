package jobs

import "github.com/prometheus/client_golang/prometheus"

var (
	generationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vidgend",
		Subsystem: "jobs",
		Name:      "generations_total",
		Help:      "Terminal generation outcomes",
	}, []string{"task", "outcome"})

	generationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vidgend",
		Subsystem: "jobs",
		Name:      "generation_duration_seconds",
		Help:      "Engine execution time per job, excluding queue wait",
		// Generation runs minutes to hours.
		Buckets: []float64{30, 60, 120, 300, 600, 1200, 1800, 3600, 7200},
	}, []string{"task"})

	queueWaitDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "vidgend",
		Subsystem: "jobs",
		Name:      "queue_wait_seconds",
		Help:      "Time spent waiting for GPU admission",
		Buckets:   []float64{1, 5, 15, 60, 300, 900, 3600},
	})
)

func init() {
	prometheus.MustRegister(generationsTotal, generationDuration, queueWaitDuration)
}
