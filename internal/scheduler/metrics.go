package scheduler

import "github.com/prometheus/client_golang/prometheus"

var (
	queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "vidgend",
		Subsystem: "scheduler",
		Name:      "queue_depth",
		Help:      "Jobs waiting for GPU admission",
	})

	gpusInUse = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "vidgend",
		Subsystem: "scheduler",
		Name:      "gpus_in_use",
		Help:      "GPU devices currently assigned to jobs",
	})

	activeJobs = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "vidgend",
		Subsystem: "scheduler",
		Name:      "active_jobs",
		Help:      "Jobs currently holding GPUs",
	})

	admissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vidgend",
		Subsystem: "scheduler",
		Name:      "admissions_total",
		Help:      "Total successful job admissions",
	}, []string{"mode"})

	cancellationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vidgend",
		Subsystem: "scheduler",
		Name:      "queue_cancellations_total",
		Help:      "Total jobs cancelled while still queued",
	})
)

func init() {
	prometheus.MustRegister(queueDepth, gpusInUse, activeJobs, admissionsTotal, cancellationsTotal)
}
