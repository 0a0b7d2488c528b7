package manager

import "github.com/prometheus/client_golang/prometheus"

var (
	loadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hidream",
			Subsystem: "manager",
			Name:      "loads_total",
			Help:      "Total successful model loads",
		},
		[]string{"kind"},
	)

	loadFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hidream",
			Subsystem: "manager",
			Name:      "load_failures_total",
			Help:      "Total failed model loads",
		},
		[]string{"kind"},
	)

	unloadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hidream",
			Subsystem: "manager",
			Name:      "unloads_total",
			Help:      "Total model unloads",
		},
	)

	loadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hidream",
			Subsystem: "manager",
			Name:      "load_duration_seconds",
			Help:      "Duration of model loads in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"kind"},
	)

	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hidream",
			Subsystem: "manager",
			Name:      "generations_total",
			Help:      "Total generation attempts by outcome",
		},
		[]string{"outcome"},
	)

	generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hidream",
			Subsystem: "manager",
			Name:      "generation_duration_seconds",
			Help:      "Duration of runtime generation calls in seconds",
			Buckets:   []float64{1, 5, 10, 20, 40, 80, 160, 320},
		},
		[]string{"kind"},
	)

	residentModel = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "hidream",
			Subsystem: "manager",
			Name:      "resident",
			Help:      "1 for the kind of the resident model, 0 otherwise",
		},
		[]string{"kind"},
	)

	queueWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "hidream",
			Subsystem: "manager",
			Name:      "slot_wait_seconds",
			Help:      "Time requests spent waiting for the model slot",
			Buckets:   prometheus.DefBuckets,
		},
	)

	queueRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hidream",
			Subsystem: "manager",
			Name:      "slot_rejections_total",
			Help:      "Requests rejected because the queue was full or the wait timed out",
		},
	)
)

func init() {
	prometheus.MustRegister(loadsTotal, loadFailures, unloadsTotal, loadDuration,
		generationsTotal, generationDuration, residentModel, queueWait, queueRejections)
}
