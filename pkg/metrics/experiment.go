package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of the experiment Step HTTP handler
	ExperimentStepLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "experiment_step_latency_seconds",
		Help:    "Latency of experiment step handler",
		Buckets: prometheus.DefBuckets,
	})

	// Total number of experiment steps served
	ExperimentStepRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "experiment_step_requests_total",
		Help: "Total number of experiment step requests",
	})

	// Latency of the experiment Predict HTTP handler
	ExperimentPredictLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "experiment_predict_latency_seconds",
		Help:    "Latency of experiment predict handler",
		Buckets: prometheus.DefBuckets,
	})

	// Total number of experiment predictions served
	ExperimentPredictRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "experiment_predict_requests_total",
		Help: "Total number of experiment predict requests",
	})
)

func Init() {
	prometheus.MustRegister(
		ExperimentStepLatency,
		ExperimentStepRequests,
		ExperimentPredictLatency,
		ExperimentPredictRequests,
	)
}
