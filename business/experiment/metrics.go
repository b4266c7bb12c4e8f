package experiment

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	StepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "experiment_decision_steps_total",
			Help: "Count of completed decision steps by experiment, policy, and chosen arm.",
		},
		[]string{"experiment", "policy", "arm"},
	)

	LeaderChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "experiment_leader_changes_total",
			Help: "Count of best-arm flips by experiment.",
		},
		[]string{"experiment"},
	)
)

func init() {
	prometheus.MustRegister(StepsTotal, LeaderChangesTotal)
}
