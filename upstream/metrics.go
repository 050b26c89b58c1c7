package upstream

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics follows the teacher's shared/prometheus convention of package
// global collectors registered with the default registerer at import time.
var (
	selectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_selections_total",
		Help: "Number of peers returned by Selector.Choose, by pool and peer.",
	}, []string{"pool", "peer"})

	busyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_busy_total",
		Help: "Number of Selector.Choose calls that exhausted every reachable tier.",
	}, []string{"pool"})

	failoverTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_failover_total",
		Help: "Number of times selection fell through to a pool's backup tier.",
	}, []string{"pool"})

	releaseOutcomeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_release_outcome_total",
		Help: "Number of Selector.Release calls, by pool, peer, and outcome.",
	}, []string{"pool", "peer", "outcome"})

	effectiveWeight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "upstream_effective_weight",
		Help: "Current effective_weight of a peer.",
	}, []string{"pool", "peer"})
)

func init() {
	prometheus.MustRegister(selectionsTotal, busyTotal, failoverTotal, releaseOutcomeTotal, effectiveWeight)
}
