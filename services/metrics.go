package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	achievementComputations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "achievement_computations_total",
			Help: "Total number of achievement computations by outcome",
		},
		[]string{"result"},
	)
	badgesAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badges_awarded_total",
			Help: "Total number of newly awarded badges",
		},
		[]string{"category"},
	)
	achievementDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "achievement_computation_duration_seconds",
			Help:    "Duration of achievement computations",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// RegisterMetrics registers the engine metrics. Call this from main.go
func RegisterMetrics() {
	prometheus.MustRegister(achievementComputations)
	prometheus.MustRegister(badgesAwarded)
	prometheus.MustRegister(achievementDuration)
}
