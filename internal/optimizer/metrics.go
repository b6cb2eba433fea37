package optimizer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	optimizeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "venueconnect",
		Subsystem: "optimizer",
		Name:      "requests_total",
		Help:      "Optimization runs by requested method and produced method.",
	}, []string{"method", "produced"})

	aiFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "venueconnect",
		Subsystem: "optimizer",
		Name:      "ai_fallback_total",
		Help:      "AI suggestion attempts that degraded to the deterministic engine.",
	})

	optimizeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "venueconnect",
		Subsystem: "optimizer",
		Name:      "duration_seconds",
		Help:      "Wall time of one optimization request.",
		Buckets:   prometheus.DefBuckets,
	})
)
