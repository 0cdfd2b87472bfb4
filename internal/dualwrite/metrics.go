package dualwrite

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	flushedWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rescribe",
		Subsystem: "dualwrite",
		Name:      "writes_total",
		Help:      "Writes sent to a target store by entity class and action.",
	}, []string{"entity", "target", "action"})

	flushFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rescribe",
		Subsystem: "dualwrite",
		Name:      "flush_failures_total",
		Help:      "Bulk flushes that returned an error.",
	}, []string{"entity", "target"})

	flushDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rescribe",
		Subsystem: "dualwrite",
		Name:      "flush_duration_seconds",
		Help:      "Duration of one bulk flush.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"entity", "target"})
)
