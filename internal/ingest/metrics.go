package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ingestEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netgram",
		Name:      "ingest_events_total",
		Help:      "Number of file events handled by the ingest pipeline, by outcome.",
	}, []string{"outcome"})

	ingestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "netgram",
		Name:      "ingest_duration_seconds",
		Help:      "Time taken to handle a single file event.",
		Buckets:   prometheus.DefBuckets,
	})
)
