package ingest

import "github.com/prometheus/client_golang/prometheus"

func EventsCounter(outcome string) prometheus.Counter {
	return ingestEvents.WithLabelValues(outcome)
}
