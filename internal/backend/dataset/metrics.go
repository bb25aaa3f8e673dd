package dataset

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	nc = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dataset_notification_count",
		Help: "The number of received dataset notifications (per dataset).",
	}, []string{"dataset"})

	fec = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dataset_flush_error_count",
		Help: "The number of failed cache flushes after a dataset notification.",
	})
)

func notificationCounter(dataset string) prometheus.Counter {
	return nc.With(prometheus.Labels{"dataset": dataset})
}

func flushErrorCounter() prometheus.Counter {
	return fec
}
