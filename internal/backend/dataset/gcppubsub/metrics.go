package gcppubsub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ec = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dataset_gcp_pub_sub_event_count",
		Help: "The number of received events by the GCP Pub/Sub dataset backend (per event type).",
	}, []string{"event"})
)

func gcpEventCounter(e string) prometheus.Counter {
	return ec.With(prometheus.Labels{"event": e})
}
