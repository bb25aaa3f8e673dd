package amqp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ec = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "dataset_amqp_event_count",
	Help: "The number of received events by the AMQP dataset backend (per event type).",
}, []string{"event"})

func amqpEventCounter(e string) prometheus.Counter {
	return ec.With(prometheus.Labels{"event": e})
}
