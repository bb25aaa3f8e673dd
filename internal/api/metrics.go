package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ac = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "api_available_channels",
	Help:    "The number of available channels per free-channels request (per ruleset).",
	Buckets: prometheus.LinearBuckets(0, 5, 11),
}, []string{"ruleset"})

func availableChannels(rs string) prometheus.Observer {
	return ac.With(prometheus.Labels{"ruleset": rs})
}
