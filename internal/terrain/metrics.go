package terrain

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	re = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "terrain_reader_error_count",
		Help: "The number of failed terrain reader calls (per call type).",
	}, []string{"call"})

	rd = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "terrain_radial_hat_duration_seconds",
		Help:    "The duration of radial HAT calculations (per azimuth step).",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	}, []string{"step"})
)

func readerError(call string) prometheus.Counter {
	return re.With(prometheus.Labels{"call": call})
}

func radialDuration(step int) prometheus.Observer {
	return rd.With(prometheus.Labels{"step": strconv.Itoa(step)})
}
