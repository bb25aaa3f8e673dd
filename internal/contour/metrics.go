package contour

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cc = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contour_count",
		Help: "The number of contours used (per source).",
	}, []string{"source"})

	cf = promauto.NewCounter(prometheus.CounterOpts{
		Name: "contour_clip_failed_count",
		Help: "The number of contour points which could not be clipped to the country boundary.",
	})
)

func contourCalculated(source string) prometheus.Counter {
	return cc.With(prometheus.Labels{"source": source})
}

func clipFailed() prometheus.Counter {
	return cf
}
