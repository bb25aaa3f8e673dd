package ofcom

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/brocaar/whitespace-server/internal/models"
)

var (
	mrc = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ofcom_malformed_receiver_count",
		Help: "The number of skipped malformed receivers (per class).",
	}, []string{"class"})

	candidatePixels = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ofcom_candidate_pixels",
		Help:    "The number of coarse candidate pixels per calculation.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})
)

func malformedReceiver(class models.IncumbentClass) prometheus.Counter {
	return mrc.With(prometheus.Labels{"class": string(class)})
}
