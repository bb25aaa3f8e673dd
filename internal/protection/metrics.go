package protection

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/whitespace-server/internal/models"
)

var (
	mr = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "protection_malformed_record_count",
		Help: "The number of skipped malformed incumbent records (per filter).",
	}, []string{"filter"})

	fd = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "protection_filter_duration_seconds",
		Help:    "The duration of the protection filters (per filter).",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"filter"})
)

func malformedRecord(filter string) prometheus.Counter {
	return mr.With(prometheus.Labels{"filter": filter})
}

func filterDuration(filter string) prometheus.Observer {
	return fd.With(prometheus.Labels{"filter": filter})
}

func malformed(filter string, inc models.Incumbent, reason string) {
	malformedRecord(filter).Inc()
	log.WithFields(log.Fields{
		"filter":    filter,
		"id":        inc.ID,
		"class":     inc.Class,
		"call_sign": inc.CallSign,
		"reason":    reason,
	}).Warning("protection: skipping malformed record")
}
