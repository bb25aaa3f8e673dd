package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	acc = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_area_cache_count",
		Help: "The number of area cache lookups (per result).",
	}, []string{"result"})

	qd = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "storage_query_duration_seconds",
		Help: "The duration of the database queries (per query).",
	}, []string{"query"})
)

func areaCache(result string) prometheus.Counter {
	return acc.With(prometheus.Labels{"result": result})
}

func queryDuration(query string) prometheus.Observer {
	return qd.With(prometheus.Labels{"query": query})
}
