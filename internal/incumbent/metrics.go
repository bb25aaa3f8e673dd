package incumbent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sr = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "incumbent_snapshot_refresh_count",
		Help: "The number of snapshot refreshes (per result).",
	}, []string{"result"})
)

func snapshotRefresh(result string) prometheus.Counter {
	return sr.With(prometheus.Labels{"result": result})
}
