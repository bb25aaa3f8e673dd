package pathloss

import (
	"math"

	"github.com/brocaar/whitespace-server/internal/geo"
)

const (
	bisectionMin        = 0.0
	bisectionMax        = 100.0
	bisectionIterations = 30
	bisectionTolerance  = 1e-4
)

// DistanceFromPathLoss returns the distance at which PathLoss equals the
// target loss, searched by bisection over [0, 100] km. When the search does
// not converge within the iteration budget, the center of the last bracket
// is returned.
func DistanceFromPathLoss(target float64, p Params, c Clutter) geo.Distance {
	lo, hi := bisectionMin, bisectionMax
	for i := 0; i < bisectionIterations; i++ {
		mid := (lo + hi) / 2
		l := PathLoss(mid, p, c)
		if math.Abs(l-target) < bisectionTolerance {
			return geo.Kilometers(mid)
		}
		if l < target {
			lo = mid
		} else {
			hi = mid
		}
	}
	return geo.Kilometers((lo + hi) / 2)
}

// FreeSpaceDistance returns the distance at which the free-space loss
// equals l.
func FreeSpaceDistance(l, f float64) float64 {
	return math.Pow(10, (l-32.45-20*math.Log10(f))/20)
}

// PlaneEarthDistance returns the distance at which the plane-earth loss
// equals l.
func PlaneEarthDistance(l float64, p Params) float64 {
	hb, hm := p.heights()
	c := 76.3 - 10*math.Log10(hm)
	if hm > 10 {
		c = 83.9 - 20*math.Log10(hm)
	}
	return math.Pow(10, (l-20*math.Log10(p.FrequencyMHz)+20*math.Log10(hb)-c)/40)
}
