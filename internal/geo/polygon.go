package geo

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Polygon defines a closed ring of locations. The closing edge between the
// last and first vertex is implicit.
type Polygon []Location

func vec(l Location) r2.Vec {
	return r2.Vec{X: l.Longitude, Y: l.Latitude}
}

// Contains returns true when loc is inside the polygon (ray casting in the
// latitude / longitude plane).
func (p Polygon) Contains(loc Location) bool {
	if len(p) < 3 {
		return false
	}

	inside := false
	j := len(p) - 1
	for i := 0; i < len(p); i++ {
		pi, pj := p[i], p[j]
		if (pi.Latitude > loc.Latitude) != (pj.Latitude > loc.Latitude) {
			x := (pj.Longitude-pi.Longitude)*(loc.Latitude-pi.Latitude)/(pj.Latitude-pi.Latitude) + pi.Longitude
			if loc.Longitude < x {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// Intersections returns the points where the segment a-b crosses the
// polygon edges, in edge order.
func (p Polygon) Intersections(a, b Location) []Location {
	if len(p) < 2 {
		return nil
	}

	var out []Location
	for i := range p {
		c := p[i]
		d := p[(i+1)%len(p)]
		if pt, ok := segmentIntersection(vec(a), vec(b), vec(c), vec(d)); ok {
			out = append(out, Location{Latitude: pt.Y, Longitude: pt.X})
		}
	}
	return out
}

// NearestIntersection returns the intersection of segment a-b with the
// polygon boundary which is nearest to b.
func (p Polygon) NearestIntersection(a, b Location) (Location, bool) {
	var best Location
	bestDist := math.Inf(1)
	for _, pt := range p.Intersections(a, b) {
		if d := DistanceBetween(pt, b).Meters(); d < bestDist {
			best = pt
			bestDist = d
		}
	}
	return best, !math.IsInf(bestDist, 1)
}

func segmentIntersection(p, p2, q, q2 r2.Vec) (r2.Vec, bool) {
	r := r2.Sub(p2, p)
	s := r2.Sub(q2, q)

	denom := r2.Cross(r, s)
	if math.Abs(denom) < 1e-15 {
		return r2.Vec{}, false
	}

	qp := r2.Sub(q, p)
	t := r2.Cross(qp, s) / denom
	u := r2.Cross(qp, r) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return r2.Vec{}, false
	}

	return r2.Add(p, r2.Scale(t, r)), true
}
