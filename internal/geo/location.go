// Package geo implements the geometry helpers used by the region
// calculations: distances, bearings, projections, polygons and keyholes.
package geo

import (
	"math"
)

// EarthRadius is the mean earth radius in km.
const EarthRadius = 6371.0

// Location holds a WGS84 latitude / longitude pair in decimal degrees.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewLocation returns a new Location.
func NewLocation(lat, lon float64) Location {
	return Location{Latitude: lat, Longitude: lon}
}

// Valid returns true when the coordinates are within range.
func (l Location) Valid() bool {
	return l.Latitude >= -90 && l.Latitude <= 90 && l.Longitude >= -180 && l.Longitude <= 180
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// NormalizeBearing returns the given bearing within [0, 360).
func NormalizeBearing(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	// -1e-15 + 360 rounds to 360
	if deg >= 360 {
		deg -= 360
	}
	return deg
}

// DistanceBetween returns the great-circle (haversine) distance between
// a and b.
func DistanceBetween(a, b Location) Distance {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := lat2 - lat1
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return Kilometers(EarthRadius * c)
}

// Bearing returns the initial bearing from a to b in degrees within
// [0, 360).
func Bearing(a, b Location) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	return NormalizeBearing(toDegrees(math.Atan2(y, x)))
}

// PointTowardsBearing returns the location at distance d from origin when
// travelling along the given initial bearing.
func PointTowardsBearing(origin Location, d Distance, bearing float64) Location {
	lat1 := toRadians(origin.Latitude)
	lon1 := toRadians(origin.Longitude)
	brng := toRadians(NormalizeBearing(bearing))
	ad := d.Kilometers() / EarthRadius

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(ad) + math.Cos(lat1)*math.Sin(ad)*math.Cos(brng))
	lon2 := lon1 + math.Atan2(
		math.Sin(brng)*math.Sin(ad)*math.Cos(lat1),
		math.Cos(ad)-math.Sin(lat1)*math.Sin(lat2),
	)

	lon := toDegrees(lon2)
	lon = math.Mod(lon+540, 360) - 180

	return Location{Latitude: toDegrees(lat2), Longitude: lon}
}

// Offset returns the location shifted east and north by the given
// distances, using a local equirectangular approximation. It is intended
// for sub-kilometer pixel grids.
func Offset(origin Location, east, north Distance) Location {
	dLat := north.Kilometers() / EarthRadius
	dLon := east.Kilometers() / (EarthRadius * math.Cos(toRadians(origin.Latitude)))

	return Location{
		Latitude:  origin.Latitude + toDegrees(dLat),
		Longitude: origin.Longitude + toDegrees(dLon),
	}
}

// Grid returns the centers of a square pixel grid with the given step that
// fall within radius of center. The center itself is always included.
func Grid(center Location, radius, step Distance) []Location {
	if step.Meters() <= 0 || radius.Meters() < step.Meters() {
		return []Location{center}
	}

	n := int(math.Floor(radius.Meters() / step.Meters()))
	out := make([]Location, 0, (2*n+1)*(2*n+1))
	for y := -n; y <= n; y++ {
		for x := -n; x <= n; x++ {
			dx := float64(x) * step.Meters()
			dy := float64(y) * step.Meters()
			if math.Hypot(dx, dy) > radius.Meters() {
				continue
			}
			out = append(out, Offset(center, Meters(dx), Meters(dy)))
		}
	}
	return out
}

// Square defines an axis-aligned latitude / longitude bounding box.
type Square struct {
	MinLatitude  float64 `json:"minLatitude"`
	MaxLatitude  float64 `json:"maxLatitude"`
	MinLongitude float64 `json:"minLongitude"`
	MaxLongitude float64 `json:"maxLongitude"`
}

// BuildSquare returns the bounding box which extends halfSide from center
// in each of the four cardinal directions.
func BuildSquare(center Location, halfSide Distance) Square {
	n := PointTowardsBearing(center, halfSide, 0)
	e := PointTowardsBearing(center, halfSide, 90)
	s := PointTowardsBearing(center, halfSide, 180)
	w := PointTowardsBearing(center, halfSide, 270)

	return Square{
		MinLatitude:  s.Latitude,
		MaxLatitude:  n.Latitude,
		MinLongitude: w.Longitude,
		MaxLongitude: e.Longitude,
	}
}

// Contains returns true when loc is within the square.
func (s Square) Contains(loc Location) bool {
	return loc.Latitude >= s.MinLatitude && loc.Latitude <= s.MaxLatitude &&
		loc.Longitude >= s.MinLongitude && loc.Longitude <= s.MaxLongitude
}
