package models

import (
	"github.com/brocaar/whitespace-server/internal/geo"
)

// RegionKind defines the kind of a region.
type RegionKind string

// Region kinds.
const (
	ExclusionZone   RegionKind = "EXCLUSION"
	QuietZone       RegionKind = "RADIO_ASTRONOMY"
	OffshoreRegion  RegionKind = "OFFSHORE"
	CountryBoundary RegionKind = "COUNTRY_BOUNDARY"
)

// Region holds a polygon (or circle) based region.
type Region struct {
	Name    string      `json:"name" db:"name"`
	Kind    RegionKind  `json:"kind" db:"kind"`
	Polygon geo.Polygon `json:"polygon,omitempty"`

	// Center and Radius describe a circular region. They are used when the
	// polygon is empty.
	Center *geo.Location `json:"center,omitempty"`
	Radius geo.Distance  `json:"radius"`

	// Channels lists the affected channels, empty means all.
	Channels []int `json:"channels,omitempty"`

	// DeviceTypes lists the affected device types, empty means all.
	DeviceTypes []DeviceType `json:"deviceTypes,omitempty"`
}

// Contains returns true when loc is within the region.
func (r Region) Contains(loc geo.Location) bool {
	if len(r.Polygon) >= 3 {
		return r.Polygon.Contains(loc)
	}
	if r.Center != nil {
		return geo.DistanceBetween(*r.Center, loc).LessOrEqual(r.Radius)
	}
	return false
}

// Centroid returns the circle center, or the mean of the polygon vertices.
func (r Region) Centroid() geo.Location {
	if r.Center != nil {
		return *r.Center
	}

	var out geo.Location
	if len(r.Polygon) == 0 {
		return out
	}
	for _, p := range r.Polygon {
		out.Latitude += p.Latitude
		out.Longitude += p.Longitude
	}
	out.Latitude /= float64(len(r.Polygon))
	out.Longitude /= float64(len(r.Polygon))
	return out
}

// AllChannels returns true when the region affects every channel.
func (r Region) AllChannels() bool {
	return len(r.Channels) == 0
}

// Blocks returns true when the region affects the given channel.
func (r Region) Blocks(ch int) bool {
	if r.AllChannels() {
		return true
	}
	for _, c := range r.Channels {
		if c == ch {
			return true
		}
	}
	return false
}

// AppliesTo returns true when the region affects the given device type.
func (r Region) AppliesTo(t DeviceType) bool {
	if len(r.DeviceTypes) == 0 {
		return true
	}
	for _, dt := range r.DeviceTypes {
		if dt == t {
			return true
		}
	}
	return false
}
