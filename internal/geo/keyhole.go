package geo

// DefaultArcWidth is the half-width of a keyhole arc in degrees.
const DefaultArcWidth = 30.0

// Keyhole describes a protection zone around a receive site which extends
// to Outer within the arc towards the paired transmitter and to Inner
// elsewhere.
type Keyhole struct {
	Center  Location `json:"center"`
	Bearing float64  `json:"bearing"`
	Start   float64  `json:"start"`
	End     float64  `json:"end"`
	Inner   Distance `json:"innerKm"`
	Outer   Distance `json:"outerKm"`
}

// NewKeyhole returns the keyhole centered on center, with its arc spanning
// bearing +/- halfWidth.
func NewKeyhole(center Location, bearing, halfWidth float64, inner, outer Distance) Keyhole {
	return Keyhole{
		Center:  center,
		Bearing: NormalizeBearing(bearing),
		Start:   NormalizeBearing(bearing - halfWidth),
		End:     NormalizeBearing(bearing + halfWidth),
		Inner:   inner,
		Outer:   outer,
	}
}

// InArc returns true when the given bearing (from the keyhole center) lies
// within the arc. Arcs wrapping through north are handled.
func (k Keyhole) InArc(bearing float64) bool {
	b := NormalizeBearing(bearing)
	if k.Start <= k.End {
		return b >= k.Start && b <= k.End
	}
	return b >= k.Start || b <= k.End
}

// Radius returns the protection radius which applies at loc.
func (k Keyhole) Radius(loc Location) Distance {
	if k.InArc(Bearing(k.Center, loc)) {
		return k.Outer
	}
	return k.Inner
}

// ArcSpan returns the angular span of the arc in degrees.
func (k Keyhole) ArcSpan() float64 {
	return NormalizeBearing(k.End - k.Start)
}
