package models

import (
	"math"
	"time"

	"github.com/gofrs/uuid"

	"github.com/brocaar/whitespace-server/internal/geo"
)

// IncumbentClass defines the class (and store table) of an incumbent.
type IncumbentClass string

// Incumbent classes.
const (
	TVStation     IncumbentClass = "TV_STATION"
	Translator    IncumbentClass = "TRANSLATOR"
	LandMobile    IncumbentClass = "LAND_MOBILE"
	TBand         IncumbentClass = "T_BAND"
	BAS           IncumbentClass = "BAS"
	CableHeadend  IncumbentClass = "CABLE_HEADEND"
	TemporaryLink IncumbentClass = "TEMPORARY_LINK"
	ReceiveSite   IncumbentClass = "RECEIVE_SITE"
	LPAux         IncumbentClass = "LPAUX"
	DTT           IncumbentClass = "DTT"
	PMSE          IncumbentClass = "PMSE"
)

// IncumbentClasses lists all incumbent classes.
var IncumbentClasses = []IncumbentClass{
	TVStation, Translator, LandMobile, TBand, BAS, CableHeadend,
	TemporaryLink, ReceiveSite, LPAux, DTT, PMSE,
}

// Polarization of a transmitting antenna.
type Polarization string

// Polarizations.
const (
	Horizontal Polarization = "H"
	Vertical   Polarization = "V"
	Elliptical Polarization = "E"
)

// Incumbent holds a protected station as read from the incumbent store.
type Incumbent struct {
	ID       uuid.UUID      `json:"id" db:"id"`
	Class    IncumbentClass `json:"class" db:"class"`
	CallSign string         `json:"callSign" db:"call_sign"`

	Location geo.Location `json:"location"`
	Channel  int          `json:"channel" db:"channel"`

	// AntennaHeight above ground level (m).
	AntennaHeight float64 `json:"antennaHeight" db:"antenna_height"`

	// GroundElevation above mean sea level (m).
	GroundElevation float64 `json:"groundElevation" db:"ground_elevation"`

	// HAAT as registered (m).
	HAAT float64 `json:"haat" db:"haat"`

	// ERP in kW.
	ERP float64 `json:"erp" db:"erp"`

	Polarization    Polarization    `json:"polarization" db:"polarization"`
	Pattern         *AntennaPattern `json:"pattern,omitempty"`
	PatternRotation int             `json:"patternRotation" db:"pattern_rotation"`
	Digital         bool            `json:"digital" db:"digital"`

	// Parent holds the location of the paired transmitter of a receive site.
	Parent *geo.Location `json:"parent,omitempty"`

	// Contour holds the serialized contour, if computed.
	Contour []byte `json:"contour,omitempty" db:"contour"`

	ValidFrom *time.Time `json:"validFrom,omitempty" db:"valid_from"`
	ValidTo   *time.Time `json:"validTo,omitempty" db:"valid_to"`

	// FrequencyMHz of a PMSE assignment.
	FrequencyMHz float64 `json:"frequencyMHz,omitempty" db:"frequency_mhz"`

	// WantedSignal at a DTT receiver (dBm per 8 MHz).
	WantedSignal float64 `json:"wantedSignal,omitempty" db:"wanted_signal"`

	// InterferenceThreshold at a PMSE receiver (dBm per 100 kHz).
	InterferenceThreshold float64 `json:"interferenceThreshold,omitempty" db:"interference_threshold"`

	// ReceiverHeight (m), 0 means the configured default.
	ReceiverHeight float64 `json:"receiverHeight,omitempty" db:"receiver_height"`
}

// HeightAMSL returns the antenna height above mean sea level.
func (i Incumbent) HeightAMSL() float64 {
	return i.GroundElevation + i.AntennaHeight
}

// ActiveAt returns true when the validity window (if any) includes t.
func (i Incumbent) ActiveAt(t time.Time) bool {
	if i.ValidFrom != nil && t.Before(*i.ValidFrom) {
		return false
	}
	if i.ValidTo != nil && t.After(*i.ValidTo) {
		return false
	}
	return true
}

// AntennaPattern holds the relative field for azimuth 0 - 360 (inclusive).
type AntennaPattern [361]float64

// OmniPattern returns an omni-directional pattern.
func OmniPattern() AntennaPattern {
	var p AntennaPattern
	for i := range p {
		p[i] = 1
	}
	return p
}

// Rotate returns the pattern rotated clockwise by deg degrees, so that the
// field at true azimuth a equals the original field at a - deg.
func (p AntennaPattern) Rotate(deg int) AntennaPattern {
	var out AntennaPattern
	for a := 0; a < 360; a++ {
		src := ((a-deg)%360 + 360) % 360
		out[a] = p[src]
	}
	out[360] = out[0]
	return out
}

// Field returns the relative field at the given azimuth.
func (p AntennaPattern) Field(azimuth int) float64 {
	return p[((azimuth%360)+360)%360]
}

// Contour holds the 360 boundary points of an incumbent, ordered by
// azimuth starting at 0.
type Contour struct {
	Center geo.Location      `json:"center"`
	Points [360]geo.Location `json:"points"`
}

// RadiusAt returns the distance from the center to the point at the given
// azimuth.
func (c Contour) RadiusAt(azimuth int) geo.Distance {
	return geo.DistanceBetween(c.Center, c.Points[((azimuth%360)+360)%360])
}

// Polygon returns the contour as polygon.
func (c Contour) Polygon() geo.Polygon {
	return geo.Polygon(c.Points[:])
}

// DistanceTo returns the distance from loc to the contour edge in the
// direction of loc. The value is negative when loc is inside the contour.
func (c Contour) DistanceTo(loc geo.Location) geo.Distance {
	bearing := geo.Bearing(c.Center, loc)
	az := int(math.Round(bearing)) % 360
	return geo.DistanceBetween(c.Center, loc).Sub(c.RadiusAt(az))
}
