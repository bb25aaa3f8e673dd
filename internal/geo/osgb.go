package geo

import (
	"math"
)

// EastingNorthing holds a British National Grid coordinate in meters.
type EastingNorthing struct {
	Easting  float64 `json:"easting"`
	Northing float64 `json:"northing"`
}

// Airy 1830 ellipsoid and National Grid projection constants.
const (
	airyA  = 6377563.396
	airyB  = 6356256.909
	osgbF0 = 0.9996012717
	osgbE0 = 400000.0
	osgbN0 = -100000.0
)

var (
	osgbLat0 = toRadians(49)
	osgbLon0 = toRadians(-2)
)

// ToEastingNorthing projects loc onto the British National Grid
// (transverse mercator on the Airy 1830 ellipsoid). The WGS84 to OSGB36
// datum shift is not applied, which keeps the result within ~120 m. This
// is sufficient for clutter lookups.
func ToEastingNorthing(loc Location) EastingNorthing {
	lat := toRadians(loc.Latitude)
	lon := toRadians(loc.Longitude)

	e2 := 1 - (airyB*airyB)/(airyA*airyA)
	n := (airyA - airyB) / (airyA + airyB)
	n2 := n * n
	n3 := n * n * n

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	tanLat := math.Tan(lat)

	nu := airyA * osgbF0 / math.Sqrt(1-e2*sinLat*sinLat)
	rho := airyA * osgbF0 * (1 - e2) / math.Pow(1-e2*sinLat*sinLat, 1.5)
	eta2 := nu/rho - 1

	dLat := lat - osgbLat0
	sLat := lat + osgbLat0
	m := airyB * osgbF0 * ((1+n+5.0/4*n2+5.0/4*n3)*dLat -
		(3*n+3*n2+21.0/8*n3)*math.Sin(dLat)*math.Cos(sLat) +
		(15.0/8*n2+15.0/8*n3)*math.Sin(2*dLat)*math.Cos(2*sLat) -
		35.0/24*n3*math.Sin(3*dLat)*math.Cos(3*sLat))

	i := m + osgbN0
	ii := nu / 2 * sinLat * cosLat
	iii := nu / 24 * sinLat * math.Pow(cosLat, 3) * (5 - tanLat*tanLat + 9*eta2)
	iiia := nu / 720 * sinLat * math.Pow(cosLat, 5) * (61 - 58*tanLat*tanLat + math.Pow(tanLat, 4))
	iv := nu * cosLat
	v := nu / 6 * math.Pow(cosLat, 3) * (nu/rho - tanLat*tanLat)
	vi := nu / 120 * math.Pow(cosLat, 5) * (5 - 18*tanLat*tanLat + math.Pow(tanLat, 4) + 14*eta2 - 58*tanLat*tanLat*eta2)

	dLon := lon - osgbLon0

	return EastingNorthing{
		Northing: i + ii*math.Pow(dLon, 2) + iii*math.Pow(dLon, 4) + iiia*math.Pow(dLon, 6),
		Easting:  osgbE0 + iv*dLon + v*math.Pow(dLon, 3) + vi*math.Pow(dLon, 5),
	}
}
