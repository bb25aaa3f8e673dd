package models

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/brocaar/whitespace-server/internal/geo"
)

func TestAntennaPatternRotate(t *testing.T) {
	assert := require.New(t)

	var p AntennaPattern
	p[0] = 1
	p[360] = 1

	r := p.Rotate(90)
	assert.Equal(1.0, r[90])
	assert.Equal(0.0, r[0])
	assert.Equal(r[0], r[360])

	r = p.Rotate(-10)
	assert.Equal(1.0, r[350])
	assert.Equal(1.0, r.Field(-10))
	assert.Equal(1.0, r.Field(710))
}

func TestIncumbentActiveAt(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	tests := []struct {
		name     string
		from, to *time.Time
		at       time.Time
		active   bool
	}{
		{"no window", nil, nil, from, true},
		{"before", &from, &to, from.Add(-time.Second), false},
		{"start inclusive", &from, &to, from, true},
		{"end inclusive", &from, &to, to, true},
		{"after", &from, &to, to.Add(time.Second), false},
		{"open end", &from, nil, to.Add(time.Hour), true},
	}

	for _, tst := range tests {
		t.Run(tst.name, func(t *testing.T) {
			assert := require.New(t)
			i := Incumbent{ValidFrom: tst.from, ValidTo: tst.to}
			assert.Equal(tst.active, i.ActiveAt(tst.at))
		})
	}
}

func TestRegion(t *testing.T) {
	assert := require.New(t)

	square := Region{
		Kind: ExclusionZone,
		Polygon: geo.Polygon{
			{Latitude: 0, Longitude: 0},
			{Latitude: 0, Longitude: 1},
			{Latitude: 1, Longitude: 1},
			{Latitude: 1, Longitude: 0},
		},
		Channels:    []int{21, 22},
		DeviceTypes: []DeviceType{Fixed},
	}
	assert.True(square.Contains(geo.NewLocation(0.5, 0.5)))
	assert.False(square.Contains(geo.NewLocation(1.5, 0.5)))
	assert.True(square.Blocks(21))
	assert.False(square.Blocks(23))
	assert.True(square.AppliesTo(Fixed))
	assert.False(square.AppliesTo(PersonalPortable))

	center := geo.NewLocation(38.43, -79.82)
	circle := Region{Kind: QuietZone, Center: &center, Radius: geo.Kilometers(10)}
	assert.True(circle.Contains(geo.PointTowardsBearing(center, geo.Kilometers(9.99), 45)))
	assert.False(circle.Contains(geo.PointTowardsBearing(center, geo.Kilometers(10.1), 45)))
	assert.True(circle.Blocks(37))
	assert.True(circle.AppliesTo(LPAuxLicensed))
}

func TestContourDistanceTo(t *testing.T) {
	assert := require.New(t)

	c := Contour{Center: geo.NewLocation(40, -100)}
	for az := 0; az < 360; az++ {
		c.Points[az] = geo.PointTowardsBearing(c.Center, geo.Kilometers(50), float64(az))
	}

	assert.InDelta(50, c.RadiusAt(359).Kilometers(), 1e-6)
	assert.InDelta(-10, c.DistanceTo(geo.PointTowardsBearing(c.Center, geo.Kilometers(40), 10)).Kilometers(), 1e-6)
	assert.InDelta(5, c.DistanceTo(geo.PointTowardsBearing(c.Center, geo.Kilometers(55), 200)).Kilometers(), 1e-6)
	assert.True(c.Polygon().Contains(geo.PointTowardsBearing(c.Center, geo.Kilometers(20), 300)))
}

func TestDeviceValidate(t *testing.T) {
	assert := require.New(t)

	d := Device{Type: Fixed, Location: geo.NewLocation(40, -100)}
	assert.NoError(d.Validate(Fixed, PersonalPortable))
	assert.Equal(ErrInvalidDeviceType, errors.Cause(d.Validate(Master)))

	d.Location.Latitude = 91
	assert.Equal(ErrInvalidLocation, d.Validate(Fixed))

	d = Device{Type: Master, Location: geo.NewLocation(51.5, -0.1), EmissionClass: 7}
	assert.Equal(ErrInvalidClass, errors.Cause(d.Validate(Master)))
}
