package geo

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeBearing(t *testing.T) {
	tests := []struct {
		in       float64
		expected float64
	}{
		{0, 0},
		{359.5, 359.5},
		{360, 0},
		{-30, 330},
		{390, 30},
		{-720, 0},
		{-1e-15, 0},
	}

	for _, tst := range tests {
		t.Run(fmt.Sprintf("%f", tst.in), func(t *testing.T) {
			assert := require.New(t)
			out := NormalizeBearing(tst.in)
			assert.InDelta(tst.expected, out, 1e-9)
			assert.True(out >= 0 && out < 360)
		})
	}
}

func TestDistanceUnits(t *testing.T) {
	assert := require.New(t)

	a := Kilometers(1.5)
	b := Meters(500)

	assert.Equal(1500.0, a.Meters())
	assert.Equal(0.5, b.Kilometers())
	assert.InDelta(2.0, a.Add(b).Kilometers(), 1e-12)
	assert.Equal(Kilometer, a.Add(b).Unit())
	assert.InDelta(-1000.0, b.Sub(a).Meters(), 1e-9)
	assert.Equal(Meter, b.Sub(a).Unit())
	assert.True(b.Less(a))
	assert.True(Meters(1500).LessOrEqual(a))
	assert.False(Meters(1500).Less(a))

	bb, err := json.Marshal(b)
	assert.NoError(err)
	assert.Equal("0.5", string(bb))

	var d Distance
	assert.NoError(json.Unmarshal([]byte("2.25"), &d))
	assert.Equal(2250.0, d.Meters())
}

func TestDistanceAndBearing(t *testing.T) {
	origin := NewLocation(38.8977, -77.0365)

	t.Run("DistanceBetween", func(t *testing.T) {
		assert := require.New(t)

		// One degree of latitude is ~111.19 km on the mean sphere.
		d := DistanceBetween(NewLocation(0, 0), NewLocation(1, 0))
		assert.InDelta(111.195, d.Kilometers(), 0.01)
		assert.Equal(0.0, DistanceBetween(origin, origin).Kilometers())
	})

	t.Run("Bearing", func(t *testing.T) {
		assert := require.New(t)

		assert.InDelta(0, Bearing(NewLocation(0, 0), NewLocation(1, 0)), 1e-9)
		assert.InDelta(90, Bearing(NewLocation(0, 0), NewLocation(0, 1)), 1e-9)
		assert.InDelta(180, Bearing(NewLocation(1, 0), NewLocation(0, 0)), 1e-9)
		assert.InDelta(270, Bearing(NewLocation(0, 1), NewLocation(0, 0)), 1e-9)
	})

	t.Run("PointTowardsBearing round trip", func(t *testing.T) {
		for _, brng := range []float64{0, 17, 90, 181.5, 270, 359} {
			for _, km := range []float64{0.01, 1, 25, 150} {
				t.Run(fmt.Sprintf("%f/%f", brng, km), func(t *testing.T) {
					assert := require.New(t)
					p := PointTowardsBearing(origin, Kilometers(km), brng)
					assert.InDelta(km, DistanceBetween(origin, p).Kilometers(), 1e-6)
					assert.InDelta(0, NormalizeBearing(Bearing(origin, p)-brng+180)-180, 1e-6)
				})
			}
		}
	})

	t.Run("Offset", func(t *testing.T) {
		assert := require.New(t)
		p := Offset(origin, Meters(300), Meters(400))
		assert.InDelta(500, DistanceBetween(origin, p).Meters(), 0.5)
	})
}

func TestGrid(t *testing.T) {
	assert := require.New(t)
	center := NewLocation(51.5, -0.12)

	assert.Equal([]Location{center}, Grid(center, Meters(50), Meters(100)))

	pixels := Grid(center, Meters(100), Meters(100))
	// center plus the four direct neighbours
	assert.Len(pixels, 5)

	for _, p := range Grid(center, Meters(1000), Meters(100)) {
		assert.True(DistanceBetween(center, p).Meters() <= 1000.5)
	}
}

func TestSquare(t *testing.T) {
	assert := require.New(t)
	center := NewLocation(40, -100)
	sq := BuildSquare(center, Kilometers(10))

	assert.True(sq.Contains(center))
	assert.True(sq.Contains(PointTowardsBearing(center, Kilometers(9.9), 0)))
	assert.True(sq.Contains(PointTowardsBearing(center, Kilometers(9.9), 270)))
	assert.False(sq.Contains(PointTowardsBearing(center, Kilometers(10.1), 180)))
	assert.False(sq.Contains(PointTowardsBearing(center, Kilometers(10.1), 90)))
	assert.InDelta(10, DistanceBetween(center, NewLocation(sq.MaxLatitude, center.Longitude)).Kilometers(), 1e-6)
}

func TestPolygon(t *testing.T) {
	square := Polygon{
		NewLocation(0, 0),
		NewLocation(0, 10),
		NewLocation(10, 10),
		NewLocation(10, 0),
	}

	t.Run("Contains", func(t *testing.T) {
		tests := []struct {
			loc      Location
			expected bool
		}{
			{NewLocation(5, 5), true},
			{NewLocation(0.1, 9.9), true},
			{NewLocation(-1, 5), false},
			{NewLocation(5, 11), false},
			{NewLocation(20, 20), false},
		}

		for _, tst := range tests {
			t.Run(fmt.Sprintf("%v", tst.loc), func(t *testing.T) {
				assert := require.New(t)
				assert.Equal(tst.expected, square.Contains(tst.loc))
			})
		}
	})

	t.Run("degenerate polygon", func(t *testing.T) {
		assert := require.New(t)
		assert.False(Polygon{NewLocation(0, 0), NewLocation(1, 1)}.Contains(NewLocation(0.5, 0.5)))
	})

	t.Run("Intersections", func(t *testing.T) {
		assert := require.New(t)

		pts := square.Intersections(NewLocation(5, 5), NewLocation(5, 15))
		assert.Len(pts, 1)
		assert.InDelta(5, pts[0].Latitude, 1e-9)
		assert.InDelta(10, pts[0].Longitude, 1e-9)

		pts = square.Intersections(NewLocation(5, -5), NewLocation(5, 15))
		assert.Len(pts, 2)

		assert.Len(square.Intersections(NewLocation(1, 1), NewLocation(2, 2)), 0)
	})

	t.Run("NearestIntersection", func(t *testing.T) {
		assert := require.New(t)

		pt, ok := square.NearestIntersection(NewLocation(5, -5), NewLocation(5, 15))
		assert.True(ok)
		assert.InDelta(10, pt.Longitude, 1e-9)

		_, ok = square.NearestIntersection(NewLocation(1, 1), NewLocation(2, 2))
		assert.False(ok)
	})
}

func TestKeyhole(t *testing.T) {
	center := NewLocation(35, -90)

	t.Run("arc is 60 degrees wide after normalization", func(t *testing.T) {
		for _, brng := range []float64{0, 10, 29.5, 30, 45, 180, 330, 345, 359.9, 360, -15, 725} {
			t.Run(fmt.Sprintf("%f", brng), func(t *testing.T) {
				assert := require.New(t)
				k := NewKeyhole(center, brng, DefaultArcWidth, Kilometers(8), Kilometers(80))

				assert.True(k.Start >= 0 && k.Start < 360)
				assert.True(k.End >= 0 && k.End < 360)
				assert.InDelta(60, k.ArcSpan(), 1e-9)
				assert.True(k.InArc(brng))
				assert.True(k.InArc(brng + 29.9))
				assert.True(k.InArc(brng - 29.9))
				assert.False(k.InArc(brng + 30.1))
				assert.False(k.InArc(brng - 30.1))
				assert.False(k.InArc(brng + 180))
			})
		}
	})

	t.Run("Radius", func(t *testing.T) {
		assert := require.New(t)
		k := NewKeyhole(center, 10, DefaultArcWidth, Kilometers(8), Kilometers(80))

		assert.Equal(80.0, k.Radius(PointTowardsBearing(center, Kilometers(50), 350)).Kilometers())
		assert.Equal(8.0, k.Radius(PointTowardsBearing(center, Kilometers(50), 50)).Kilometers())
	})
}

func TestToEastingNorthing(t *testing.T) {
	t.Run("true origin", func(t *testing.T) {
		assert := require.New(t)
		en := ToEastingNorthing(NewLocation(49, -2))
		assert.InDelta(400000, en.Easting, 1e-6)
		assert.InDelta(-100000, en.Northing, 1e-6)
	})

	t.Run("national grid worked example", func(t *testing.T) {
		assert := require.New(t)
		en := ToEastingNorthing(NewLocation(52.657570306, 1.717921583))
		assert.InDelta(651409.903, en.Easting, 1)
		assert.InDelta(313177.270, en.Northing, 1)
	})
}
