package contour

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brocaar/whitespace-server/internal/channel"
	"github.com/brocaar/whitespace-server/internal/config"
	"github.com/brocaar/whitespace-server/internal/geo"
	"github.com/brocaar/whitespace-server/internal/models"
	"github.com/brocaar/whitespace-server/internal/terrain"
)

func testConfig() config.Contour {
	return config.Contour{
		DigitalThresholds:    config.Thresholds{LowVHF: 28, HighVHF: 36, UHF: 41},
		AnalogThresholds:     config.Thresholds{LowVHF: 47, HighVHF: 56, UHF: 64},
		TranslatorThresholds: config.Thresholds{LowVHF: 43, HighVHF: 48, UHF: 51},
		DiffractionSlope:     config.Thresholds{LowVHF: 0.6, HighVHF: 0.8, UHF: 1.0},
		ReceiveHeight:        10,
		MaxDistance:          300,
	}
}

func testEngine() *Engine {
	t := terrain.NewEngine(&terrain.FlatReader{ElevationValue: 100}, 8)
	return NewEngine(t, channel.USPlan(), testConfig())
}

func testIncumbent() models.Incumbent {
	return models.Incumbent{
		Class:           models.TVStation,
		CallSign:        "KTST",
		Location:        geo.NewLocation(40, -100),
		Channel:         35,
		AntennaHeight:   300,
		GroundElevation: 100,
		ERP:             100,
		Digital:         true,
	}
}

func TestFCCDistance(t *testing.T) {
	assert := require.New(t)

	assert.Equal(0.0, FCCDistance(0, 300, 599, 41, 1, 10, 300))

	prev := 0.0
	for _, erp := range []float64{0.01, 0.1, 1, 10, 100, 1000} {
		d := FCCDistance(erp, 300, 599, 41, 1, 10, 0)
		assert.True(d > prev, "distance must increase with erp")
		prev = d
	}

	// higher threshold means a smaller contour
	assert.True(FCCDistance(100, 300, 599, 51, 1, 10, 0) < FCCDistance(100, 300, 599, 41, 1, 10, 0))

	// capped
	assert.Equal(50.0, FCCDistance(1000, 300, 599, 41, 1, 10, 50))
}

func TestCalculate(t *testing.T) {
	e := testEngine()

	t.Run("cardinality and idempotence", func(t *testing.T) {
		assert := require.New(t)
		inc := testIncumbent()

		c1, err := e.Calculate(context.Background(), inc, nil)
		assert.NoError(err)
		c2, err := e.Calculate(context.Background(), inc, nil)
		assert.NoError(err)

		assert.Len(c1.Points, 360)
		assert.Equal(c1, c2)

		// omni pattern on flat terrain gives a circle, ordered by azimuth
		r := c1.RadiusAt(0).Kilometers()
		assert.True(r > 0)
		for az := 0; az < 360; az++ {
			assert.InDelta(r, c1.RadiusAt(az).Kilometers(), 1e-6)
			assert.InDelta(float64(az), geo.Bearing(c1.Center, c1.Points[az]), 1e-6)
		}
	})

	t.Run("directional pattern", func(t *testing.T) {
		assert := require.New(t)
		inc := testIncumbent()

		var p models.AntennaPattern
		for i := range p {
			p[i] = 0.1
		}
		p[0] = 1
		p[360] = 1
		inc.Pattern = &p
		inc.PatternRotation = 90

		c, err := e.Calculate(context.Background(), inc, nil)
		assert.NoError(err)
		assert.True(c.RadiusAt(90).Kilometers() > c.RadiusAt(0).Kilometers())
		assert.InDelta(c.RadiusAt(0).Kilometers(), c.RadiusAt(270).Kilometers(), 1e-6)
	})

	t.Run("no threshold for class", func(t *testing.T) {
		assert := require.New(t)
		inc := testIncumbent()
		inc.Class = models.LandMobile

		_, err := e.Calculate(context.Background(), inc, nil)
		assert.Error(err)
	})

	t.Run("unknown channel", func(t *testing.T) {
		assert := require.New(t)
		inc := testIncumbent()
		inc.Channel = 70

		_, err := e.Calculate(context.Background(), inc, nil)
		assert.Error(err)
	})
}

func TestClip(t *testing.T) {
	inc := testIncumbent()
	half := geo.Kilometers(20)
	sq := geo.BuildSquare(inc.Location, half)
	boundary := models.Region{
		Kind: models.CountryBoundary,
		Polygon: geo.Polygon{
			{Latitude: sq.MinLatitude, Longitude: sq.MinLongitude},
			{Latitude: sq.MinLatitude, Longitude: sq.MaxLongitude},
			{Latitude: sq.MaxLatitude, Longitude: sq.MaxLongitude},
			{Latitude: sq.MaxLatitude, Longitude: sq.MinLongitude},
		},
	}

	t.Run("points outside are moved to the boundary", func(t *testing.T) {
		assert := require.New(t)
		e := testEngine()

		c, err := e.Calculate(context.Background(), inc, []models.Region{boundary})
		assert.NoError(err)

		assert.InDelta(20, c.RadiusAt(0).Kilometers(), 0.1)
		assert.InDelta(20, c.RadiusAt(90).Kilometers(), 0.1)
		for _, p := range c.Points {
			assert.True(p.Latitude <= sq.MaxLatitude+1e-9 && p.Latitude >= sq.MinLatitude-1e-9)
			assert.True(p.Longitude <= sq.MaxLongitude+1e-9 && p.Longitude >= sq.MinLongitude-1e-9)
		}
	})

	t.Run("no intersection keeps the point", func(t *testing.T) {
		assert := require.New(t)

		far := models.Region{
			Kind: models.CountryBoundary,
			Polygon: geo.Polygon{
				{Latitude: 0, Longitude: 0},
				{Latitude: 0, Longitude: 1},
				{Latitude: 1, Longitude: 1},
			},
		}

		in := models.Contour{Center: inc.Location}
		for az := range in.Points {
			in.Points[az] = geo.PointTowardsBearing(inc.Location, geo.Kilometers(10), float64(az))
		}
		out := Clip(in, []models.Region{far})
		assert.Equal(in, out)
	})
}

func TestCodec(t *testing.T) {
	assert := require.New(t)
	e := testEngine()
	inc := testIncumbent()

	c, err := e.Calculate(context.Background(), inc, nil)
	assert.NoError(err)

	b, err := Encode(c)
	assert.NoError(err)

	decoded, err := Decode(inc.Location, b)
	assert.NoError(err)
	for az := range c.Points {
		assert.InDelta(c.Points[az].Latitude, decoded.Points[az].Latitude, 1e-12)
		assert.InDelta(c.Points[az].Longitude, decoded.Points[az].Longitude, 1e-12)
	}

	_, err = Decode(inc.Location, []byte(`[[1,2]]`))
	assert.Error(err)

	t.Run("for incumbent prefers serialized contour", func(t *testing.T) {
		assert := require.New(t)

		var fixed models.Contour
		fixed.Center = inc.Location
		for az := range fixed.Points {
			fixed.Points[az] = geo.PointTowardsBearing(inc.Location, geo.Kilometers(1), float64(az))
		}
		b, err := Encode(fixed)
		assert.NoError(err)

		withContour := inc
		withContour.Contour = b
		out, err := e.ForIncumbent(context.Background(), withContour, nil)
		assert.NoError(err)
		assert.InDelta(1, out.RadiusAt(0).Kilometers(), 1e-6)

		withContour.Contour = []byte("broken")
		out, err = e.ForIncumbent(context.Background(), withContour, nil)
		assert.NoError(err)
		assert.Equal(c, out)
	})
}
