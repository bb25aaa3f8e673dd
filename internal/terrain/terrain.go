// Package terrain implements the terrain and height engine: radial terrain
// sampling, HAAT calculation and clutter lookup on top of a terrain reader.
package terrain

import (
	"context"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/brocaar/whitespace-server/internal/geo"
	"github.com/brocaar/whitespace-server/internal/pathloss"
	terrainreader "github.com/brocaar/whitespace-server/terrain"
)

// Radial sampling parameters.
const (
	SampleStart = 3.2
	SampleEnd   = 16.1
	Samples     = 129

	// GridResolution of the elevation grid (3 arc-seconds) in degrees.
	GridResolution = 3.0 / 3600

	// StationStep is the azimuth step used for station HAAT estimates.
	StationStep = 45
)

// HAAT limits (m).
const (
	MinHAAT = 30.0
	MaxHAAT = 1600.0
)

// RadialHAT maps an azimuth (degrees) to the average terrain elevation
// along the radial (m AMSL).
type RadialHAT map[int]float64

// Mean returns the mean elevation over all radials.
func (r RadialHAT) Mean() float64 {
	if len(r) == 0 {
		return 0
	}
	values := make([]float64, 0, len(r))
	for _, v := range r {
		values = append(values, v)
	}
	return stat.Mean(values, nil)
}

// CornerElevations holds the elevation of the four grid nodes surrounding a
// sample point.
type CornerElevations struct {
	NW float64
	NE float64
	SW float64
	SE float64
}

// Interpolate returns the bilinear interpolation, fx and fy being the
// relative east and north offsets (0 - 1) from the SW corner.
func (c CornerElevations) Interpolate(fx, fy float64) float64 {
	south := c.SW*(1-fx) + c.SE*fx
	north := c.NW*(1-fx) + c.NE*fx
	return south*(1-fy) + north*fy
}

// HeightAboveAverageTerrain returns the antenna height above the average
// terrain of a single radial, limited to [MinHAAT, MaxHAAT].
func HeightAboveAverageTerrain(heightAMSL, radialHAT float64) float64 {
	return math.Max(MinHAAT, math.Min(MaxHAAT, heightAMSL-radialHAT))
}

// Engine implements the terrain and height calculations.
type Engine struct {
	reader      terrainreader.Reader
	concurrency int
}

// NewEngine creates a new Engine. The concurrency limits the number of
// radials sampled at the same time, values < 1 default to the number of
// CPUs.
func NewEngine(r terrainreader.Reader, concurrency int) *Engine {
	if concurrency < 1 {
		concurrency = runtime.NumCPU()
	}
	return &Engine{
		reader:      r,
		concurrency: concurrency,
	}
}

// Concurrency returns the maximum number of concurrent terrain reads.
func (e *Engine) Concurrency() int {
	return e.concurrency
}

// Elevation returns the ground elevation at loc.
func (e *Engine) Elevation(ctx context.Context, loc geo.Location) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	elev, err := e.reader.Elevation(terrainreader.ElevationRequest{
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
	})
	if err != nil {
		readerError("elevation").Inc()
		return 0, errors.Wrap(err, "read elevation error")
	}
	return elev, nil
}

// InterpolatedElevation returns the elevation at loc, bilinearly
// interpolated from the surrounding grid nodes.
func (e *Engine) InterpolatedElevation(ctx context.Context, loc geo.Location) (float64, error) {
	lat0 := math.Floor(loc.Latitude/GridResolution) * GridResolution
	lon0 := math.Floor(loc.Longitude/GridResolution) * GridResolution

	var c CornerElevations
	corners := []struct {
		target *float64
		loc    geo.Location
	}{
		{&c.SW, geo.NewLocation(lat0, lon0)},
		{&c.SE, geo.NewLocation(lat0, lon0+GridResolution)},
		{&c.NW, geo.NewLocation(lat0+GridResolution, lon0)},
		{&c.NE, geo.NewLocation(lat0+GridResolution, lon0+GridResolution)},
	}
	for _, corner := range corners {
		elev, err := e.Elevation(ctx, corner.loc)
		if err != nil {
			return 0, err
		}
		*corner.target = elev
	}

	fx := (loc.Longitude - lon0) / GridResolution
	fy := (loc.Latitude - lat0) / GridResolution
	return c.Interpolate(fx, fy), nil
}

// RadialAverage returns the average terrain elevation along the radial with
// the given bearing.
func (e *Engine) RadialAverage(ctx context.Context, loc geo.Location, bearing float64) (float64, error) {
	elevations := make([]float64, Samples)
	step := (SampleEnd - SampleStart) / float64(Samples-1)

	for i := 0; i < Samples; i++ {
		p := geo.PointTowardsBearing(loc, geo.Kilometers(SampleStart+float64(i)*step), bearing)
		elev, err := e.InterpolatedElevation(ctx, p)
		if err != nil {
			return 0, err
		}
		elevations[i] = elev
	}

	return stat.Mean(elevations, nil), nil
}

// RadialHAT returns the average terrain elevation for each radial, starting
// at azimuth 0 with the given step. The step must divide 360.
func (e *Engine) RadialHAT(ctx context.Context, loc geo.Location, step int) (RadialHAT, error) {
	if step <= 0 || 360%step != 0 {
		return nil, errors.Errorf("invalid azimuth step: %d", step)
	}

	start := time.Now()
	out := make(RadialHAT, 360/step)
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for az := 0; az < 360; az += step {
		az := az
		g.Go(func() error {
			avg, err := e.RadialAverage(ctx, loc, float64(az))
			if err != nil {
				return errors.Wrapf(err, "azimuth %d", az)
			}

			mu.Lock()
			out[az] = avg
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "radial hat error")
	}

	radialDuration(step).Observe(time.Since(start).Seconds())
	return out, nil
}

// StationHAAT returns the coarse HAAT estimate of an antenna at loc with
// the given height above mean sea level.
func (e *Engine) StationHAAT(ctx context.Context, loc geo.Location, heightAMSL float64) (float64, error) {
	rh, err := e.RadialHAT(ctx, loc, StationStep)
	if err != nil {
		return 0, err
	}
	return heightAMSL - rh.Mean(), nil
}

// Clutter returns the clutter class at the given grid coordinate.
func (e *Engine) Clutter(ctx context.Context, en geo.EastingNorthing) (pathloss.Clutter, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c, err := e.reader.Clutter(terrainreader.ClutterRequest{
		Easting:  en.Easting,
		Northing: en.Northing,
	})
	if err != nil {
		readerError("clutter").Inc()
		return 0, errors.Wrap(err, "read clutter error")
	}

	cl := pathloss.Clutter(c)
	if cl < pathloss.Open || cl > pathloss.DenseUrban {
		return 0, errors.Errorf("unknown clutter class: %d", c)
	}
	return cl, nil
}
