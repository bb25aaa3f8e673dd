// Package contour calculates the 360 point protected contour of a
// transmitting incumbent.
package contour

import (
	"context"
	"math"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/whitespace-server/internal/channel"
	"github.com/brocaar/whitespace-server/internal/config"
	"github.com/brocaar/whitespace-server/internal/geo"
	"github.com/brocaar/whitespace-server/internal/models"
	"github.com/brocaar/whitespace-server/internal/pathloss"
	"github.com/brocaar/whitespace-server/internal/terrain"
)

// ErrNoThreshold is returned for incumbent classes without contour.
var ErrNoThreshold = errors.New("no contour threshold for incumbent class")

// Engine calculates contours.
type Engine struct {
	terrain *terrain.Engine
	plan    channel.Plan
	conf    config.Contour
}

// NewEngine creates a new contour Engine.
func NewEngine(t *terrain.Engine, plan channel.Plan, c config.Contour) *Engine {
	return &Engine{
		terrain: t,
		plan:    plan,
		conf:    c,
	}
}

// Threshold returns the protected field strength (dBu) for the incumbent
// on the given channel.
func (e *Engine) Threshold(inc models.Incumbent, ch channel.Channel) (float64, error) {
	var t config.Thresholds
	switch inc.Class {
	case models.TVStation:
		if inc.Digital {
			t = e.conf.DigitalThresholds
		} else {
			t = e.conf.AnalogThresholds
		}
	case models.Translator:
		t = e.conf.TranslatorThresholds
	default:
		return 0, errors.Wrapf(ErrNoThreshold, "class: %s", inc.Class)
	}

	return byBand(t, ch.Band), nil
}

func byBand(t config.Thresholds, b channel.Band) float64 {
	switch b {
	case channel.LowVHF:
		return t.LowVHF
	case channel.HighVHF:
		return t.HighVHF
	default:
		return t.UHF
	}
}

// Calculate calculates the contour of the given incumbent, clipped against
// the given national sub-region boundaries. With no boundaries the contour
// is not clipped.
func (e *Engine) Calculate(ctx context.Context, inc models.Incumbent, boundaries []models.Region) (models.Contour, error) {
	ch, err := e.plan.Channel(inc.Channel)
	if err != nil {
		return models.Contour{}, errors.Wrapf(err, "channel: %d", inc.Channel)
	}

	threshold, err := e.Threshold(inc, ch)
	if err != nil {
		return models.Contour{}, err
	}
	slope := byBand(e.conf.DiffractionSlope, ch.Band)

	pattern := models.OmniPattern()
	if inc.Pattern != nil {
		pattern = *inc.Pattern
	}
	pattern = pattern.Rotate(inc.PatternRotation)

	rh, err := e.terrain.RadialHAT(ctx, inc.Location, 1)
	if err != nil {
		return models.Contour{}, errors.Wrap(err, "calculate radial hat error")
	}

	out := models.Contour{Center: inc.Location}
	for az := 0; az < 360; az++ {
		field := pattern.Field(az)
		erp := inc.ERP * field * field
		haat := terrain.HeightAboveAverageTerrain(inc.HeightAMSL(), rh[az])

		d := FCCDistance(erp, haat, ch.CenterMHz(), threshold, slope, e.conf.ReceiveHeight, e.conf.MaxDistance)
		out.Points[az] = geo.PointTowardsBearing(inc.Location, geo.Kilometers(d), float64(az))
	}

	out = Clip(out, boundaries)

	contourCalculated("calculated").Inc()
	return out, nil
}

// ForIncumbent returns the serialized contour of the incumbent when present
// and valid, else it calculates it clipped against boundaries.
func (e *Engine) ForIncumbent(ctx context.Context, inc models.Incumbent, boundaries []models.Region) (models.Contour, error) {
	if len(inc.Contour) != 0 {
		c, err := Decode(inc.Location, inc.Contour)
		if err == nil {
			contourCalculated("serialized").Inc()
			return c, nil
		}

		log.WithError(err).WithFields(log.Fields{
			"id":        inc.ID,
			"call_sign": inc.CallSign,
		}).Warning("contour: invalid serialized contour, recalculating")
	}

	return e.Calculate(ctx, inc, boundaries)
}

// FCCDistance returns the distance (km) at which the field strength of a
// transmitter with the given ERP (kW) and HAAT (m) drops to threshold
// (dBu). Within the radio horizon the loss is the maximum of the free-space
// and plane-earth loss, beyond it the loss increases with slope dB/km.
// The result is limited to maxDistance when > 0.
func FCCDistance(erpKW, haat, frequencyMHz, threshold, slope, receiveHeight, maxDistance float64) float64 {
	if erpKW <= 0 {
		return 0
	}

	loss := 10*math.Log10(erpKW) + 139.37 + 20*math.Log10(frequencyMHz) - threshold
	p := pathloss.Params{
		FrequencyMHz: frequencyMHz,
		HeightMaster: haat,
		HeightSlave:  receiveHeight,
	}

	horizon := 4.12 * (math.Sqrt(math.Max(haat, 0)) + math.Sqrt(math.Max(receiveHeight, 0)))

	d := math.Min(pathloss.FreeSpaceDistance(loss, frequencyMHz), pathloss.PlaneEarthDistance(loss, p))
	if d > horizon {
		lossHorizon := math.Max(pathloss.FreeSpace(horizon, frequencyMHz), pathloss.PlaneEarth(horizon, p))
		if slope > 0 {
			d = horizon + (loss-lossHorizon)/slope
		}
	}

	if maxDistance > 0 && d > maxDistance {
		d = maxDistance
	}
	return d
}

// Clip replaces every contour point outside all boundary regions by the
// boundary intersection (on the segment from the center to the point)
// nearest to the point. Points for which no intersection exists are kept.
func Clip(c models.Contour, boundaries []models.Region) models.Contour {
	if len(boundaries) == 0 {
		return c
	}

	for az, pt := range c.Points {
		if inAny(boundaries, pt) {
			continue
		}

		var best geo.Location
		bestDist := math.Inf(1)
		for _, b := range boundaries {
			ip, ok := b.Polygon.NearestIntersection(c.Center, pt)
			if !ok {
				continue
			}
			if d := geo.DistanceBetween(ip, pt).Meters(); d < bestDist {
				best = ip
				bestDist = d
			}
		}

		if math.IsInf(bestDist, 1) {
			clipFailed().Inc()
			log.WithFields(log.Fields{
				"azimuth":   az,
				"latitude":  pt.Latitude,
				"longitude": pt.Longitude,
			}).Warning("contour: no boundary intersection found, keeping unclipped point")
			continue
		}

		c.Points[az] = best
	}

	return c
}

func inAny(regions []models.Region, loc geo.Location) bool {
	for _, r := range regions {
		if r.Contains(loc) {
			return true
		}
	}
	return false
}
