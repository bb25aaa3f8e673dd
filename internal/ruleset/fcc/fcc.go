// Package fcc implements the U.S. ruleset.
package fcc

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/whitespace-server/internal/channel"
	"github.com/brocaar/whitespace-server/internal/config"
	"github.com/brocaar/whitespace-server/internal/contour"
	"github.com/brocaar/whitespace-server/internal/geo"
	"github.com/brocaar/whitespace-server/internal/incumbent"
	"github.com/brocaar/whitespace-server/internal/models"
	"github.com/brocaar/whitespace-server/internal/protection"
	"github.com/brocaar/whitespace-server/internal/ruleset"
	"github.com/brocaar/whitespace-server/internal/terrain"
)

// Name of the ruleset.
const Name = "fcc"

// Wireless microphone reservation search start channels.
const (
	micSearchDown = 36
	micSearchUp   = 38
)

var deviceTypes = []models.DeviceType{
	models.Fixed,
	models.PersonalPortable,
	models.LPAuxLicensed,
	models.LPAuxUnlicensed,
}

// Ruleset implements the U.S. ruleset.
type Ruleset struct {
	store    incumbent.Store
	terrain  *terrain.Engine
	contours *contour.Engine
	pipeline *protection.Pipeline
	plan     channel.Plan
	conf     config.FCC
}

// New creates a new U.S. ruleset.
func New(store incumbent.Store, t *terrain.Engine, c config.Config) *Ruleset {
	plan := channel.USPlan()
	contours := contour.NewEngine(t, plan, c.Contour)

	return &Ruleset{
		store:    store,
		terrain:  t,
		contours: contours,
		pipeline: protection.NewPipeline(store, contours, plan, c.Protection),
		plan:     plan,
		conf:     c.FCC,
	}
}

// Name returns the ruleset name.
func (r *Ruleset) Name() string {
	return Name
}

// Contours returns the contour engine.
func (r *Ruleset) Contours() *contour.Engine {
	return r.contours
}

// CalculateContour returns the contour of the incumbent, clipped against the
// boundaries of the current snapshot.
func (r *Ruleset) CalculateContour(ctx context.Context, inc models.Incumbent) (models.Contour, error) {
	c, err := r.contours.Calculate(ctx, inc, r.store.Snapshot().Boundaries())
	if err != nil {
		return models.Contour{}, errors.Wrap(err, "calculate contour error")
	}
	return c, nil
}

// CalculateRadialHAAT returns the HAAT per azimuth.
func (r *Ruleset) CalculateRadialHAAT(ctx context.Context, loc geo.Location, heightAMSL float64) (map[int]float64, error) {
	rh, err := r.terrain.RadialHAT(ctx, loc, 1)
	if err != nil {
		return nil, errors.Wrap(err, "calculate radial hat error")
	}

	out := make(map[int]float64, len(rh))
	for az, hat := range rh {
		out[az] = terrain.HeightAboveAverageTerrain(heightAMSL, hat)
	}
	return out, nil
}

// CalculateStationHAAT returns the coarse HAAT estimate.
func (r *Ruleset) CalculateStationHAAT(ctx context.Context, loc geo.Location, heightAMSL float64) (float64, error) {
	haat, err := r.terrain.StationHAAT(ctx, loc, heightAMSL)
	if err != nil {
		return 0, errors.Wrap(err, "calculate station haat error")
	}
	return haat, nil
}

// deviceHAAT returns the HAAT of fixed devices, used by the separation
// table. Other device types do not use it.
func (r *Ruleset) deviceHAAT(ctx context.Context, d models.Device) (float64, error) {
	if d.Type != models.Fixed {
		return 0, nil
	}

	elev, err := r.terrain.Elevation(ctx, d.Location)
	if err != nil {
		return 0, errors.Wrap(err, "get device elevation error")
	}
	return r.CalculateStationHAAT(ctx, d.Location, elev+d.AntennaHeight)
}

// GetFreeChannels returns the channel availability for the device.
func (r *Ruleset) GetFreeChannels(ctx context.Context, d models.Device) (models.ChannelList, error) {
	if err := d.Validate(deviceTypes...); err != nil {
		return models.ChannelList{}, ruleset.InvalidDevice(err)
	}

	haat, err := r.deviceHAAT(ctx, d)
	if err != nil {
		return r.failed(d, err)
	}

	acc := protection.NewAccumulator(false)
	req := protection.NewRequest(d, haat, r.store.Snapshot())
	if err := r.pipeline.Run(ctx, req, acc); err != nil {
		return r.failed(d, err)
	}

	if !acc.Halted() && !d.Type.IsLPAux() && r.conf.ReserveMicrophoneChannels {
		reserved := ReserveMicrophoneChannels(r.plan, acc.Blocked)
		log.WithFields(log.Fields{
			"device_id": d.ID,
			"channels":  reserved,
		}).Debug("fcc: wireless microphone channels reserved")
	}

	list := models.ChannelList{Status: models.StatusOK}
	for _, ch := range r.plan.Channels() {
		power := models.PowerUnavailable
		if !acc.Blocked.Has(ch.ID) {
			power = r.maxPower(d.Type, ch, acc.Reduced.Has(ch.ID))
		}
		list.Channels = append(list.Channels, ruleset.ChannelInfo(ch, d.Type, power))
	}

	log.WithFields(log.Fields{
		"device_id": d.ID,
		"type":      d.Type,
		"available": len(list.Available()),
	}).Info("fcc: free channels calculated")

	return list, nil
}

// GetDeviceList returns the protected devices for the device.
func (r *Ruleset) GetDeviceList(ctx context.Context, d models.Device) ([]models.ProtectedDevice, error) {
	if err := d.Validate(deviceTypes...); err != nil {
		return nil, ruleset.InvalidDevice(err)
	}

	haat, err := r.deviceHAAT(ctx, d)
	if err != nil {
		return nil, ruleset.CalculationFailed(err)
	}

	acc := protection.NewAccumulator(true)
	req := protection.NewRequest(d, haat, r.store.Snapshot())
	if err := r.pipeline.RunConcurrent(ctx, req, acc); err != nil {
		log.WithError(err).WithField("device_id", d.ID).Error("fcc: device list calculation failed")
		return nil, ruleset.CalculationFailed(err)
	}

	return acc.Devices, nil
}

func (r *Ruleset) failed(d models.Device, err error) (models.ChannelList, error) {
	log.WithError(err).WithField("device_id", d.ID).Error("fcc: free channel calculation failed")
	return ruleset.FailedList(r.plan, d.Type, err), ruleset.CalculationFailed(err)
}

func (r *Ruleset) maxPower(t models.DeviceType, ch channel.Channel, reduced bool) float64 {
	switch t {
	case models.Fixed:
		return r.conf.FixedMaxPower
	case models.PersonalPortable:
		if reduced {
			return r.conf.ReducedMaxPower
		}
		return r.conf.PersonalPortableMaxPower
	default:
		if ch.Band == channel.UHF {
			return r.conf.LPAuxUHFMaxPower
		}
		return r.conf.LPAuxVHFMaxPower
	}
}

// ReserveMicrophoneChannels reserves (blocks) the first unblocked channel
// searching downward from channel 36 and the first one searching upward
// from channel 38. It returns the reserved channels.
func ReserveMicrophoneChannels(plan channel.Plan, blocked channel.Set) []int {
	var out []int

	for ch := micSearchDown; ch >= plan.Min(); ch-- {
		if plan.Contains(ch) && !blocked.Has(ch) {
			out = append(out, ch)
			break
		}
	}

	for ch := micSearchUp; ch <= plan.Max(); ch++ {
		if plan.Contains(ch) && !blocked.Has(ch) {
			out = append(out, ch)
			break
		}
	}

	blocked.Add(out...)
	return out
}
