// Package ofcom implements the U.K. ruleset. Channel availability follows
// from a link budget against the nearby DTT and PMSE receivers.
package ofcom

import (
	"context"
	"math"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/brocaar/whitespace-server/internal/channel"
	"github.com/brocaar/whitespace-server/internal/config"
	"github.com/brocaar/whitespace-server/internal/geo"
	"github.com/brocaar/whitespace-server/internal/incumbent"
	"github.com/brocaar/whitespace-server/internal/models"
	"github.com/brocaar/whitespace-server/internal/ruleset"
	"github.com/brocaar/whitespace-server/internal/terrain"
)

// Name of the ruleset.
const Name = "ofcom"

var deviceTypes = []models.DeviceType{
	models.Master,
	models.Slave,
}

// dttBandwidthFactor converts a power per 8 MHz into a PSD per 100 kHz.
var dttBandwidthFactor = 10 * math.Log10(80)

// Ruleset implements the U.K. ruleset.
type Ruleset struct {
	store   incumbent.Store
	terrain *terrain.Engine
	plan    channel.Plan
	conf    config.Ofcom
}

// New creates a new U.K. ruleset.
func New(store incumbent.Store, t *terrain.Engine, c config.Config) *Ruleset {
	return &Ruleset{
		store:   store,
		terrain: t,
		plan:    channel.GBPlan(),
		conf:    c.Ofcom,
	}
}

// Name returns the ruleset name.
func (r *Ruleset) Name() string {
	return Name
}

// Ceiling returns the maximum PSD (dBm / 100 kHz) derived from the maximum
// in-block EIRP.
func (r *Ruleset) Ceiling() float64 {
	return r.conf.MaxEIRP - dttBandwidthFactor
}

// CalculateContour is not supported by this ruleset.
func (r *Ruleset) CalculateContour(ctx context.Context, inc models.Incumbent) (models.Contour, error) {
	return models.Contour{}, ruleset.ErrNotSupported
}

// CalculateRadialHAAT is not supported by this ruleset.
func (r *Ruleset) CalculateRadialHAAT(ctx context.Context, loc geo.Location, heightAMSL float64) (map[int]float64, error) {
	return nil, ruleset.ErrNotSupported
}

// CalculateStationHAAT is not supported by this ruleset.
func (r *Ruleset) CalculateStationHAAT(ctx context.Context, loc geo.Location, heightAMSL float64) (float64, error) {
	return 0, ruleset.ErrNotSupported
}

// GetFreeChannels returns the channel availability for the device.
func (r *Ruleset) GetFreeChannels(ctx context.Context, d models.Device) (models.ChannelList, error) {
	if err := r.validate(d); err != nil {
		return models.ChannelList{}, ruleset.InvalidDevice(err)
	}

	res, err := r.evaluate(ctx, d)
	if err != nil {
		log.WithError(err).WithField("device_id", d.ID).Error("ofcom: free channel calculation failed")
		return ruleset.FailedList(r.plan, d.Type, err), ruleset.CalculationFailed(err)
	}

	ids := r.plan.IDs()
	psd := make([]float64, len(ids))
	for i, id := range ids {
		psd[i] = floats.Min(res.limits[id])
	}
	power := make([]float64, len(psd))
	copy(power, psd)
	floats.AddConst(dttBandwidthFactor, power)

	list := models.ChannelList{Status: models.StatusOK}
	for i, ch := range r.plan.Channels() {
		info := ruleset.ChannelInfo(ch, d.Type, models.PowerUnavailable)
		if !res.blocked.Has(ch.ID) && psd[i] >= r.conf.MinPSD {
			p := psd[i]
			info.MaxPowerDBm = power[i]
			info.MaxPSD = &p
		}
		list.Channels = append(list.Channels, info)
	}

	log.WithFields(log.Fields{
		"device_id": d.ID,
		"type":      d.Type,
		"receivers": len(res.constraints),
		"available": len(list.Available()),
	}).Info("ofcom: free channels calculated")

	return list, nil
}

// GetDeviceList returns the exclusion zones and receivers which constrain
// any channel below the ceiling.
func (r *Ruleset) GetDeviceList(ctx context.Context, d models.Device) ([]models.ProtectedDevice, error) {
	if err := r.validate(d); err != nil {
		return nil, ruleset.InvalidDevice(err)
	}

	res, err := r.evaluate(ctx, d)
	if err != nil {
		log.WithError(err).WithField("device_id", d.ID).Error("ofcom: device list calculation failed")
		return nil, ruleset.CalculationFailed(err)
	}

	out := res.regions
	for _, c := range res.constraints {
		var blocked, reduced []int
		for _, id := range r.plan.IDs() {
			l, ok := c.limits[id]
			if !ok || l >= r.Ceiling() {
				continue
			}
			if l < r.conf.MinPSD {
				blocked = append(blocked, id)
			} else {
				reduced = append(reduced, id)
			}
		}
		if len(blocked) == 0 && len(reduced) == 0 {
			continue
		}

		out = append(out, models.ProtectedDevice{
			Class:    string(c.receiver.inc.Class),
			CallSign: c.receiver.inc.CallSign,
			Location: c.receiver.inc.Location,
			Blocked:  blocked,
			Reduced:  reduced,
		})
	}

	return out, nil
}

func (r *Ruleset) validate(d models.Device) error {
	if err := d.Validate(deviceTypes...); err != nil {
		return err
	}

	switch d.RequestType {
	case "", models.Specific, models.Generic:
	default:
		return errors.Errorf("invalid request type: %s", d.RequestType)
	}
	return nil
}

// result holds the outcome of a single evaluation.
type result struct {
	// limits holds per channel the PSD limits (dBm / 100 kHz) of all
	// receivers, including the ceiling.
	limits map[int][]float64

	blocked     channel.Set
	regions     []models.ProtectedDevice
	constraints []constraint
}

func (r *Ruleset) evaluate(ctx context.Context, d models.Device) (*result, error) {
	res := result{
		limits:  make(map[int][]float64),
		blocked: channel.NewSet(),
	}
	for _, id := range r.plan.IDs() {
		res.limits[id] = []float64{r.Ceiling()}
	}

	r.exclusionZones(d, &res)

	fp := r.footprint(d)
	receivers, err := r.receivers(ctx, d, fp)
	if err != nil {
		return nil, err
	}
	if len(receivers) == 0 {
		return &res, nil
	}

	pixels, err := r.coarsePixels(ctx, d, fp)
	if err != nil {
		return nil, err
	}
	candidatePixels.Observe(float64(len(pixels.locations)))

	for _, rx := range receivers {
		c, err := r.constrain(ctx, d, fp, pixels, rx)
		if err != nil {
			return nil, errors.Wrapf(err, "receiver error, call sign: %s", rx.inc.CallSign)
		}
		for id, l := range c.limits {
			res.limits[id] = append(res.limits[id], l)
		}
		res.constraints = append(res.constraints, c)
	}

	return &res, nil
}

func (r *Ruleset) exclusionZones(d models.Device, res *result) {
	for _, region := range r.store.Snapshot().ExcludedRegions() {
		if !region.AppliesTo(d.Type) || !region.Contains(d.Location) {
			continue
		}

		var blocked []int
		for _, id := range r.plan.IDs() {
			if region.Blocks(id) {
				blocked = append(blocked, id)
			}
		}
		res.blocked.Add(blocked...)
		res.regions = append(res.regions, models.ProtectedDevice{
			Class:    string(region.Kind),
			CallSign: region.Name,
			Location: region.Centroid(),
			Blocked:  blocked,
		})
	}
}

// classPenalty returns the emission class penalty. Class 0 (unset) is
// handled as class 1.
func (r *Ruleset) classPenalty(class int) float64 {
	i := class - 1
	if i < 0 {
		i = 0
	}
	if i >= len(r.conf.ClassPenalty) {
		return 0
	}
	return r.conf.ClassPenalty[i]
}
