package protection

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/brocaar/whitespace-server/internal/models"
)

func (p *Pipeline) regionChannels(r models.Region) []int {
	if r.AllChannels() {
		return p.plan.IDs()
	}

	var out []int
	for _, ch := range r.Channels {
		if p.plan.Contains(ch) {
			out = append(out, ch)
		}
	}
	return out
}

func (p *Pipeline) blockRegions(regions []models.Region, req *Request, acc *Accumulator) bool {
	matched := false
	for _, r := range regions {
		if !r.AppliesTo(req.Device.Type) || !r.Contains(req.Device.Location) {
			continue
		}

		matched = true
		ids := p.regionChannels(r)
		acc.Block(ids...)
		acc.AddDevice(models.ProtectedDevice{
			Class:    string(r.Kind),
			CallSign: r.Name,
			Location: r.Centroid(),
			Blocked:  ids,
		})
	}
	return matched
}

func (p *Pipeline) filterExclusionZones(ctx context.Context, req *Request, acc *Accumulator) error {
	p.blockRegions(req.Snapshot.ExcludedRegions(), req, acc)
	return nil
}

// filterRadioAstronomy blocks all channels and halts the pipeline when the
// device is within a radio astronomy site or quiet zone.
func (p *Pipeline) filterRadioAstronomy(ctx context.Context, req *Request, acc *Accumulator) error {
	for _, r := range req.Snapshot.RadioAstronomy() {
		if !r.AppliesTo(req.Device.Type) || !r.Contains(req.Device.Location) {
			continue
		}

		ids := p.plan.IDs()
		acc.Block(ids...)
		acc.AddDevice(models.ProtectedDevice{
			Class:    string(r.Kind),
			CallSign: r.Name,
			Location: r.Centroid(),
			Blocked:  ids,
		})
		acc.Halt()

		log.WithFields(log.Fields{
			"device_id": req.Device.ID,
			"region":    r.Name,
		}).Info("protection: device within radio astronomy zone, all channels blocked")
		return nil
	}
	return nil
}

// BaseRestrictions returns the channels a device type may never use.
func (p *Pipeline) BaseRestrictions(t models.DeviceType) []int {
	switch t {
	case models.Fixed:
		return append(p.plan.Range(3, 4), p.plan.Range(37, 37)...)
	case models.PersonalPortable:
		return append(p.plan.Range(2, 21), p.plan.Range(37, 37)...)
	case models.LPAuxLicensed:
		return p.plan.Range(37, 37)
	case models.LPAuxUnlicensed:
		return append(p.plan.Range(2, 13), p.plan.Range(37, 37)...)
	default:
		return nil
	}
}

func (p *Pipeline) filterBaseRestrictions(ctx context.Context, req *Request, acc *Accumulator) error {
	acc.Block(p.BaseRestrictions(req.Device.Type)...)
	return nil
}

func (p *Pipeline) filterOffshore(ctx context.Context, req *Request, acc *Accumulator) error {
	p.blockRegions(req.Snapshot.Offshore(), req, acc)
	return nil
}

// filterSpectrumUsage is a placeholder for the spectrum-usage exclusions,
// which have no defined behavior.
func (p *Pipeline) filterSpectrumUsage(ctx context.Context, req *Request, acc *Accumulator) error {
	log.WithField("device_id", req.Device.ID).Debug("protection: spectrum-usage exclusions are not implemented")
	return nil
}
