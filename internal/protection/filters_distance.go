package protection

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/brocaar/whitespace-server/internal/config"
	"github.com/brocaar/whitespace-server/internal/geo"
	"github.com/brocaar/whitespace-server/internal/models"
)

// protectDistance protects the incumbent by a fixed co- and adjacent channel
// distance from the station. LP-Aux devices only get co-channel
// protection.
func (p *Pipeline) protectDistance(filter string, req *Request, acc *Accumulator, inc models.Incumbent, sep config.Separation) outcome {
	if !p.plan.Contains(inc.Channel) {
		malformed(filter, inc, "unknown channel")
		return skipped
	}

	coOnly := req.Device.Type.IsLPAux()
	ids := []int{inc.Channel}
	adj := p.plan.Adjacent(inc.Channel)
	if !coOnly {
		ids = append(ids, adj...)
	}
	if acc.Covered(ids...) {
		return skipped
	}

	d := geo.DistanceBetween(inc.Location, req.Device.Location)

	var blocked []int
	if inRange(d, geo.Kilometers(sep.CoChannel)) {
		blocked = append(blocked, inc.Channel)
	}
	if !coOnly && inRange(d, geo.Kilometers(sep.AdjacentChannel)) {
		blocked = append(blocked, adj...)
	}

	if len(blocked) == 0 {
		return outside
	}

	acc.Block(blocked...)
	acc.AddDevice(models.ProtectedDevice{
		Class:    string(inc.Class),
		CallSign: inc.CallSign,
		Location: inc.Location,
		Blocked:  blocked,
	})
	return within
}

func (p *Pipeline) filterLandMobile(ctx context.Context, req *Request, acc *Accumulator) error {
	incs, err := p.nearby(ctx, models.LandMobile, req, p.conf.LandMobile.SearchRadius, nil)
	if err != nil {
		return err
	}

	for _, inc := range incs {
		p.protectDistance(FilterLandMobile, req, acc, inc, p.conf.LandMobile.Separation)
	}
	return nil
}

// filterTBand protects the T-band metropolitan areas. With the legacy early
// return enabled, the filter stops at the first candidate which is not
// within protection distance. Candidates are sorted by distance.
func (p *Pipeline) filterTBand(ctx context.Context, req *Request, acc *Accumulator) error {
	incs, err := p.nearby(ctx, models.TBand, req, p.conf.TBand.SearchRadius, nil)
	if err != nil {
		return err
	}

	for _, inc := range incs {
		o := p.protectDistance(FilterTBand, req, acc, inc, p.conf.TBand.Separation)
		if o == outside && p.conf.LegacyEarlyReturn {
			log.WithFields(log.Fields{
				"device_id": req.Device.ID,
				"call_sign": inc.CallSign,
			}).Debug("protection: t-band filter stopped at first candidate outside protection distance")
			return nil
		}
	}
	return nil
}

// filterLPAux protects the licensed LP-Aux registrations of the snapshot
// which are active at the request time (co-channel only). Registrations
// outside the search area are not considered.
func (p *Pipeline) filterLPAux(ctx context.Context, req *Request, acc *Accumulator) error {
	if req.Snapshot == nil {
		return nil
	}

	area := geo.BuildSquare(req.Device.Location, geo.Kilometers(p.conf.LPAux.SearchRadius))

	limit := geo.Kilometers(p.conf.LPAux.Fixed)
	if req.Device.Type == models.PersonalPortable {
		limit = geo.Kilometers(p.conf.LPAux.PersonalPortable)
	}

	for _, inc := range req.Snapshot.LPAux {
		if !area.Contains(inc.Location) || !inc.ActiveAt(req.Time) {
			continue
		}
		if !p.plan.Contains(inc.Channel) {
			malformed(FilterLPAux, inc, "unknown channel")
			continue
		}
		if acc.Covered(inc.Channel) {
			continue
		}

		if !inRange(geo.DistanceBetween(inc.Location, req.Device.Location), limit) {
			continue
		}

		acc.Block(inc.Channel)
		acc.AddDevice(models.ProtectedDevice{
			Class:    string(inc.Class),
			CallSign: inc.CallSign,
			Location: inc.Location,
			Blocked:  []int{inc.Channel},
		})
	}
	return nil
}
