package protection

import (
	"context"

	"github.com/pkg/errors"

	"github.com/brocaar/whitespace-server/internal/geo"
	"github.com/brocaar/whitespace-server/internal/incumbent"
	"github.com/brocaar/whitespace-server/internal/models"
)

var keyholeClasses = map[string]models.IncumbentClass{
	FilterBAS:            models.BAS,
	FilterCableHeadends:  models.CableHeadend,
	FilterTemporaryLinks: models.TemporaryLink,
	FilterReceiveSites:   models.ReceiveSite,
}

// keyholeCandidates returns the receive sites of all keyhole protected
// classes near the device. They are fetched with a single combined query
// on first use.
func (p *Pipeline) keyholeCandidates(ctx context.Context, req *Request) ([]models.Incumbent, error) {
	if req.keyholeLoaded {
		return req.keyholeCandidates, nil
	}

	classes := []models.IncumbentClass{models.BAS, models.CableHeadend, models.TemporaryLink, models.ReceiveSite}
	area := geo.BuildSquare(req.Device.Location, geo.Kilometers(p.conf.Keyhole.SearchRadius))

	incs, err := p.store.GetCombinedIncumbents(ctx, classes, area)
	if err != nil {
		return nil, errors.Wrap(err, "get combined incumbents error")
	}
	incumbent.SortByDistance(incs, req.Device.Location)

	req.keyholeCandidates = incs
	req.keyholeLoaded = true
	return incs, nil
}

func (p *Pipeline) keyholeFilter(name string) Filter {
	class := keyholeClasses[name]

	return func(ctx context.Context, req *Request, acc *Accumulator) error {
		incs, err := p.keyholeCandidates(ctx, req)
		if err != nil {
			return err
		}

		for _, inc := range incs {
			if inc.Class != class {
				continue
			}
			if class == models.TemporaryLink && !inc.ActiveAt(req.Time) {
				continue
			}
			p.protectKeyhole(name, req, acc, inc)
		}
		return nil
	}
}

// protectKeyhole protects a receive site. Within the arc towards its paired
// transmitter the outer distances apply, elsewhere the inner distances.
func (p *Pipeline) protectKeyhole(filter string, req *Request, acc *Accumulator, inc models.Incumbent) {
	if inc.Parent == nil {
		malformed(filter, inc, "missing parent transmitter")
		return
	}
	if !p.plan.Contains(inc.Channel) {
		malformed(filter, inc, "unknown channel")
		return
	}

	adj := p.plan.Adjacent(inc.Channel)
	if acc.Covered(append([]int{inc.Channel}, adj...)...) {
		return
	}

	arc := p.conf.Keyhole.ArcWidth
	if arc <= 0 {
		arc = geo.DefaultArcWidth
	}

	bearing := geo.Bearing(inc.Location, *inc.Parent)
	kh := p.conf.Keyhole
	co := geo.NewKeyhole(inc.Location, bearing, arc, geo.Kilometers(kh.Inner.CoChannel), geo.Kilometers(kh.Outer.CoChannel))
	ad := geo.NewKeyhole(inc.Location, bearing, arc, geo.Kilometers(kh.Inner.AdjacentChannel), geo.Kilometers(kh.Outer.AdjacentChannel))

	loc := req.Device.Location
	d := geo.DistanceBetween(inc.Location, loc)

	var blocked []int
	if inRange(d, co.Radius(loc)) {
		blocked = append(blocked, inc.Channel)
	}
	if inRange(d, ad.Radius(loc)) {
		blocked = append(blocked, adj...)
	}

	if len(blocked) == 0 {
		return
	}

	acc.Block(blocked...)
	acc.AddDevice(models.ProtectedDevice{
		Class:    string(inc.Class),
		CallSign: inc.CallSign,
		Location: inc.Location,
		Blocked:  blocked,
		Keyhole:  &co,
	})
}
