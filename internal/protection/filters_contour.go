package protection

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/whitespace-server/internal/channel"
	"github.com/brocaar/whitespace-server/internal/config"
	"github.com/brocaar/whitespace-server/internal/contour"
	"github.com/brocaar/whitespace-server/internal/geo"
	"github.com/brocaar/whitespace-server/internal/incumbent"
	"github.com/brocaar/whitespace-server/internal/models"
)

type outcome int

const (
	skipped outcome = iota
	outside
	within
)

// separation holds the protection distances from a contour edge or
// station.
type separation struct {
	co  geo.Distance
	adj geo.Distance

	// adjacent channels get reduced power instead of being blocked
	adjReduce bool
	coOnly    bool
}

// Distances are compared inclusively, with a 1 mm tolerance.
const tolerance = 0.001

func inRange(d, limit geo.Distance) bool {
	return d.Meters() <= limit.Meters()+tolerance
}

func (p *Pipeline) contourSeparation(req *Request) separation {
	t := req.Device.Type
	switch {
	case t.IsLPAux():
		return separation{
			co:     geo.Kilometers(p.conf.TVStation.LPAux.CoChannel),
			coOnly: true,
		}
	case t == models.PersonalPortable:
		return separation{
			co:        geo.Kilometers(p.conf.TVStation.PersonalPortable.CoChannel),
			adj:       geo.Kilometers(p.conf.TVStation.PersonalPortable.AdjacentChannel),
			adjReduce: true,
		}
	default:
		s := FixedSeparation(p.conf.TVStation.Fixed, req.HAAT)
		return separation{
			co:  geo.Kilometers(s.CoChannel),
			adj: geo.Kilometers(s.AdjacentChannel),
		}
	}
}

// FixedSeparation returns the table entry for the given device HAAT. The
// last entry applies above the table.
func FixedSeparation(table []config.HAATSeparation, haat float64) config.HAATSeparation {
	if len(table) == 0 {
		return config.HAATSeparation{}
	}

	sorted := append([]config.HAATSeparation(nil), table...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MaxHAAT < sorted[j].MaxHAAT
	})

	for _, s := range sorted {
		if haat <= s.MaxHAAT {
			return s
		}
	}
	return sorted[len(sorted)-1]
}

func isMalformed(err error) bool {
	switch errors.Cause(err) {
	case contour.ErrNoThreshold, channel.ErrUnknownChannel:
		return true
	}
	return false
}

func (p *Pipeline) protectContour(ctx context.Context, filter string, req *Request, acc *Accumulator, inc models.Incumbent) (outcome, error) {
	if !p.plan.Contains(inc.Channel) {
		malformed(filter, inc, "unknown channel")
		return skipped, nil
	}

	sep := p.contourSeparation(req)
	ids := []int{inc.Channel}
	adj := p.plan.Adjacent(inc.Channel)
	if !sep.coOnly {
		ids = append(ids, adj...)
	}
	if acc.Covered(ids...) {
		return skipped, nil
	}

	c, err := p.contours.ForIncumbent(ctx, inc, req.Snapshot.Boundaries())
	if err != nil {
		if isMalformed(err) {
			malformed(filter, inc, err.Error())
			return skipped, nil
		}
		return skipped, errors.Wrapf(err, "contour error, call sign: %s", inc.CallSign)
	}

	d := c.DistanceTo(req.Device.Location)

	var blocked, reduced []int
	if inRange(d, sep.co) {
		blocked = append(blocked, inc.Channel)
	}
	if !sep.coOnly && inRange(d, sep.adj) {
		if sep.adjReduce {
			reduced = append(reduced, adj...)
		} else {
			blocked = append(blocked, adj...)
		}
	}

	if len(blocked) == 0 && len(reduced) == 0 {
		return outside, nil
	}

	acc.Block(blocked...)
	acc.Reduce(reduced...)
	acc.AddDevice(models.ProtectedDevice{
		Class:    string(inc.Class),
		CallSign: inc.CallSign,
		Location: inc.Location,
		Blocked:  blocked,
		Reduced:  reduced,
		Contour:  &c,
	})

	return within, nil
}

func (p *Pipeline) nearby(ctx context.Context, class models.IncumbentClass, req *Request, radius float64, filter *incumbent.Filter) ([]models.Incumbent, error) {
	area := geo.BuildSquare(req.Device.Location, geo.Kilometers(radius))
	incs, err := p.store.GetIncumbentsNear(ctx, class, area, filter)
	if err != nil {
		return nil, errors.Wrapf(err, "get incumbents error, class: %s", class)
	}
	incumbent.SortByDistance(incs, req.Device.Location)
	return incs, nil
}

func (p *Pipeline) filterTVStations(ctx context.Context, req *Request, acc *Accumulator) error {
	incs, err := p.nearby(ctx, models.TVStation, req, p.conf.TVStation.SearchRadius, nil)
	if err != nil {
		return err
	}

	for _, inc := range incs {
		if _, err := p.protectContour(ctx, FilterTVStations, req, acc, inc); err != nil {
			return err
		}
	}
	return nil
}

// filterTranslators protects translator / LPTV contours. With the legacy
// early return enabled, the filter stops at the first evaluated candidate
// which is not within protection distance.
func (p *Pipeline) filterTranslators(ctx context.Context, req *Request, acc *Accumulator) error {
	incs, err := p.nearby(ctx, models.Translator, req, p.conf.Translator.SearchRadius, nil)
	if err != nil {
		return err
	}

	for _, inc := range incs {
		o, err := p.protectContour(ctx, FilterTranslators, req, acc, inc)
		if err != nil {
			return err
		}

		if o == outside && p.conf.LegacyEarlyReturn {
			log.WithFields(log.Fields{
				"device_id": req.Device.ID,
				"call_sign": inc.CallSign,
			}).Debug("protection: translator filter stopped at first candidate outside protection distance")
			return nil
		}
	}
	return nil
}
