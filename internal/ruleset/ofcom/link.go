package ofcom

import (
	"context"
	"math"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/brocaar/whitespace-server/internal/channel"
	"github.com/brocaar/whitespace-server/internal/geo"
	"github.com/brocaar/whitespace-server/internal/models"
	"github.com/brocaar/whitespace-server/internal/pathloss"
)

// minDistance (km) avoids a zero distance between a pixel and a receiver.
const minDistance = 0.001

// receiver holds a protected DTT or PMSE receiver.
type receiver struct {
	inc     models.Incumbent
	channel channel.Channel
	height  float64
}

func (rx receiver) frequency() float64 {
	if rx.inc.Class == models.PMSE {
		return rx.inc.FrequencyMHz
	}
	return rx.channel.CenterMHz()
}

// constraint holds the per channel PSD limits caused by a receiver.
type constraint struct {
	receiver receiver
	pixel    geo.Location
	limits   map[int]float64
}

// pixels holds candidate transmitter locations with their clutter class.
type pixels struct {
	locations []geo.Location
	clutter   map[geo.Location]pathloss.Clutter
}

// footprint returns the radius of the area the device may transmit from.
// For generic slave requests this is the coverage radius of the master,
// else the location uncertainty.
func (r *Ruleset) footprint(d models.Device) geo.Distance {
	if d.Type == models.Slave && d.RequestType == models.Generic {
		f := r.plan.Channels()[0].CenterMHz()
		dist := pathloss.DistanceFromPathLoss(r.conf.MaxEIRP-r.conf.SlaveSensitivity, pathloss.Params{
			FrequencyMHz: f,
			HeightMaster: d.AntennaHeight,
			HeightSlave:  r.conf.SlaveHeight,
		}, pathloss.Urban)

		limit := geo.Kilometers(r.conf.MaxCoverageRadius)
		if limit.Less(dist) {
			return limit
		}
		return dist
	}

	return geo.Meters(d.LocationUncertainty)
}

func (r *Ruleset) deviceHeight(d models.Device) float64 {
	if d.Type == models.Slave {
		return r.conf.SlaveHeight
	}
	return d.AntennaHeight
}

// receivers returns the DTT and PMSE receivers within the search radius
// of the footprint. Inactive PMSE assignments and malformed records are
// skipped.
func (r *Ruleset) receivers(ctx context.Context, d models.Device, fp geo.Distance) ([]receiver, error) {
	area := geo.BuildSquare(d.Location, geo.Kilometers(r.conf.SearchRadius).Add(fp))
	incs, err := r.store.GetCombinedIncumbents(ctx, []models.IncumbentClass{models.DTT, models.PMSE}, area)
	if err != nil {
		return nil, errors.Wrap(err, "get receivers error")
	}

	t := d.RequestTime()
	var out []receiver
	for _, inc := range incs {
		rx := receiver{inc: inc, height: inc.ReceiverHeight}

		switch inc.Class {
		case models.DTT:
			rx.channel, err = r.plan.Channel(inc.Channel)
			if rx.height == 0 {
				rx.height = r.conf.DTTReceiverHeight
			}
		case models.PMSE:
			if !inc.ActiveAt(t) {
				continue
			}
			rx.channel, err = r.plan.ChannelForFrequency(inc.FrequencyMHz)
			if rx.height == 0 {
				rx.height = r.conf.PMSEReceiverHeight
			}
		default:
			continue
		}

		if err != nil {
			malformedReceiver(inc.Class).Inc()
			log.WithError(err).WithFields(log.Fields{
				"id":        inc.ID,
				"class":     inc.Class,
				"call_sign": inc.CallSign,
			}).Warning("ofcom: skipping malformed receiver")
			continue
		}

		out = append(out, rx)
	}

	return out, nil
}

// coarsePixels returns the coarse grid over the footprint, with the clutter
// class of every pixel read concurrently.
func (r *Ruleset) coarsePixels(ctx context.Context, d models.Device, fp geo.Distance) (*pixels, error) {
	locs := geo.Grid(d.Location, fp, geo.Meters(r.conf.PixelSize))
	clutter := make([]pathloss.Clutter, len(locs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.terrain.Concurrency())

	for i := range locs {
		i := i
		g.Go(func() error {
			c, err := r.terrain.Clutter(ctx, geo.ToEastingNorthing(locs[i]))
			if err != nil {
				return err
			}
			clutter[i] = c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "read pixel clutter error")
	}

	out := pixels{
		locations: locs,
		clutter:   make(map[geo.Location]pathloss.Clutter, len(locs)),
	}
	for i, loc := range locs {
		out.clutter[loc] = clutter[i]
	}
	return &out, nil
}

func (r *Ruleset) pathLoss(px geo.Location, c pathloss.Clutter, rx receiver, f, hDevice float64) float64 {
	d := math.Max(geo.DistanceBetween(px, rx.inc.Location).Kilometers(), minDistance)
	return pathloss.PathLoss(d, pathloss.Params{
		FrequencyMHz: f,
		HeightMaster: math.Max(hDevice, rx.height),
		HeightSlave:  math.Min(hDevice, rx.height),
	}, c)
}

// worstPixel returns the pixel with the lowest path loss towards the
// receiver.
func (r *Ruleset) worstPixel(px *pixels, locs []geo.Location, rx receiver, hDevice float64) geo.Location {
	best := locs[0]
	bestLoss := math.Inf(1)
	for _, loc := range locs {
		l := r.pathLoss(loc, px.clutter[loc], rx, rx.frequency(), hDevice)
		if l < bestLoss {
			best, bestLoss = loc, l
		}
	}
	return best
}

// refine returns the fine grid around the coarse pixel, limited to the
// footprint. The clutter of new pixels is added to px.
func (r *Ruleset) refine(ctx context.Context, d models.Device, fp geo.Distance, px *pixels, center geo.Location) ([]geo.Location, error) {
	var out []geo.Location
	for _, loc := range geo.Grid(center, geo.Meters(r.conf.PixelSize), geo.Meters(r.conf.FinePixelSize)) {
		if loc != center && fp.Less(geo.DistanceBetween(d.Location, loc)) {
			continue
		}
		if _, ok := px.clutter[loc]; !ok {
			c, err := r.terrain.Clutter(ctx, geo.ToEastingNorthing(loc))
			if err != nil {
				return nil, errors.Wrap(err, "read pixel clutter error")
			}
			px.clutter[loc] = c
		}
		out = append(out, loc)
	}
	return out, nil
}

// constrain returns the PSD limits the receiver imposes. The limits are
// calculated at the pixel with the lowest path loss towards the receiver,
// refined on the fine grid when the receiver is close to the footprint.
func (r *Ruleset) constrain(ctx context.Context, d models.Device, fp geo.Distance, px *pixels, rx receiver) (constraint, error) {
	hDevice := r.deviceHeight(d)
	pixel := r.worstPixel(px, px.locations, rx, hDevice)

	if geo.DistanceBetween(d.Location, rx.inc.Location).Sub(fp).LessOrEqual(geo.Kilometers(r.conf.FineRadius)) {
		fine, err := r.refine(ctx, d, fp, px, pixel)
		if err != nil {
			return constraint{}, err
		}
		pixel = r.worstPixel(px, fine, rx, hDevice)
	}

	c := constraint{
		receiver: rx,
		pixel:    pixel,
		limits:   make(map[int]float64),
	}
	penalty := r.classPenalty(d.EmissionClass)

	for _, ch := range r.plan.Channels() {
		offset := ch.ID - rx.channel.ID
		if offset < 0 {
			offset = -offset
		}
		pl := r.pathLoss(pixel, px.clutter[pixel], rx, ch.CenterMHz(), hDevice)

		switch rx.inc.Class {
		case models.DTT:
			pr, ok := r.protectionRatio(offset)
			if !ok {
				continue
			}
			c.limits[ch.ID] = rx.inc.WantedSignal - pr + pl - penalty - r.conf.Margin - dttBandwidthFactor
		case models.PMSE:
			c.limits[ch.ID] = rx.inc.InterferenceThreshold + r.leakageRatio(offset) + pl - penalty - r.conf.Margin
		}
	}

	return c, nil
}

// protectionRatio returns the DTT protection ratio for the channel offset.
// Offsets above the configured maximum are not constrained.
func (r *Ruleset) protectionRatio(offset int) (float64, bool) {
	pr := r.conf.ProtectionRatios
	switch {
	case offset == 0:
		return pr.CoChannel, true
	case offset == 1:
		return pr.Adjacent1, true
	case offset == 2:
		return pr.Adjacent2, true
	case offset == 3:
		return pr.Adjacent3, true
	case offset <= pr.MaxOffset:
		return pr.Beyond, true
	default:
		return 0, false
	}
}

// leakageRatio returns the adjacent channel leakage ratio towards a PMSE
// receiver for the channel offset.
func (r *Ruleset) leakageRatio(offset int) float64 {
	switch offset {
	case 0:
		return 0
	case 1:
		return r.conf.ProtectionRatios.PMSEAdjacent
	default:
		return r.conf.ProtectionRatios.PMSEBeyond
	}
}
