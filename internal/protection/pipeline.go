// Package protection implements the interference protection pipeline. The
// filters run in a fixed order and accumulate the blocked and reduced power
// channels (and optionally the protected devices) of a single request.
package protection

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/brocaar/whitespace-server/internal/channel"
	"github.com/brocaar/whitespace-server/internal/config"
	"github.com/brocaar/whitespace-server/internal/contour"
	"github.com/brocaar/whitespace-server/internal/incumbent"
)

// ErrPipelineFailed is returned when a filter panicked.
var ErrPipelineFailed = errors.New("protection pipeline failed")

// Filter names, in pipeline order.
const (
	FilterExclusionZones  = "exclusion_zones"
	FilterRadioAstronomy  = "radio_astronomy"
	FilterBaseRestriction = "base_restrictions"
	FilterTVStations      = "tv_stations"
	FilterLandMobile      = "land_mobile"
	FilterTBand           = "t_band"
	FilterOffshore        = "offshore"
	FilterSpectrumUsage   = "spectrum_usage"
	FilterBAS             = "bas"
	FilterCableHeadends   = "cable_headends"
	FilterTemporaryLinks  = "temporary_links"
	FilterReceiveSites    = "receive_sites"
	FilterLPAux           = "lpaux"
	FilterTranslators     = "translators"
)

// Filter defines a pipeline filter.
type Filter func(ctx context.Context, req *Request, acc *Accumulator) error

type step struct {
	name   string
	filter Filter

	// skipLPAux skips the step for LP-Aux devices
	skipLPAux bool
}

// Pipeline implements the protection pipeline.
type Pipeline struct {
	store    incumbent.Store
	contours *contour.Engine
	plan     channel.Plan
	conf     config.Protection
	steps    []step
}

// NewPipeline creates a new Pipeline.
func NewPipeline(store incumbent.Store, contours *contour.Engine, plan channel.Plan, conf config.Protection) *Pipeline {
	p := Pipeline{
		store:    store,
		contours: contours,
		plan:     plan,
		conf:     conf,
	}

	p.steps = []step{
		{name: FilterExclusionZones, filter: p.filterExclusionZones},
		{name: FilterRadioAstronomy, filter: p.filterRadioAstronomy},
		{name: FilterBaseRestriction, filter: p.filterBaseRestrictions},
		{name: FilterTVStations, filter: p.filterTVStations},
		{name: FilterLandMobile, filter: p.filterLandMobile},
		{name: FilterTBand, filter: p.filterTBand},
		{name: FilterOffshore, filter: p.filterOffshore, skipLPAux: true},
		{name: FilterSpectrumUsage, filter: p.filterSpectrumUsage, skipLPAux: true},
		{name: FilterBAS, filter: p.keyholeFilter(FilterBAS), skipLPAux: true},
		{name: FilterCableHeadends, filter: p.keyholeFilter(FilterCableHeadends), skipLPAux: true},
		{name: FilterTemporaryLinks, filter: p.keyholeFilter(FilterTemporaryLinks), skipLPAux: true},
		{name: FilterReceiveSites, filter: p.keyholeFilter(FilterReceiveSites), skipLPAux: true},
		{name: FilterLPAux, filter: p.filterLPAux, skipLPAux: true},
		{name: FilterTranslators, filter: p.filterTranslators, skipLPAux: true},
	}

	return &p
}

// Filters returns the filter names in pipeline order.
func (p *Pipeline) Filters() []string {
	out := make([]string, len(p.steps))
	for i, s := range p.steps {
		out[i] = s.name
	}
	return out
}

// Run runs all filters in order.
func (p *Pipeline) Run(ctx context.Context, req *Request, acc *Accumulator) error {
	for _, s := range p.steps {
		if acc.Halted() {
			return nil
		}
		if err := p.runStep(ctx, s, req, acc); err != nil {
			return err
		}
	}
	return nil
}

// RunConcurrent runs all filters, with the TV station filter running
// concurrently on its own accumulator. Its result is merged after all
// other filters completed. It must only be used with a collecting
// accumulator.
func (p *Pipeline) RunConcurrent(ctx context.Context, req *Request, acc *Accumulator) error {
	tvAcc := NewAccumulator(acc.Collect())
	var g errgroup.Group
	forked := false

	for _, s := range p.steps {
		if acc.Halted() {
			break
		}

		if s.name == FilterTVStations {
			s := s
			forked = true
			g.Go(func() error {
				return p.runStep(ctx, s, req, tvAcc)
			})
			continue
		}

		if err := p.runStep(ctx, s, req, acc); err != nil {
			// the fork must complete before returning
			_ = g.Wait()
			return err
		}
	}

	if !forked {
		return nil
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if !acc.Halted() {
		acc.Merge(tvAcc)
	}
	return nil
}

func (p *Pipeline) runStep(ctx context.Context, s step, req *Request, acc *Accumulator) (err error) {
	if s.skipLPAux && req.Device.Type.IsLPAux() {
		return nil
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"filter": s.name,
				"panic":  fmt.Sprintf("%v", r),
			}).Error("protection: filter panicked")
			err = errors.Wrapf(ErrPipelineFailed, "filter %s: %v", s.name, r)
		}
		filterDuration(s.name).Observe(time.Since(start).Seconds())
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.filter(ctx, req, acc); err != nil {
		return errors.Wrapf(err, "filter %s error", s.name)
	}
	return nil
}
