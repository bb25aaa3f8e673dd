package incumbent

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/whitespace-server/internal/models"
)

// Snapshot holds the read-mostly regulatory data. A snapshot is never
// modified after creation.
type Snapshot struct {
	Regions  []models.Region
	LPAux    []models.Incumbent
	LoadedAt time.Time
}

func (s *Snapshot) byKind(kind models.RegionKind) []models.Region {
	if s == nil {
		return nil
	}

	var out []models.Region
	for _, r := range s.Regions {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// ExcludedRegions returns the exclusion zones.
func (s *Snapshot) ExcludedRegions() []models.Region {
	return s.byKind(models.ExclusionZone)
}

// RadioAstronomy returns the radio astronomy sites and quiet zones.
func (s *Snapshot) RadioAstronomy() []models.Region {
	return s.byKind(models.QuietZone)
}

// Offshore returns the offshore / aeronautical regions.
func (s *Snapshot) Offshore() []models.Region {
	return s.byKind(models.OffshoreRegion)
}

// Boundaries returns the national sub-region boundaries.
func (s *Snapshot) Boundaries() []models.Region {
	return s.byKind(models.CountryBoundary)
}

// SnapshotCache holds the current snapshot. Readers get a consistent
// snapshot, refreshes swap it atomically.
type SnapshotCache struct {
	loader  SnapshotLoader
	current atomic.Value
}

// NewSnapshotCache creates a new SnapshotCache, holding an empty snapshot
// until the first Refresh.
func NewSnapshotCache(loader SnapshotLoader) *SnapshotCache {
	c := SnapshotCache{loader: loader}
	c.current.Store(&Snapshot{})
	return &c
}

// Current returns the current snapshot.
func (c *SnapshotCache) Current() *Snapshot {
	return c.current.Load().(*Snapshot)
}

// Refresh loads a new snapshot and makes it current.
func (c *SnapshotCache) Refresh(ctx context.Context) error {
	s, err := c.loader.LoadSnapshot(ctx)
	if err != nil {
		snapshotRefresh("error").Inc()
		return errors.Wrap(err, "load snapshot error")
	}

	c.current.Store(s)
	snapshotRefresh("ok").Inc()

	log.WithFields(log.Fields{
		"regions":   len(s.Regions),
		"lpaux":     len(s.LPAux),
		"loaded_at": s.LoadedAt,
	}).Info("incumbent: snapshot refreshed")
	return nil
}

// Run refreshes the snapshot every interval until the context is
// cancelled.
func (c *SnapshotCache) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				log.WithError(err).Error("incumbent: periodic snapshot refresh error")
			}
		}
	}
}
