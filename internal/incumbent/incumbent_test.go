package incumbent

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/brocaar/whitespace-server/internal/geo"
	"github.com/brocaar/whitespace-server/internal/models"
)

type failingLoader struct{}

func (f failingLoader) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	return nil, errors.New("boom")
}

func TestMemoryStore(t *testing.T) {
	center := geo.NewLocation(40, -100)
	now := time.Now()
	past := now.Add(-48 * time.Hour)
	yesterday := now.Add(-24 * time.Hour)

	m := NewMemoryStore()
	m.AddIncumbents(
		models.Incumbent{Class: models.TVStation, CallSign: "NEAR", Channel: 20, Location: geo.PointTowardsBearing(center, geo.Kilometers(5), 0)},
		models.Incumbent{Class: models.TVStation, CallSign: "FAR", Channel: 21, Location: geo.PointTowardsBearing(center, geo.Kilometers(500), 0)},
		models.Incumbent{Class: models.LandMobile, CallSign: "LM", Channel: 14, Location: center},
		models.Incumbent{Class: models.TemporaryLink, CallSign: "EXPIRED", Channel: 30, Location: center, ValidFrom: &past, ValidTo: &yesterday},
		models.Incumbent{Class: models.LPAux, CallSign: "MIC", Channel: 30, Location: center},
	)
	m.AddRegions(
		models.Region{Name: "exclusion", Kind: models.ExclusionZone},
		models.Region{Name: "quiet", Kind: models.QuietZone},
		models.Region{Name: "state", Kind: models.CountryBoundary},
	)

	area := geo.BuildSquare(center, geo.Kilometers(100))

	t.Run("near", func(t *testing.T) {
		assert := require.New(t)

		incs, err := m.GetIncumbentsNear(context.Background(), models.TVStation, area, nil)
		assert.NoError(err)
		assert.Len(incs, 1)
		assert.Equal("NEAR", incs[0].CallSign)

		incs, err = m.GetIncumbentsNear(context.Background(), models.TVStation, area, &Filter{Channels: []int{21}})
		assert.NoError(err)
		assert.Len(incs, 0)
	})

	t.Run("validity window", func(t *testing.T) {
		assert := require.New(t)

		incs, err := m.GetIncumbentsNear(context.Background(), models.TemporaryLink, area, &Filter{ActiveAt: &now})
		assert.NoError(err)
		assert.Len(incs, 0)

		incs, err = m.GetIncumbentsNear(context.Background(), models.TemporaryLink, area, &Filter{ActiveAt: &past})
		assert.NoError(err)
		assert.Len(incs, 1)
	})

	t.Run("combined", func(t *testing.T) {
		assert := require.New(t)

		incs, err := m.GetCombinedIncumbents(context.Background(), []models.IncumbentClass{models.TVStation, models.LandMobile}, area)
		assert.NoError(err)
		assert.Len(incs, 2)
	})

	t.Run("snapshot", func(t *testing.T) {
		assert := require.New(t)

		s := m.Snapshot()
		assert.Len(s.LPAux, 1)
		assert.Len(s.ExcludedRegions(), 1)
		assert.Len(s.RadioAstronomy(), 1)
		assert.Len(s.Boundaries(), 1)
		assert.Len(s.Offshore(), 0)
	})
}

func TestSnapshotCache(t *testing.T) {
	assert := require.New(t)

	m := NewMemoryStore()
	c := NewSnapshotCache(m)
	assert.NotNil(c.Current())
	assert.Len(c.Current().Regions, 0)

	before := c.Current()
	m.AddRegions(models.Region{Kind: models.OffshoreRegion})
	assert.NoError(c.Refresh(context.Background()))
	assert.Len(c.Current().Offshore(), 1)

	// a snapshot taken before the refresh is unchanged
	assert.Len(before.Regions, 0)

	f := NewSnapshotCache(failingLoader{})
	assert.Error(f.Refresh(context.Background()))
	assert.NotNil(f.Current())
}

func TestSortByDistance(t *testing.T) {
	assert := require.New(t)
	center := geo.NewLocation(40, -100)

	incs := []models.Incumbent{
		{CallSign: "C", Location: geo.PointTowardsBearing(center, geo.Kilometers(30), 90)},
		{CallSign: "A", Location: geo.PointTowardsBearing(center, geo.Kilometers(1), 180)},
		{CallSign: "B", Location: geo.PointTowardsBearing(center, geo.Kilometers(10), 270)},
	}
	SortByDistance(incs, center)

	assert.Equal("A", incs[0].CallSign)
	assert.Equal("B", incs[1].CallSign)
	assert.Equal("C", incs[2].CallSign)
}
