package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/brocaar/whitespace-server/internal/contour"
	"github.com/brocaar/whitespace-server/internal/geo"
	"github.com/brocaar/whitespace-server/internal/incumbent"
	"github.com/brocaar/whitespace-server/internal/models"
	"github.com/brocaar/whitespace-server/internal/test"
)

type StorageTestSuite struct {
	suite.Suite

	store *Store
}

func (ts *StorageTestSuite) SetupSuite() {
	if os.Getenv("TEST_POSTGRES_DSN") == "" || os.Getenv("TEST_REDIS_URL") == "" {
		ts.T().Skip("TEST_POSTGRES_DSN and TEST_REDIS_URL must be set")
	}

	conf := test.GetConfig()
	ts.Require().NoError(Setup(conf))
}

func (ts *StorageTestSuite) SetupTest() {
	assert := ts.Require()

	_, err := DB().Exec(`truncate incumbent, region`)
	assert.NoError(err)
	assert.NoError(RedisClient().FlushAll(context.Background()).Err())

	ts.store = NewStore(DB(), RedisClient(), time.Minute)
}

func (ts *StorageTestSuite) TestIncumbent() {
	assert := ts.Require()
	ctx := context.Background()

	parent := geo.NewLocation(40.1, -100.1)
	pattern := models.OmniPattern()
	from := time.Now().Add(-time.Hour).UTC().Truncate(time.Millisecond)

	inc := models.Incumbent{
		Class:           models.ReceiveSite,
		CallSign:        "K10AB",
		Location:        geo.NewLocation(40, -100),
		Channel:         10,
		AntennaHeight:   30,
		GroundElevation: 500,
		ERP:             1.5,
		Polarization:    models.Horizontal,
		Pattern:         &pattern,
		Parent:          &parent,
		ValidFrom:       &from,
	}
	assert.NoError(ts.store.CreateIncumbent(ctx, &inc))
	assert.NotEqual(uuid.Nil, inc.ID)

	ts.T().Run("Get", func(t *testing.T) {
		assert := require.New(t)

		got, err := GetIncumbent(ctx, DB(), inc.ID)
		assert.NoError(err)
		assert.Equal(inc.CallSign, got.CallSign)
		assert.Equal(inc.Location, got.Location)
		assert.Equal(&parent, got.Parent)
		assert.Equal(pattern, *got.Pattern)
		assert.True(from.Equal(*got.ValidFrom))
		assert.Nil(got.ValidTo)
	})

	ts.T().Run("Duplicate", func(t *testing.T) {
		assert := require.New(t)
		dup := inc
		assert.Equal(ErrAlreadyExists, CreateIncumbent(ctx, DB(), &dup))
	})

	ts.T().Run("Near", func(t *testing.T) {
		assert := require.New(t)

		area := geo.BuildSquare(geo.NewLocation(40.05, -100.05), geo.Kilometers(20))
		incs, err := ts.store.GetIncumbentsNear(ctx, models.ReceiveSite, area, nil)
		assert.NoError(err)
		assert.Len(incs, 1)

		// cached
		incs, err = ts.store.GetIncumbentsNear(ctx, models.ReceiveSite, area, nil)
		assert.NoError(err)
		assert.Len(incs, 1)
		assert.Equal(inc.ID, incs[0].ID)

		incs, err = ts.store.GetIncumbentsNear(ctx, models.ReceiveSite, area, &incumbent.Filter{Channels: []int{11}})
		assert.NoError(err)
		assert.Len(incs, 0)

		incs, err = ts.store.GetIncumbentsNear(ctx, models.BAS, area, nil)
		assert.NoError(err)
		assert.Len(incs, 0)

		far := geo.BuildSquare(geo.NewLocation(45, -90), geo.Kilometers(20))
		incs, err = ts.store.GetIncumbentsNear(ctx, models.ReceiveSite, far, nil)
		assert.NoError(err)
		assert.Len(incs, 0)
	})

	ts.T().Run("Write invalidates cache", func(t *testing.T) {
		assert := require.New(t)

		area := geo.BuildSquare(geo.NewLocation(40, -100), geo.Kilometers(20))
		incs, err := ts.store.GetCombinedIncumbents(ctx, []models.IncumbentClass{models.ReceiveSite, models.BAS}, area)
		assert.NoError(err)
		assert.Len(incs, 1)

		bas := models.Incumbent{
			Class:    models.BAS,
			CallSign: "BAS1",
			Location: geo.NewLocation(40.01, -100.01),
			Channel:  10,
		}
		assert.NoError(ts.store.CreateIncumbent(ctx, &bas))

		incs, err = ts.store.GetCombinedIncumbents(ctx, []models.IncumbentClass{models.BAS, models.ReceiveSite}, area)
		assert.NoError(err)
		assert.Len(incs, 2)

		assert.NoError(ts.store.DeleteIncumbent(ctx, bas.ID))
		incs, err = ts.store.GetCombinedIncumbents(ctx, []models.IncumbentClass{models.BAS, models.ReceiveSite}, area)
		assert.NoError(err)
		assert.Len(incs, 1)

		assert.Equal(ErrDoesNotExist, ts.store.DeleteIncumbent(ctx, bas.ID))
	})
}

func (ts *StorageTestSuite) TestContour() {
	assert := ts.Require()
	ctx := context.Background()

	tv := models.Incumbent{
		Class:    models.TVStation,
		CallSign: "WTST",
		Location: geo.NewLocation(40, -100),
		Channel:  30,
		ERP:      100,
		Digital:  true,
	}
	assert.NoError(ts.store.CreateIncumbent(ctx, &tv))

	incs, err := ts.store.GetIncumbentsWithoutContour(ctx, []models.IncumbentClass{models.TVStation, models.Translator}, 10)
	assert.NoError(err)
	assert.Len(incs, 1)

	c := models.Contour{Center: tv.Location}
	for az := range c.Points {
		c.Points[az] = geo.PointTowardsBearing(tv.Location, geo.Kilometers(50), float64(az))
	}
	b, err := contour.Encode(c)
	assert.NoError(err)
	assert.NoError(ts.store.UpdateContour(ctx, tv.ID, b))

	incs, err = ts.store.GetIncumbentsWithoutContour(ctx, []models.IncumbentClass{models.TVStation}, 10)
	assert.NoError(err)
	assert.Len(incs, 0)

	got, err := GetIncumbent(ctx, DB(), tv.ID)
	assert.NoError(err)
	decoded, err := contour.Decode(got.Location, got.Contour)
	assert.NoError(err)
	assert.InDelta(50, decoded.RadiusAt(90).Kilometers(), 0.01)

	assert.Equal(ErrDoesNotExist, ts.store.UpdateContour(ctx, uuid.Must(uuid.NewV4()), b))
}

func (ts *StorageTestSuite) TestSnapshot() {
	assert := ts.Require()
	ctx := context.Background()

	center := geo.NewLocation(38.4, -79.8)
	assert.NoError(ts.store.CreateRegion(ctx, &models.Region{
		Name:   "national radio quiet zone",
		Kind:   models.QuietZone,
		Center: &center,
		Radius: geo.Kilometers(10),
	}))
	assert.NoError(ts.store.CreateRegion(ctx, &models.Region{
		Name: "range",
		Kind: models.ExclusionZone,
		Polygon: geo.Polygon{
			geo.NewLocation(30, -100),
			geo.NewLocation(31, -100),
			geo.NewLocation(31, -99),
		},
		Channels:    []int{14, 15},
		DeviceTypes: []models.DeviceType{models.Fixed},
	}))
	assert.Equal(ErrAlreadyExists, CreateRegion(ctx, DB(), &models.Region{Name: "range", Kind: models.ExclusionZone}))

	assert.NoError(ts.store.CreateIncumbent(ctx, &models.Incumbent{
		Class:    models.LPAux,
		CallSign: "LPAUX1",
		Location: geo.NewLocation(40, -100),
		Channel:  20,
	}))

	s := ts.store.Snapshot()
	assert.Len(s.Regions, 2)
	assert.Len(s.RadioAstronomy(), 1)
	assert.Equal(geo.Kilometers(10), s.RadioAstronomy()[0].Radius)
	assert.Len(s.ExcludedRegions(), 1)
	assert.Equal([]int{14, 15}, s.ExcludedRegions()[0].Channels)
	assert.Equal([]models.DeviceType{models.Fixed}, s.ExcludedRegions()[0].DeviceTypes)
	assert.Len(s.LPAux, 1)

	assert.NoError(ts.store.DeleteRegion(ctx, models.ExclusionZone, "range"))
	assert.Len(ts.store.Snapshot().ExcludedRegions(), 0)
	assert.Equal(ErrDoesNotExist, ts.store.DeleteRegion(ctx, models.ExclusionZone, "range"))
}

func TestStorage(t *testing.T) {
	suite.Run(t, new(StorageTestSuite))
}

func TestAreaQueryHash(t *testing.T) {
	assert := require.New(t)

	area := geo.BuildSquare(geo.NewLocation(40, -100), geo.Kilometers(10))
	a := areaQueryHash([]models.IncumbentClass{models.DTT, models.PMSE}, area)
	b := areaQueryHash([]models.IncumbentClass{models.PMSE, models.DTT}, area)
	c := areaQueryHash([]models.IncumbentClass{models.DTT}, area)
	d := areaQueryHash([]models.IncumbentClass{models.DTT, models.PMSE}, geo.BuildSquare(geo.NewLocation(40, -100), geo.Kilometers(11)))

	assert.Equal(a, b)
	assert.NotEqual(a, c)
	assert.NotEqual(a, d)
}
