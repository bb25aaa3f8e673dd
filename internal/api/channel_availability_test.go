package api

import (
	"context"
	"net"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/brocaar/whitespace-server/internal/api/ws"
	"github.com/brocaar/whitespace-server/internal/geo"
	"github.com/brocaar/whitespace-server/internal/incumbent"
	"github.com/brocaar/whitespace-server/internal/models"
	"github.com/brocaar/whitespace-server/internal/ruleset"
	"github.com/brocaar/whitespace-server/internal/ruleset/fcc"
	"github.com/brocaar/whitespace-server/internal/ruleset/ofcom"
	"github.com/brocaar/whitespace-server/internal/terrain"
	"github.com/brocaar/whitespace-server/internal/test"
)

type ChannelAvailabilityServiceTestSuite struct {
	suite.Suite

	server *grpc.Server
	conn   *grpc.ClientConn
	client ws.ChannelAvailabilityServiceClient
	store  *incumbent.MemoryStore
	engine *terrain.Engine
}

func (ts *ChannelAvailabilityServiceTestSuite) SetupSuite() {
	assert := require.New(ts.T())
	conf := test.GetConfig()

	var err error
	ts.server, err = NewServer(conf)
	assert.NoError(err)

	ln := bufconn.Listen(1024 * 1024)
	go ts.server.Serve(ln)

	ts.conn, err = grpc.Dial("bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return ln.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	assert.NoError(err)

	ts.client = ws.NewChannelAvailabilityServiceClient(ts.conn)
	ts.engine = terrain.NewEngine(&terrain.FlatReader{ElevationValue: 100}, 4)
}

func (ts *ChannelAvailabilityServiceTestSuite) TearDownSuite() {
	ts.conn.Close()
	ts.server.Stop()
	ruleset.Set(nil)
}

func (ts *ChannelAvailabilityServiceTestSuite) SetupTest() {
	ts.store = incumbent.NewMemoryStore()
	ruleset.Set(fcc.New(ts.store, ts.engine, test.GetConfig()))
}

func (ts *ChannelAvailabilityServiceTestSuite) device() models.Device {
	return models.Device{
		ID:            "device-1",
		Type:          models.Fixed,
		Location:      geo.NewLocation(38.9, -77.0),
		AntennaHeight: 10,
	}
}

func (ts *ChannelAvailabilityServiceTestSuite) TestGetFreeChannels() {
	assert := require.New(ts.T())

	resp, err := ts.client.GetFreeChannels(context.Background(), &ws.GetFreeChannelsRequest{
		Device: ts.device(),
	})
	assert.NoError(err)
	assert.Equal(models.StatusOK, resp.Result.Status)
	assert.Len(resp.Result.Channels, 50)
	assert.NotContains(resp.Result.Available(), 37)
	assert.Contains(resp.Result.Available(), 21)
}

func (ts *ChannelAvailabilityServiceTestSuite) TestGetDeviceList() {
	assert := require.New(ts.T())

	center := geo.NewLocation(38.9, -77.0)
	ts.store.AddRegions(models.Region{
		Name:   "quiet zone",
		Kind:   models.QuietZone,
		Center: &center,
		Radius: geo.Kilometers(5),
	})

	d := ts.device()
	d.Type = models.PersonalPortable

	resp, err := ts.client.GetDeviceList(context.Background(), &ws.GetDeviceListRequest{Device: d})
	assert.NoError(err)
	assert.Len(resp.Devices, 1)
	assert.Equal(string(models.QuietZone), resp.Devices[0].Class)
}

func (ts *ChannelAvailabilityServiceTestSuite) TestInvalidDevice() {
	assert := require.New(ts.T())

	d := ts.device()
	d.Location = geo.NewLocation(100, 0)

	_, err := ts.client.GetFreeChannels(context.Background(), &ws.GetFreeChannelsRequest{Device: d})
	assert.Equal(codes.InvalidArgument, status.Code(err))
}

func (ts *ChannelAvailabilityServiceTestSuite) TestCalculateContour() {
	assert := require.New(ts.T())

	inc := models.Incumbent{
		Class:         models.TVStation,
		CallSign:      "WTST",
		Location:      geo.NewLocation(38.9, -77.0),
		Channel:       30,
		AntennaHeight: 300,
		ERP:           100,
		Digital:       true,
	}

	resp, err := ts.client.CalculateContour(context.Background(), &ws.CalculateContourRequest{Incumbent: inc})
	assert.NoError(err)
	assert.Equal(inc.Location, resp.Contour.Center)
	assert.True(resp.Contour.RadiusAt(0).Kilometers() > 0)
}

func (ts *ChannelAvailabilityServiceTestSuite) TestNotSupported() {
	assert := require.New(ts.T())
	ruleset.Set(ofcom.New(ts.store, ts.engine, test.GetConfig()))

	_, err := ts.client.CalculateContour(context.Background(), &ws.CalculateContourRequest{
		Incumbent: models.Incumbent{Class: models.DTT, Location: geo.NewLocation(51.5, -0.12)},
	})
	assert.Equal(codes.Unimplemented, status.Code(err))
}

func (ts *ChannelAvailabilityServiceTestSuite) TestNoRuleset() {
	assert := require.New(ts.T())
	ruleset.Set(nil)

	_, err := ts.client.GetFreeChannels(context.Background(), &ws.GetFreeChannelsRequest{Device: ts.device()})
	assert.Equal(codes.Unavailable, status.Code(err))
}

func TestChannelAvailabilityService(t *testing.T) {
	suite.Run(t, new(ChannelAvailabilityServiceTestSuite))
}

func TestErrToRPCError(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
	}{
		{ruleset.ErrNotSupported, codes.Unimplemented},
		{ruleset.CalculationFailed(errors.New("timeout")), codes.Unavailable},
		{ruleset.InvalidDevice(models.ErrInvalidLocation), codes.InvalidArgument},
		{errors.Wrap(ruleset.ErrNotSupported, "calculate contour"), codes.Unimplemented},
		{errors.New("boom"), codes.Unknown},
	}

	for _, tst := range tests {
		t.Run(tst.err.Error(), func(t *testing.T) {
			assert := require.New(t)
			err := errToRPCError(tst.err)
			assert.Equal(tst.code, status.Code(err))
			assert.Equal(tst.err.Error(), status.Convert(err).Message())
		})
	}
}
