package terrain

import (
	"testing"

	"github.com/hashicorp/go-plugin"
	"github.com/stretchr/testify/require"
)

type testReader struct{}

func (r *testReader) Name() (string, error) {
	return "test", nil
}

func (r *testReader) Elevation(req ElevationRequest) (float64, error) {
	return req.Latitude + req.Longitude, nil
}

func (r *testReader) Clutter(req ClutterRequest) (int, error) {
	if req.Easting > 500000 {
		return 2, nil
	}
	return 0, nil
}

func TestReaderRPC(t *testing.T) {
	assert := require.New(t)

	client, _ := plugin.TestPluginRPCConn(t, map[string]plugin.Plugin{
		"reader": &ReaderPlugin{Impl: &testReader{}},
	}, nil)
	defer client.Close()

	raw, err := client.Dispense("reader")
	assert.NoError(err)

	r, ok := raw.(Reader)
	assert.True(ok)

	name, err := r.Name()
	assert.NoError(err)
	assert.Equal("test", name)

	elev, err := r.Elevation(ElevationRequest{Latitude: 10, Longitude: 2.5})
	assert.NoError(err)
	assert.Equal(12.5, elev)

	cl, err := r.Clutter(ClutterRequest{Easting: 600000, Northing: 100000})
	assert.NoError(err)
	assert.Equal(2, cl)
}
