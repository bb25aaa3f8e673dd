package terrain

import (
	"net/rpc"

	"github.com/hashicorp/go-plugin"
)

// HandshakeConfig for terrain reader plugins.
var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "TERRAIN_PLUGIN",
	MagicCookieValue: "TERRAIN_PLUGIN",
}

// Reader defines the elevation and clutter reader interface.
type Reader interface {
	Name() (string, error)
	Elevation(ElevationRequest) (float64, error)
	Clutter(ClutterRequest) (int, error)
}

// ElevationRequest requests the ground elevation (m AMSL) at a location.
type ElevationRequest struct {
	// Latitude in decimal degrees.
	Latitude float64

	// Longitude in decimal degrees.
	Longitude float64
}

// ClutterRequest requests the clutter class at a British National Grid
// coordinate.
type ClutterRequest struct {
	Easting  float64
	Northing float64
}

// ReaderRPCServer implements the RPC server for the Reader interface.
type ReaderRPCServer struct {
	// Impl holds the interface implementation.
	Impl Reader
}

func (s *ReaderRPCServer) Name(req interface{}, resp *string) error {
	var err error
	*resp, err = s.Impl.Name()
	return err
}

func (s *ReaderRPCServer) Elevation(req ElevationRequest, resp *float64) error {
	var err error
	*resp, err = s.Impl.Elevation(req)
	return err
}

func (s *ReaderRPCServer) Clutter(req ClutterRequest, resp *int) error {
	var err error
	*resp, err = s.Impl.Clutter(req)
	return err
}

// ReaderRPC implements the RPC client for the Reader interface.
type ReaderRPC struct {
	client *rpc.Client
}

func (r *ReaderRPC) Name() (string, error) {
	var resp string
	err := r.client.Call("Plugin.Name", new(interface{}), &resp)
	return resp, err
}

func (r *ReaderRPC) Elevation(req ElevationRequest) (float64, error) {
	var resp float64
	err := r.client.Call("Plugin.Elevation", req, &resp)
	return resp, err
}

func (r *ReaderRPC) Clutter(req ClutterRequest) (int, error) {
	var resp int
	err := r.client.Call("Plugin.Clutter", req, &resp)
	return resp, err
}

// ReaderPlugin implements plugin.Plugin.
type ReaderPlugin struct {
	// Impl holds the interface implementation.
	Impl Reader
}

func (p *ReaderPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &ReaderRPCServer{Impl: p.Impl}, nil
}

func (p *ReaderPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &ReaderRPC{client: c}, nil
}
