// Package ws defines the ChannelAvailabilityService gRPC service. Messages
// are exchanged as JSON using the "json" content-subtype.
package ws

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"

	"github.com/brocaar/whitespace-server/internal/models"
)

// ServiceName holds the full service name.
const ServiceName = "whitespace.ChannelAvailabilityService"

// CodecName holds the content-subtype of the service messages.
const CodecName = "json"

func init() {
	encoding.RegisterCodec(codec{})
}

type codec struct{}

func (codec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (codec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (codec) Name() string {
	return CodecName
}

// GetFreeChannelsRequest holds the device requesting channel availability.
type GetFreeChannelsRequest struct {
	Device models.Device `json:"device"`
}

// GetFreeChannelsResponse holds the channel availability.
type GetFreeChannelsResponse struct {
	Result models.ChannelList `json:"result"`
}

// GetDeviceListRequest holds the device for which to list the constraining
// incumbents.
type GetDeviceListRequest struct {
	Device models.Device `json:"device"`
}

// GetDeviceListResponse holds the constraining incumbents.
type GetDeviceListResponse struct {
	Devices []models.ProtectedDevice `json:"devices"`
}

// CalculateContourRequest holds the incumbent for which to calculate the
// protected contour.
type CalculateContourRequest struct {
	Incumbent models.Incumbent `json:"incumbent"`
}

// CalculateContourResponse holds the protected contour.
type CalculateContourResponse struct {
	Contour models.Contour `json:"contour"`
}

// ChannelAvailabilityServiceServer is the server API for the
// ChannelAvailabilityService service.
type ChannelAvailabilityServiceServer interface {
	GetFreeChannels(context.Context, *GetFreeChannelsRequest) (*GetFreeChannelsResponse, error)
	GetDeviceList(context.Context, *GetDeviceListRequest) (*GetDeviceListResponse, error)
	CalculateContour(context.Context, *CalculateContourRequest) (*CalculateContourResponse, error)
}

// RegisterChannelAvailabilityServiceServer registers srv with s.
func RegisterChannelAvailabilityServiceServer(s *grpc.Server, srv ChannelAvailabilityServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

func getFreeChannelsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetFreeChannelsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ChannelAvailabilityServiceServer).GetFreeChannels(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/GetFreeChannels",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ChannelAvailabilityServiceServer).GetFreeChannels(ctx, req.(*GetFreeChannelsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getDeviceListHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetDeviceListRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ChannelAvailabilityServiceServer).GetDeviceList(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/GetDeviceList",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ChannelAvailabilityServiceServer).GetDeviceList(ctx, req.(*GetDeviceListRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func calculateContourHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CalculateContourRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ChannelAvailabilityServiceServer).CalculateContour(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/CalculateContour",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ChannelAvailabilityServiceServer).CalculateContour(ctx, req.(*CalculateContourRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChannelAvailabilityServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetFreeChannels", Handler: getFreeChannelsHandler},
		{MethodName: "GetDeviceList", Handler: getDeviceListHandler},
		{MethodName: "CalculateContour", Handler: calculateContourHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "whitespace.json",
}

// ChannelAvailabilityServiceClient is the client API for the
// ChannelAvailabilityService service.
type ChannelAvailabilityServiceClient interface {
	GetFreeChannels(ctx context.Context, in *GetFreeChannelsRequest, opts ...grpc.CallOption) (*GetFreeChannelsResponse, error)
	GetDeviceList(ctx context.Context, in *GetDeviceListRequest, opts ...grpc.CallOption) (*GetDeviceListResponse, error)
	CalculateContour(ctx context.Context, in *CalculateContourRequest, opts ...grpc.CallOption) (*CalculateContourResponse, error)
}

type client struct {
	cc grpc.ClientConnInterface
}

// NewChannelAvailabilityServiceClient returns a new client using the given
// connection.
func NewChannelAvailabilityServiceClient(cc grpc.ClientConnInterface) ChannelAvailabilityServiceClient {
	return &client{cc: cc}
}

func (c *client) invoke(ctx context.Context, method string, in, out interface{}, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...)
}

func (c *client) GetFreeChannels(ctx context.Context, in *GetFreeChannelsRequest, opts ...grpc.CallOption) (*GetFreeChannelsResponse, error) {
	out := new(GetFreeChannelsResponse)
	if err := c.invoke(ctx, "GetFreeChannels", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *client) GetDeviceList(ctx context.Context, in *GetDeviceListRequest, opts ...grpc.CallOption) (*GetDeviceListResponse, error) {
	out := new(GetDeviceListResponse)
	if err := c.invoke(ctx, "GetDeviceList", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *client) CalculateContour(ctx context.Context, in *CalculateContourRequest, opts ...grpc.CallOption) (*CalculateContourResponse, error) {
	out := new(CalculateContourResponse)
	if err := c.invoke(ctx, "CalculateContour", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
