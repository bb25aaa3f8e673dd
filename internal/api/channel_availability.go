package api

import (
	"context"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/brocaar/whitespace-server/internal/api/ws"
	"github.com/brocaar/whitespace-server/internal/logging"
	"github.com/brocaar/whitespace-server/internal/ruleset"
)

// ChannelAvailabilityServiceAPI implements the ChannelAvailabilityService
// on top of the active ruleset.
type ChannelAvailabilityServiceAPI struct{}

// NewChannelAvailabilityServiceAPI creates a new ChannelAvailabilityServiceAPI.
func NewChannelAvailabilityServiceAPI() *ChannelAvailabilityServiceAPI {
	return &ChannelAvailabilityServiceAPI{}
}

func activeRuleset() (ruleset.Ruleset, error) {
	rs := ruleset.Get()
	if rs == nil {
		return nil, status.Error(codes.Unavailable, "no ruleset configured")
	}
	return rs, nil
}

// GetFreeChannels returns the channel availability for the given device.
func (a *ChannelAvailabilityServiceAPI) GetFreeChannels(ctx context.Context, req *ws.GetFreeChannelsRequest) (*ws.GetFreeChannelsResponse, error) {
	rs, err := activeRuleset()
	if err != nil {
		return nil, err
	}

	list, err := rs.GetFreeChannels(ctx, req.Device)
	if err != nil {
		return nil, errToRPCError(err)
	}

	available := list.Available()
	availableChannels(rs.Name()).Observe(float64(len(available)))

	logging.FromContext(ctx).WithFields(log.Fields{
		"ruleset":     rs.Name(),
		"device_id":   req.Device.ID,
		"device_type": req.Device.Type,
		"available":   available,
	}).Info("api: free channels calculated")

	return &ws.GetFreeChannelsResponse{Result: list}, nil
}

// GetDeviceList returns the incumbents constraining the given device.
func (a *ChannelAvailabilityServiceAPI) GetDeviceList(ctx context.Context, req *ws.GetDeviceListRequest) (*ws.GetDeviceListResponse, error) {
	rs, err := activeRuleset()
	if err != nil {
		return nil, err
	}

	devices, err := rs.GetDeviceList(ctx, req.Device)
	if err != nil {
		return nil, errToRPCError(err)
	}

	return &ws.GetDeviceListResponse{Devices: devices}, nil
}

// CalculateContour returns the protected contour of the given incumbent.
func (a *ChannelAvailabilityServiceAPI) CalculateContour(ctx context.Context, req *ws.CalculateContourRequest) (*ws.CalculateContourResponse, error) {
	rs, err := activeRuleset()
	if err != nil {
		return nil, err
	}

	c, err := rs.CalculateContour(ctx, req.Incumbent)
	if err != nil {
		return nil, errToRPCError(err)
	}

	return &ws.CalculateContourResponse{Contour: c}, nil
}
