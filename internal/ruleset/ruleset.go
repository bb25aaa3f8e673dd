// Package ruleset defines the country specific channel availability
// calculations.
package ruleset

import (
	"context"

	"github.com/pkg/errors"

	"github.com/brocaar/whitespace-server/internal/channel"
	"github.com/brocaar/whitespace-server/internal/geo"
	"github.com/brocaar/whitespace-server/internal/models"
)

// errors
var (
	ErrNotSupported      = errors.New("operation not supported by ruleset")
	ErrCalculationFailed = errors.New("calculation failed")
	ErrInvalidDevice     = errors.New("invalid device")
)

// Ruleset defines the interface of a country ruleset.
type Ruleset interface {
	// Name returns the ruleset name.
	Name() string

	// CalculateContour returns the protected contour of the incumbent.
	CalculateContour(ctx context.Context, inc models.Incumbent) (models.Contour, error)

	// CalculateRadialHAAT returns the HAAT (per azimuth, 1 degree step) of
	// an antenna at loc with the given height above mean sea level.
	CalculateRadialHAAT(ctx context.Context, loc geo.Location, heightAMSL float64) (map[int]float64, error)

	// CalculateStationHAAT returns the coarse HAAT estimate of an antenna at
	// loc with the given height above mean sea level.
	CalculateStationHAAT(ctx context.Context, loc geo.Location, heightAMSL float64) (float64, error)

	// GetFreeChannels returns the channel availability for the device.
	GetFreeChannels(ctx context.Context, d models.Device) (models.ChannelList, error)

	// GetDeviceList returns the incumbents which constrain the channel
	// availability of the device.
	GetDeviceList(ctx context.Context, d models.Device) ([]models.ProtectedDevice, error)
}

// InvalidDevice wraps the validation error as ErrInvalidDevice.
func InvalidDevice(err error) error {
	return errors.Wrapf(ErrInvalidDevice, "%s", err)
}

// CalculationFailed wraps the error as ErrCalculationFailed.
func CalculationFailed(err error) error {
	return errors.Wrapf(ErrCalculationFailed, "%s", err)
}

// FailedList returns the channel list reported when the calculation failed:
// every channel is unavailable.
func FailedList(plan channel.Plan, t models.DeviceType, err error) models.ChannelList {
	list := models.ChannelList{
		Status: models.StatusFailed,
		Error:  err.Error(),
	}
	for _, ch := range plan.Channels() {
		list.Channels = append(list.Channels, ChannelInfo(ch, t, models.PowerUnavailable))
	}
	return list
}

// ChannelInfo returns the ChannelInfo for the given channel and power.
func ChannelInfo(ch channel.Channel, t models.DeviceType, maxPower float64) models.ChannelInfo {
	return models.ChannelInfo{
		Channel:      ch.ID,
		LowerMHz:     ch.LowerMHz,
		UpperMHz:     ch.UpperMHz,
		BandwidthMHz: ch.BandwidthMHz(),
		MaxPowerDBm:  maxPower,
		DeviceType:   t,
	}
}

var active Ruleset

// Set sets the active ruleset.
func Set(r Ruleset) {
	active = r
}

// Get returns the active ruleset.
func Get() Ruleset {
	return active
}
