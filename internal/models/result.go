package models

import (
	"github.com/brocaar/whitespace-server/internal/geo"
)

// PowerUnavailable is the max power of a channel which may not be used.
const PowerUnavailable = -999.0

// ProtectedDevice describes an incumbent (or region) which blocked or
// reduced channels for a request.
type ProtectedDevice struct {
	// Class holds the incumbent class or region kind.
	Class    string       `json:"class"`
	CallSign string       `json:"callSign"`
	Location geo.Location `json:"location"`
	Blocked  []int        `json:"blocked"`
	Reduced  []int        `json:"reduced,omitempty"`
	Contour  *Contour     `json:"contour,omitempty"`
	Keyhole  *geo.Keyhole `json:"keyhole,omitempty"`
}

// ChannelInfo holds the availability of a single channel.
type ChannelInfo struct {
	Channel      int        `json:"channel"`
	LowerMHz     float64    `json:"lowerMHz"`
	UpperMHz     float64    `json:"upperMHz"`
	BandwidthMHz float64    `json:"bandwidthMHz"`
	MaxPowerDBm  float64    `json:"maxPowerDBm"`
	MaxPSD       *float64   `json:"maxPSD,omitempty"`
	DeviceType   DeviceType `json:"deviceType"`
}

// Available returns true when the channel may be used.
func (c ChannelInfo) Available() bool {
	return c.MaxPowerDBm > PowerUnavailable
}

// Status of a channel list.
type Status string

// Statuses.
const (
	StatusOK     Status = "OK"
	StatusFailed Status = "FAILED"
)

// ChannelList holds the result of a free-channel calculation.
type ChannelList struct {
	Status   Status        `json:"status"`
	Channels []ChannelInfo `json:"channels"`
	Error    string        `json:"error,omitempty"`
}

// Available returns the ids of the available channels.
func (l ChannelList) Available() []int {
	var out []int
	for _, c := range l.Channels {
		if c.Available() {
			out = append(out, c.Channel)
		}
	}
	return out
}
