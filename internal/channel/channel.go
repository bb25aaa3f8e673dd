// Package channel defines the TV channel plans of the supported countries.
package channel

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// Band defines a TV band.
type Band string

// Available bands.
const (
	LowVHF  Band = "LOW_VHF"
	HighVHF Band = "HIGH_VHF"
	UHF     Band = "UHF"
)

// Plan names.
const (
	US = "us"
	GB = "gb"
)

// ErrUnknownChannel is returned for a channel which is not part of the plan.
var ErrUnknownChannel = errors.New("unknown channel")

// Channel defines a single TV channel.
type Channel struct {
	ID       int     `json:"channel"`
	LowerMHz float64 `json:"lowerMhz"`
	UpperMHz float64 `json:"upperMhz"`
	Band     Band    `json:"band"`
}

// BandwidthMHz returns the channel bandwidth.
func (c Channel) BandwidthMHz() float64 {
	return c.UpperMHz - c.LowerMHz
}

// CenterMHz returns the channel center frequency.
func (c Channel) CenterMHz() float64 {
	return (c.LowerMHz + c.UpperMHz) / 2
}

// Plan defines a channel plan.
type Plan struct {
	name     string
	channels []Channel
	index    map[int]int

	// pairs of neighbouring channel numbers which are not adjacent in
	// frequency
	nonAdjacent map[[2]int]struct{}
}

func newPlan(name string, channels []Channel, nonAdjacent ...[2]int) Plan {
	sort.Slice(channels, func(i, j int) bool { return channels[i].ID < channels[j].ID })

	p := Plan{
		name:        name,
		channels:    channels,
		index:       make(map[int]int, len(channels)),
		nonAdjacent: make(map[[2]int]struct{}),
	}
	for i, c := range channels {
		p.index[c.ID] = i
	}
	for _, pair := range nonAdjacent {
		p.nonAdjacent[pair] = struct{}{}
	}
	return p
}

// USPlan returns the U.S. plan: channels 2 - 51.
func USPlan() Plan {
	var channels []Channel
	for id := 2; id <= 51; id++ {
		var c Channel
		switch {
		case id <= 4:
			c = Channel{ID: id, LowerMHz: 54 + float64(id-2)*6, Band: LowVHF}
		case id <= 6:
			c = Channel{ID: id, LowerMHz: 76 + float64(id-5)*6, Band: LowVHF}
		case id <= 13:
			c = Channel{ID: id, LowerMHz: 174 + float64(id-7)*6, Band: HighVHF}
		default:
			c = Channel{ID: id, LowerMHz: 470 + float64(id-14)*6, Band: UHF}
		}
		c.UpperMHz = c.LowerMHz + 6
		channels = append(channels, c)
	}

	return newPlan(US, channels, [2]int{6, 7}, [2]int{13, 14})
}

// GBPlan returns the U.K. plan: channels 21 - 60 with 8 MHz raster.
func GBPlan() Plan {
	var channels []Channel
	for id := 21; id <= 60; id++ {
		lower := 470 + float64(id-21)*8
		channels = append(channels, Channel{ID: id, LowerMHz: lower, UpperMHz: lower + 8, Band: UHF})
	}

	return newPlan(GB, channels)
}

// Name returns the plan name.
func (p Plan) Name() string {
	return p.name
}

// Channels returns all channels of the plan, ordered by id.
func (p Plan) Channels() []Channel {
	out := make([]Channel, len(p.channels))
	copy(out, p.channels)
	return out
}

// IDs returns all channel ids of the plan.
func (p Plan) IDs() []int {
	out := make([]int, 0, len(p.channels))
	for _, c := range p.channels {
		out = append(out, c.ID)
	}
	return out
}

// Min returns the lowest channel id.
func (p Plan) Min() int {
	if len(p.channels) == 0 {
		return 0
	}
	return p.channels[0].ID
}

// Max returns the highest channel id.
func (p Plan) Max() int {
	if len(p.channels) == 0 {
		return 0
	}
	return p.channels[len(p.channels)-1].ID
}

// Contains returns true when the channel is part of the plan.
func (p Plan) Contains(id int) bool {
	_, ok := p.index[id]
	return ok
}

// Channel returns the channel for the given id.
func (p Plan) Channel(id int) (Channel, error) {
	i, ok := p.index[id]
	if !ok {
		return Channel{}, errors.Wrap(ErrUnknownChannel, fmt.Sprintf("channel %d", id))
	}
	return p.channels[i], nil
}

// ChannelForFrequency returns the channel containing the given frequency.
func (p Plan) ChannelForFrequency(mhz float64) (Channel, error) {
	for _, c := range p.channels {
		if mhz >= c.LowerMHz && mhz < c.UpperMHz {
			return c, nil
		}
	}
	return Channel{}, errors.Wrap(ErrUnknownChannel, fmt.Sprintf("frequency %f MHz", mhz))
}

// Adjacent returns the adjacent channels of id. The 6/7 and 13/14 pairs are
// never adjacent.
func (p Plan) Adjacent(id int) []int {
	var out []int
	for _, n := range []int{id - 1, id + 1} {
		if !p.Contains(n) || !p.Contains(id) {
			continue
		}
		pair := [2]int{id, n}
		if n < id {
			pair = [2]int{n, id}
		}
		if _, ok := p.nonAdjacent[pair]; ok {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Range returns the ids of the channels in [from, to] which are part of the
// plan.
func (p Plan) Range(from, to int) []int {
	var out []int
	for id := from; id <= to; id++ {
		if p.Contains(id) {
			out = append(out, id)
		}
	}
	return out
}

// ForCountry returns the plan for the given country code.
func ForCountry(country string) (Plan, error) {
	switch country {
	case US:
		return USPlan(), nil
	case GB:
		return GBPlan(), nil
	default:
		return Plan{}, errors.Errorf("unknown country: %s", country)
	}
}
