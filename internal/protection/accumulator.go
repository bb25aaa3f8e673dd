package protection

import (
	"time"

	"github.com/brocaar/whitespace-server/internal/channel"
	"github.com/brocaar/whitespace-server/internal/incumbent"
	"github.com/brocaar/whitespace-server/internal/models"
)

// Accumulator holds the result of a pipeline run. It is threaded through
// every filter of a single request.
type Accumulator struct {
	Blocked channel.Set
	Reduced channel.Set
	Devices []models.ProtectedDevice

	collect bool
	halted  bool
}

// NewAccumulator creates a new Accumulator. When collect is set, the
// protected devices are collected and filters evaluate every candidate,
// including those of which the channels are already blocked.
func NewAccumulator(collect bool) *Accumulator {
	return &Accumulator{
		Blocked: channel.NewSet(),
		Reduced: channel.NewSet(),
		collect: collect,
	}
}

// Collect returns true when protected devices are collected.
func (a *Accumulator) Collect() bool {
	return a.collect
}

// Block blocks the given channels.
func (a *Accumulator) Block(ids ...int) {
	a.Blocked.Add(ids...)
}

// Reduce marks the given channels as reduced power.
func (a *Accumulator) Reduce(ids ...int) {
	a.Reduced.Add(ids...)
}

// Covered returns true when evaluating a candidate for the given channels
// can not change the result.
func (a *Accumulator) Covered(ids ...int) bool {
	return !a.collect && a.Blocked.HasAll(ids...)
}

// AddDevice adds the protected device when collecting.
func (a *Accumulator) AddDevice(d models.ProtectedDevice) {
	if a.collect {
		a.Devices = append(a.Devices, d)
	}
}

// Halt stops the pipeline after the current filter.
func (a *Accumulator) Halt() {
	a.halted = true
}

// Halted returns true when the pipeline was halted.
func (a *Accumulator) Halted() bool {
	return a.halted
}

// Merge merges o into a.
func (a *Accumulator) Merge(o *Accumulator) {
	a.Blocked.Merge(o.Blocked)
	a.Reduced.Merge(o.Reduced)
	a.Devices = append(a.Devices, o.Devices...)
	a.halted = a.halted || o.halted
}

// Request holds the per-request pipeline input.
type Request struct {
	Device models.Device

	// HAAT of the device (m), used by the fixed device separation table.
	HAAT float64

	Time     time.Time
	Snapshot *incumbent.Snapshot

	keyholeCandidates []models.Incumbent
	keyholeLoaded     bool
}

// NewRequest creates a new Request using the given snapshot.
func NewRequest(d models.Device, haat float64, s *incumbent.Snapshot) *Request {
	return &Request{
		Device:   d,
		HAAT:     haat,
		Time:     d.RequestTime(),
		Snapshot: s,
	}
}
