// Package models contains the domain types shared by the region calculation
// packages.
package models

import (
	"time"

	"github.com/pkg/errors"

	"github.com/brocaar/whitespace-server/internal/geo"
)

// DeviceType defines the category of a requesting device.
type DeviceType string

// Device types.
const (
	Fixed            DeviceType = "FIXED"
	PersonalPortable DeviceType = "PERSONAL_PORTABLE"
	LPAuxLicensed    DeviceType = "LPAUX_LICENSED"
	LPAuxUnlicensed  DeviceType = "LPAUX_UNLICENSED"
	Master           DeviceType = "MASTER"
	Slave            DeviceType = "SLAVE"
)

// IsLPAux returns true for the low-power auxiliary device types.
func (t DeviceType) IsLPAux() bool {
	return t == LPAuxLicensed || t == LPAuxUnlicensed
}

// RequestType defines the request mode.
type RequestType string

// Request types.
const (
	Specific RequestType = "SPECIFIC"
	Generic  RequestType = "GENERIC"
)

// Device validation errors.
var (
	ErrInvalidLocation   = errors.New("invalid device location")
	ErrInvalidDeviceType = errors.New("invalid device type")
	ErrInvalidClass      = errors.New("invalid emission class")
)

// Device describes the device requesting channel availability.
type Device struct {
	ID          string       `json:"id"`
	Type        DeviceType   `json:"type"`
	RequestType RequestType  `json:"requestType"`
	Location    geo.Location `json:"location"`

	// AntennaHeight above ground level (m).
	AntennaHeight float64 `json:"antennaHeight"`

	// LocationUncertainty (m), used as footprint radius for master devices.
	LocationUncertainty float64 `json:"locationUncertainty"`

	// EmissionClass (1 - 5, 1 being the best) of the device.
	EmissionClass int `json:"emissionClass"`

	// Time of the request. The zero value means now.
	Time time.Time `json:"time"`
}

// Validate validates the device for the given set of supported types.
func (d Device) Validate(supported ...DeviceType) error {
	if !d.Location.Valid() {
		return ErrInvalidLocation
	}

	found := false
	for _, t := range supported {
		if t == d.Type {
			found = true
			break
		}
	}
	if !found {
		return errors.Wrapf(ErrInvalidDeviceType, "type: %s", d.Type)
	}

	if d.EmissionClass < 0 || d.EmissionClass > 5 {
		return errors.Wrapf(ErrInvalidClass, "class: %d", d.EmissionClass)
	}

	return nil
}

// RequestTime returns the request time, defaulting to the current time.
func (d Device) RequestTime() time.Time {
	if d.Time.IsZero() {
		return time.Now()
	}
	return d.Time
}
