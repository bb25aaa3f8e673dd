package geo

import (
	"encoding/json"
	"fmt"
)

// Unit defines a distance unit.
type Unit int

// Available units.
const (
	Kilometer Unit = iota
	Meter
)

func (u Unit) String() string {
	switch u {
	case Meter:
		return "m"
	default:
		return "km"
	}
}

// Distance holds a distance value together with its unit. Arithmetic
// between distances always converts explicitly.
type Distance struct {
	value float64
	unit  Unit
}

// Kilometers returns a Distance of v km.
func Kilometers(v float64) Distance {
	return Distance{value: v, unit: Kilometer}
}

// Meters returns a Distance of v m.
func Meters(v float64) Distance {
	return Distance{value: v, unit: Meter}
}

// Unit returns the unit the distance was constructed with.
func (d Distance) Unit() Unit {
	return d.unit
}

// Kilometers returns the distance in km.
func (d Distance) Kilometers() float64 {
	if d.unit == Meter {
		return d.value / 1000
	}
	return d.value
}

// Meters returns the distance in m.
func (d Distance) Meters() float64 {
	if d.unit == Meter {
		return d.value
	}
	return d.value * 1000
}

// In returns the distance value in the given unit.
func (d Distance) In(u Unit) float64 {
	if u == Meter {
		return d.Meters()
	}
	return d.Kilometers()
}

// Add returns d + o, expressed in the unit of d.
func (d Distance) Add(o Distance) Distance {
	return Distance{value: d.value + o.In(d.unit), unit: d.unit}
}

// Sub returns d - o, expressed in the unit of d. The result can be negative.
func (d Distance) Sub(o Distance) Distance {
	return Distance{value: d.value - o.In(d.unit), unit: d.unit}
}

// Less returns true when d < o.
func (d Distance) Less(o Distance) bool {
	return d.Meters() < o.Meters()
}

// LessOrEqual returns true when d <= o.
func (d Distance) LessOrEqual(o Distance) bool {
	return d.Meters() <= o.Meters()
}

func (d Distance) String() string {
	return fmt.Sprintf("%.3f%s", d.value, d.unit)
}

// MarshalJSON encodes the distance as a number of km.
func (d Distance) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Kilometers())
}

// UnmarshalJSON decodes a number of km.
func (d *Distance) UnmarshalJSON(b []byte) error {
	var km float64
	if err := json.Unmarshal(b, &km); err != nil {
		return err
	}
	*d = Kilometers(km)
	return nil
}
