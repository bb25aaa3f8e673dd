// Package pathloss implements the propagation models used by the region
// calculations. All functions are pure; distances are in km, frequencies
// in MHz, heights in m and losses in dB.
package pathloss

import (
	"fmt"
	"math"
)

// Clutter defines a land-use clutter class.
type Clutter int

// Clutter classes.
const (
	Open Clutter = iota
	SubUrban
	Urban
	DenseUrban
)

func (c Clutter) String() string {
	switch c {
	case Open:
		return "OPEN"
	case SubUrban:
		return "SUBURBAN"
	case Urban:
		return "URBAN"
	case DenseUrban:
		return "DENSE_URBAN"
	default:
		return fmt.Sprintf("CLUTTER_%d", int(c))
	}
}

// Segment boundaries (km).
const (
	FreeSpaceMax = 0.04
	MidRangeMax  = 0.1
)

// Params holds the link parameters.
type Params struct {
	FrequencyMHz float64
	HeightMaster float64
	HeightSlave  float64
}

func (p Params) heights() (float64, float64) {
	hb := math.Max(p.HeightMaster, 1)
	hm := math.Max(p.HeightSlave, 1)
	return hb, hm
}

// FreeSpace returns the free-space path loss.
func FreeSpace(d, f float64) float64 {
	return 32.45 + 20*math.Log10(f) + 20*math.Log10(d)
}

// mobileCorrection returns the Hata mobile antenna height correction for
// small and medium sized cities.
func mobileCorrection(f, hm float64) float64 {
	return (1.1*math.Log10(f)-0.7)*hm - (1.56*math.Log10(f) - 0.8)
}

// largeCityCorrection returns the Hata mobile antenna height correction for
// large cities.
func largeCityCorrection(f, hm float64) float64 {
	if f >= 300 {
		return 3.2*math.Pow(math.Log10(11.75*hm), 2) - 4.97
	}
	return 8.29*math.Pow(math.Log10(1.54*hm), 2) - 1.1
}

func hata(d float64, p Params, a float64) float64 {
	hb, _ := p.heights()
	f := p.FrequencyMHz
	return 69.55 + 26.16*math.Log10(f) - 13.82*math.Log10(hb) - a +
		(44.9-6.55*math.Log10(hb))*math.Log10(d)
}

// HataUrban returns the Okumura-Hata urban path loss.
func HataUrban(d float64, p Params) float64 {
	_, hm := p.heights()
	return hata(d, p, mobileCorrection(p.FrequencyMHz, hm))
}

// HataDenseUrban returns the Okumura-Hata large city path loss.
func HataDenseUrban(d float64, p Params) float64 {
	_, hm := p.heights()
	return hata(d, p, largeCityCorrection(p.FrequencyMHz, hm))
}

// HataSubUrban returns the Okumura-Hata suburban path loss.
func HataSubUrban(d float64, p Params) float64 {
	return HataUrban(d, p) - 2*math.Pow(math.Log10(p.FrequencyMHz/28), 2) - 5.4
}

// HataOpenArea returns the Okumura-Hata open area path loss.
func HataOpenArea(d float64, p Params) float64 {
	lf := math.Log10(p.FrequencyMHz)
	return HataUrban(d, p) - 4.78*lf*lf + 18.33*lf - 40.94
}

// PlaneEarth returns the Egli plane-earth path loss.
func PlaneEarth(d float64, p Params) float64 {
	hb, hm := p.heights()
	l := 20*math.Log10(p.FrequencyMHz) + 40*math.Log10(d) - 20*math.Log10(hb)
	if hm <= 10 {
		return l + 76.3 - 10*math.Log10(hm)
	}
	return l + 83.9 - 20*math.Log10(hm)
}

// ClutterLoss returns the loss of the empirical model for the given clutter
// class, without free-space floor.
func ClutterLoss(c Clutter, d float64, p Params) float64 {
	switch c {
	case Open:
		return HataOpenArea(d, p)
	case SubUrban:
		return HataSubUrban(d, p)
	case DenseUrban:
		return HataDenseUrban(d, p)
	default:
		return HataUrban(d, p)
	}
}

// MidRange returns the loss for FreeSpaceMax < d < MidRangeMax, by
// log-linear interpolation between the free-space loss at FreeSpaceMax and
// the (floored) clutter loss at MidRangeMax.
func MidRange(c Clutter, d float64, p Params) float64 {
	l1 := FreeSpace(FreeSpaceMax, p.FrequencyMHz)
	l2 := math.Max(ClutterLoss(c, MidRangeMax, p), FreeSpace(MidRangeMax, p.FrequencyMHz))

	frac := (math.Log10(d) - math.Log10(FreeSpaceMax)) / (math.Log10(MidRangeMax) - math.Log10(FreeSpaceMax))
	return l1 + (l2-l1)*frac
}

// PathLoss returns the loss at distance d for the given clutter class. The
// model segment follows from d and the result is never below free space.
func PathLoss(d float64, p Params, c Clutter) float64 {
	fs := FreeSpace(d, p.FrequencyMHz)

	switch {
	case d <= FreeSpaceMax:
		return fs
	case d < MidRangeMax:
		return math.Max(MidRange(c, d, p), fs)
	default:
		return math.Max(ClutterLoss(c, d, p), fs)
	}
}
