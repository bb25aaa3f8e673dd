package pathloss

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

var clutters = []Clutter{Open, SubUrban, Urban, DenseUrban}

var params = []Params{
	{FrequencyMHz: 474, HeightMaster: 30, HeightSlave: 1.5},
	{FrequencyMHz: 600, HeightMaster: 30, HeightSlave: 10},
	{FrequencyMHz: 786, HeightMaster: 100, HeightSlave: 1.5},
}

func distances() []float64 {
	var out []float64
	for d := 0.001; d <= 100; d *= 1.07 {
		out = append(out, d)
	}
	return append(out, FreeSpaceMax, MidRangeMax, 100)
}

func TestFreeSpace(t *testing.T) {
	assert := require.New(t)

	// 1 km at 100 MHz
	assert.InDelta(72.45, FreeSpace(1, 100), 1e-9)
	// doubling the distance adds ~6 dB
	assert.InDelta(6.0206, FreeSpace(2, 600)-FreeSpace(1, 600), 1e-4)
}

func TestHata(t *testing.T) {
	assert := require.New(t)
	p := Params{FrequencyMHz: 900, HeightMaster: 30, HeightSlave: 1.5}

	// reference values for the 900 MHz / 30 m / 1.5 m case
	assert.InDelta(126.40, HataUrban(1, p), 0.05)
	assert.InDelta(116.46, HataSubUrban(1, p), 0.05)
	assert.InDelta(97.90, HataOpenArea(1, p), 0.05)
	assert.True(HataDenseUrban(1, p) > HataSubUrban(1, p))
}

func TestClutterLoss(t *testing.T) {
	p := Params{FrequencyMHz: 600, HeightMaster: 30, HeightSlave: 1.5}

	tests := []struct {
		clutter  Clutter
		expected func(float64, Params) float64
	}{
		{Open, HataOpenArea},
		{SubUrban, HataSubUrban},
		{Urban, HataUrban},
		{DenseUrban, HataDenseUrban},
		{Clutter(9), HataUrban},
	}

	for _, tst := range tests {
		t.Run(tst.clutter.String(), func(t *testing.T) {
			assert := require.New(t)
			assert.Equal(tst.expected(5, p), ClutterLoss(tst.clutter, 5, p))
		})
	}
}

func TestPathLossMonotonic(t *testing.T) {
	for _, p := range params {
		for _, c := range clutters {
			t.Run(fmt.Sprintf("%s/%v", c, p), func(t *testing.T) {
				assert := require.New(t)

				prev := math.Inf(-1)
				for _, d := range sorted(distances()) {
					l := PathLoss(d, p, c)
					assert.True(l >= prev, "loss decreased at %f km", d)
					prev = l
				}
			})
		}
	}
}

func TestFreeSpaceFloor(t *testing.T) {
	for _, p := range params {
		for _, c := range clutters {
			t.Run(fmt.Sprintf("%s/%v", c, p), func(t *testing.T) {
				assert := require.New(t)
				for _, d := range distances() {
					assert.True(PathLoss(d, p, c) >= FreeSpace(d, p.FrequencyMHz), "below free space at %f km", d)
				}
			})
		}
	}
}

func TestMidRange(t *testing.T) {
	assert := require.New(t)
	p := params[0]

	for _, c := range clutters {
		// continuous at both segment boundaries
		assert.InDelta(FreeSpace(FreeSpaceMax, p.FrequencyMHz), MidRange(c, FreeSpaceMax, p), 1e-9)
		assert.InDelta(PathLoss(MidRangeMax, p, c), MidRange(c, MidRangeMax, p), 1e-9)
	}
}

func TestDistanceFromPathLoss(t *testing.T) {
	for _, p := range params {
		for _, c := range clutters {
			for _, d0 := range []float64{0.001, 0.02, 0.04, 0.05, 0.07, 0.1, 0.5, 1, 5, 20, 50, 99.9} {
				t.Run(fmt.Sprintf("%s/%v/%f", c, p, d0), func(t *testing.T) {
					assert := require.New(t)
					d := DistanceFromPathLoss(PathLoss(d0, p, c), p, c)
					assert.InDelta(d0*1000, d.Meters(), 1.0)
				})
			}
		}
	}

	t.Run("target beyond bracket returns bracket edge", func(t *testing.T) {
		assert := require.New(t)
		p := params[0]
		d := DistanceFromPathLoss(PathLoss(100, p, Urban)+50, p, Urban)
		assert.InDelta(100, d.Kilometers(), 1e-3)
	})
}

func TestInverseClosedForms(t *testing.T) {
	assert := require.New(t)

	for _, d := range []float64{0.5, 3, 42} {
		assert.InDelta(d, FreeSpaceDistance(FreeSpace(d, 600), 600), 1e-9)

		for _, hm := range []float64{1.5, 10, 20} {
			p := Params{FrequencyMHz: 600, HeightMaster: 150, HeightSlave: hm}
			assert.InDelta(d, PlaneEarthDistance(PlaneEarth(d, p), p), 1e-9)
		}
	}
}

func sorted(in []float64) []float64 {
	out := append([]float64(nil), in...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
