package ruleset

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/brocaar/whitespace-server/internal/channel"
	"github.com/brocaar/whitespace-server/internal/models"
)

func TestFailedList(t *testing.T) {
	assert := require.New(t)
	plan := channel.GBPlan()

	list := FailedList(plan, models.Master, errors.New("terrain unavailable"))
	assert.Equal(models.StatusFailed, list.Status)
	assert.Equal("terrain unavailable", list.Error)
	assert.Len(list.Channels, 40)
	assert.Len(list.Available(), 0)

	for _, c := range list.Channels {
		assert.Equal(models.PowerUnavailable, c.MaxPowerDBm)
		assert.Equal(8.0, c.BandwidthMHz)
	}
}

func TestErrorWrapping(t *testing.T) {
	assert := require.New(t)

	err := InvalidDevice(models.ErrInvalidLocation)
	assert.Equal(ErrInvalidDevice, errors.Cause(err))
	assert.Contains(err.Error(), models.ErrInvalidLocation.Error())

	err = CalculationFailed(errors.New("boom"))
	assert.Equal(ErrCalculationFailed, errors.Cause(err))
}
