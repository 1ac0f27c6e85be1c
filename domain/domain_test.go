package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obscore/scheduler/interval"
)

func TestNewGeographicLocationRejectsOutOfRange(t *testing.T) {
	_, err := NewGeographicLocation(95, 0, 0, "")
	require.Error(t, err)
	_, err = NewGeographicLocation(0, 200, 0, "")
	require.Error(t, err)
}

func TestPriorityBucketEndpointsAndTies(t *testing.T) {
	assert.Equal(t, 1, PriorityBucket(1.0, 1.0, 10.0))
	assert.Equal(t, 4, PriorityBucket(10.0, 1.0, 10.0))
	assert.Equal(t, 2, PriorityBucket(7.0, 7.0, 7.0))
}

func TestBlockValidateDurationInvariant(t *testing.T) {
	b := &SchedulingBlock{MinObservationS: 100, RequestedDurS: 50}
	err := b.Validate()
	require.Error(t, err)
}

func TestBlockValidateScheduledPeriodMustLieInVisibility(t *testing.T) {
	vp := interval.Must(0, 10)
	sp := interval.Must(2, 5)
	b := &SchedulingBlock{
		MinObservationS:   1 * 86400,
		RequestedDurS:     1 * 86400,
		VisibilityPeriods: []interval.Interval{vp},
		ScheduledPeriod:   &sp,
	}
	require.NoError(t, b.Validate())

	outside := interval.Must(20, 25)
	b.ScheduledPeriod = &outside
	require.Error(t, b.Validate())
}

func TestScheduleValidateVisibilityWithinPeriod(t *testing.T) {
	s := &Schedule{
		SchedulePeriod: interval.Must(0, 10),
		Blocks: []*SchedulingBlock{
			{OriginalBlockID: "1", VisibilityPeriods: []interval.Interval{interval.Must(0, 5)}},
		},
	}
	require.NoError(t, s.Validate())

	s.Blocks[0].VisibilityPeriods = []interval.Interval{interval.Must(0, 20)}
	require.Error(t, s.Validate())
}
