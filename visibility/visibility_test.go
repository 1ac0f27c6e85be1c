package visibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obscore/scheduler/domain"
	"github.com/obscore/scheduler/ephemeris"
	"github.com/obscore/scheduler/interval"
)

func TestEvaluateBlockProducesSortedNonOverlappingPeriodsWithinHorizon(t *testing.T) {
	loc, err := domain.NewGeographicLocation(28.7624, -17.8892, 2396, "")
	require.NoError(t, err)

	horizon := interval.Must(60694.0, 60701.0)
	block := &domain.SchedulingBlock{
		OriginalBlockID: "blk-1",
		Target:          ephemeris.Target{RADeg: 158.03, DecDeg: -68.03},
		Constraints:     domain.FlatConstraints{MinAltDeg: 60, MaxAltDeg: 90, MinAzDeg: 0, MaxAzDeg: 360},
		RequestedDurS:   1200,
		MinObservationS: 1200,
	}

	engine := NewEngine(ephemeris.Analytic{})
	periods := engine.EvaluateBlock(block, horizon, loc.Observer())

	for i, p := range periods {
		assert.GreaterOrEqual(t, p.Start, horizon.Start)
		assert.LessOrEqual(t, p.End, horizon.End)
		if i > 0 {
			assert.LessOrEqual(t, periods[i-1].End, p.Start)
		}
		// midpoint altitude should satisfy the constraint bound
		mid := p.Start + (p.End-p.Start)/2
		alt := ephemeris.Analytic{}.TargetAltitudeDeg(mid, loc.Observer(), block.Target)
		assert.GreaterOrEqual(t, alt, 59.9)
		sunAlt := ephemeris.Analytic{}.SunAltitudeDeg(mid, loc.Observer())
		assert.Less(t, sunAlt, -17.9)
	}
}

func TestTrivialScheduleZeroTasksAstronomicalNightsPresent(t *testing.T) {
	loc, err := domain.NewGeographicLocation(28.7624, -17.8892, 2396, "")
	require.NoError(t, err)
	horizon := interval.Must(60694.0, 60701.0)

	engine := NewEngine(ephemeris.Analytic{})
	sched := &domain.Schedule{SchedulePeriod: horizon, Location: loc}
	engine.EvaluateSchedule(sched)

	assert.GreaterOrEqual(t, len(sched.AstronomicalNights), 5)
	assert.LessOrEqual(t, len(sched.AstronomicalNights), 10)
	require.NoError(t, sched.Validate())
}

func TestUnionAcrossBlocksSortedMerged(t *testing.T) {
	blocks := []*domain.SchedulingBlock{
		{VisibilityPeriods: []interval.Interval{interval.Must(0, 5), interval.Must(10, 12)}},
		{VisibilityPeriods: []interval.Interval{interval.Must(4, 11)}},
	}
	union := UnionAcrossBlocks(blocks)
	require.Len(t, union, 1)
	assert.Equal(t, interval.Must(0, 12), union[0])
}
