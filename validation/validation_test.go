package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obscore/scheduler/domain"
	"github.com/obscore/scheduler/ephemeris"
	"github.com/obscore/scheduler/interval"
)

func baseSchedule() *domain.Schedule {
	loc, _ := domain.NewGeographicLocation(28.7624, -17.8892, 2396, "Roque de los Muchachos")
	return &domain.Schedule{
		SchedulePeriod: interval.Must(60694.0, 60701.0),
		Location:       loc,
	}
}

func TestImpossibleBlockWithoutVisibility(t *testing.T) {
	sched := baseSchedule()
	block := &domain.SchedulingBlock{
		ID:              1,
		OriginalBlockID: "blk-1",
		Target:          ephemeris.Target{RADeg: 10, DecDeg: 20},
		Constraints:     domain.DefaultFlatConstraints(),
		RequestedDurS:   600,
		MinObservationS: 600,
	}
	sched.Blocks = []*domain.SchedulingBlock{block}

	results := ValidateSchedule(sched)
	require.Len(t, results, 1)
	assert.Equal(t, StatusImpossible, results[0].Status)
	assert.Equal(t, CriticalityHigh, results[0].Criticality)
}

func TestCleanBlockYieldsSingleOKResult(t *testing.T) {
	sched := baseSchedule()
	scheduled := interval.Must(60694.2, 60694.3)
	block := &domain.SchedulingBlock{
		ID:                2,
		OriginalBlockID:   "blk-2",
		Constraints:       domain.DefaultFlatConstraints(),
		RequestedDurS:     600,
		MinObservationS:   600,
		VisibilityPeriods: []interval.Interval{interval.Must(60694.1, 60694.9)},
		ScheduledPeriod:   &scheduled,
	}
	sched.Blocks = []*domain.SchedulingBlock{block}

	results := ValidateSchedule(sched)
	require.Len(t, results, 1)
	assert.Equal(t, StatusOK, results[0].Status)
	assert.Equal(t, CriticalityLow, results[0].Criticality)
}

func TestDurationInvariantViolationIsError(t *testing.T) {
	sched := baseSchedule()
	block := &domain.SchedulingBlock{
		ID:                3,
		OriginalBlockID:   "blk-3",
		Constraints:       domain.DefaultFlatConstraints(),
		RequestedDurS:     100,
		MinObservationS:   200,
		VisibilityPeriods: []interval.Interval{interval.Must(60694.1, 60694.9)},
	}
	sched.Blocks = []*domain.SchedulingBlock{block}

	results := ValidateSchedule(sched)
	var found bool
	for _, r := range results {
		if r.IssueType == "duration_invariant" {
			found = true
			assert.Equal(t, StatusError, r.Status)
			assert.Equal(t, CriticalityHigh, r.Criticality)
		}
	}
	assert.True(t, found)
}

func TestUnscheduledWithAdequateVisibilityIsWarning(t *testing.T) {
	sched := baseSchedule()
	block := &domain.SchedulingBlock{
		ID:                4,
		OriginalBlockID:   "blk-4",
		Constraints:       domain.DefaultFlatConstraints(),
		RequestedDurS:     600,
		MinObservationS:   600,
		VisibilityPeriods: []interval.Interval{interval.Must(60694.1, 60694.9)},
	}
	sched.Blocks = []*domain.SchedulingBlock{block}

	results := ValidateSchedule(sched)
	require.Len(t, results, 1)
	assert.Equal(t, StatusWarning, results[0].Status)
	assert.Equal(t, CriticalityMedium, results[0].Criticality)
	assert.Equal(t, "unscheduled", results[0].IssueType)
}

func TestScheduledOutsideVisibilityIsError(t *testing.T) {
	sched := baseSchedule()
	scheduled := interval.Must(60695.0, 60695.1)
	block := &domain.SchedulingBlock{
		ID:                5,
		OriginalBlockID:   "blk-5",
		Constraints:       domain.DefaultFlatConstraints(),
		RequestedDurS:     600,
		MinObservationS:   600,
		VisibilityPeriods: []interval.Interval{interval.Must(60694.1, 60694.9)},
		ScheduledPeriod:   &scheduled,
	}
	sched.Blocks = []*domain.SchedulingBlock{block}

	results := ValidateSchedule(sched)
	var found bool
	for _, r := range results {
		if r.IssueType == "scheduled_outside_visibility" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSummarizeCounts(t *testing.T) {
	results := []Result{
		{Status: StatusOK}, {Status: StatusOK}, {Status: StatusWarning}, {Status: StatusImpossible},
	}
	counts := Summarize(results)
	assert.Equal(t, 2, counts[StatusOK])
	assert.Equal(t, 1, counts[StatusWarning])
	assert.Equal(t, 1, counts[StatusImpossible])
}
