package solver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obscore/scheduler/domain"
	"github.com/obscore/scheduler/interval"
)

func TestNullSolverLeavesEverythingUnscheduled(t *testing.T) {
	blocks := []*domain.SchedulingBlock{
		{ID: 1, VisibilityPeriods: []interval.Interval{interval.Must(0, 1)}},
		{ID: 2, VisibilityPeriods: []interval.Interval{interval.Must(1, 2)}},
	}
	res, err := NullSolver{}.Solve(context.Background(), blocks, AlgorithmParams{Algorithm: AlgorithmNull})
	require.NoError(t, err)
	assert.Empty(t, res.Assignments)
	assert.Len(t, res.Unscheduled, 2)
}

func TestGreedySolverPrefersHigherPriorityAndAvoidsOverlap(t *testing.T) {
	shared := interval.Must(0, 1) // 1 day = 86400s of visibility
	blocks := []*domain.SchedulingBlock{
		{ID: 1, PriorityValue: 1, RequestedDurS: 3600, MinObservationS: 3600, VisibilityPeriods: []interval.Interval{shared}},
		{ID: 2, PriorityValue: 9, RequestedDurS: 3600, MinObservationS: 3600, VisibilityPeriods: []interval.Interval{shared}},
	}
	res, err := GreedySolver{}.Solve(context.Background(), blocks, AlgorithmParams{Algorithm: AlgorithmGreedy})
	require.NoError(t, err)
	require.Len(t, res.Assignments, 2)
	assert.Empty(t, res.Unscheduled)

	assert.False(t, res.Assignments[0].Period.Overlaps(res.Assignments[1].Period))
	// higher-priority block (ID 2) should be assigned first, i.e. earliest slot
	assert.Equal(t, domain.SchedulingBlockID(2), res.Assignments[0].BlockID)
}

func TestGreedySolverLeavesBlockUnscheduledWhenNoSlotFits(t *testing.T) {
	tiny := interval.Must(0, 0.0001) // far too short for an hour-long request
	blocks := []*domain.SchedulingBlock{
		{ID: 1, PriorityValue: 1, RequestedDurS: 3600, MinObservationS: 3600, VisibilityPeriods: []interval.Interval{tiny}},
	}
	res, err := GreedySolver{}.Solve(context.Background(), blocks, AlgorithmParams{})
	require.NoError(t, err)
	assert.Empty(t, res.Assignments)
	assert.Equal(t, []domain.SchedulingBlockID{1}, res.Unscheduled)
}
