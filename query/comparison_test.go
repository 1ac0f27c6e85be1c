package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obscore/scheduler/analytics"
	"github.com/obscore/scheduler/query"
)

func TestBuildComparisonMatchesWorkedExample(t *testing.T) {
	current := []analytics.BlockRow{
		{SchedulingBlockID: 1, IsScheduled: true},  // b1: sched
		{SchedulingBlockID: 2, IsScheduled: false}, // b2: unsched
	}
	comparison := []analytics.BlockRow{
		{SchedulingBlockID: 1, IsScheduled: false}, // b1: unsched
		{SchedulingBlockID: 3, IsScheduled: true},  // b3: sched
	}

	result := query.BuildComparison(current, comparison)

	assert.Equal(t, []int64{2}, result.OnlyInCurrent)
	assert.Equal(t, []int64{3}, result.OnlyInComparison)
	assert.Equal(t, []int64{1}, result.CommonIDs)
	require.Len(t, result.Changes, 1)
	assert.Equal(t, int64(1), result.Changes[0].SchedulingBlockID)
	assert.Equal(t, query.ChangeNewlyUnscheduled, result.Changes[0].Change)
}

func TestBuildComparisonSideStats(t *testing.T) {
	current := []analytics.BlockRow{
		{SchedulingBlockID: 1, Priority: 2, TotalVisibilityHours: 3},
		{SchedulingBlockID: 2, Priority: 4, TotalVisibilityHours: 5},
	}
	result := query.BuildComparison(current, nil)
	assert.Equal(t, 2, result.CurrentStats.Count)
	assert.InDelta(t, 8.0, result.CurrentStats.TotalHours, 1e-9)
	assert.InDelta(t, 3.0, result.CurrentStats.MeanPriority, 1e-9)
	assert.Equal(t, 0, result.ComparisonStats.Count)
}
