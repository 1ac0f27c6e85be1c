package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obscore/scheduler/analytics"
	"github.com/obscore/scheduler/query"
)

func f64(v float64) *float64 { return &v }

func TestBuildInsightsMetricsCountsAndRate(t *testing.T) {
	rows := []analytics.BlockRow{
		{SchedulingBlockID: 1, Priority: 1, TotalVisibilityHours: 2, RequestedDurationSec: 3600, IsScheduled: true},
		{SchedulingBlockID: 2, Priority: 3, TotalVisibilityHours: 4, RequestedDurationSec: 3600, IsScheduled: false},
		{SchedulingBlockID: 3, Priority: 5, TotalVisibilityHours: 0, RequestedDurationSec: 3600, IsScheduled: false}, // impossible
	}
	result := query.BuildInsights(rows, 10)

	assert.Equal(t, 3, result.Metrics.TotalBlocks)
	assert.Equal(t, 1, result.Metrics.ScheduledCount)
	assert.Equal(t, 1, result.Metrics.UnscheduledCount)
	assert.Equal(t, 1, result.Metrics.ImpossibleCount)
	assert.InDelta(t, 1.0/3.0, result.Metrics.SchedulingRate, 1e-9)
}

func TestBuildInsightsCorrelationsCoverAllPairs(t *testing.T) {
	rows := []analytics.BlockRow{
		{Priority: 1, TotalVisibilityHours: 1, RequestedDurationSec: 3600, MinAltDeg: 10, MaxAltDeg: 20},
		{Priority: 2, TotalVisibilityHours: 2, RequestedDurationSec: 7200, MinAltDeg: 10, MaxAltDeg: 30},
		{Priority: 3, TotalVisibilityHours: 3, RequestedDurationSec: 10800, MinAltDeg: 10, MaxAltDeg: 40},
	}
	result := query.BuildInsights(rows, 10)
	// 4 fields -> C(4,2) = 6 pairs
	require.Len(t, result.Correlations, 6)
	for _, c := range result.Correlations {
		if c.FieldA == "priority" && c.FieldB == "total_visibility_hours" {
			assert.InDelta(t, 1.0, c.Rho, 1e-9) // perfectly increasing together
		}
	}
}

func TestBuildInsightsTopNRanksDescending(t *testing.T) {
	rows := []analytics.BlockRow{
		{SchedulingBlockID: 1, Priority: 1, TotalVisibilityHours: 1},
		{SchedulingBlockID: 2, Priority: 9, TotalVisibilityHours: 1},
		{SchedulingBlockID: 3, Priority: 5, TotalVisibilityHours: 1},
	}
	result := query.BuildInsights(rows, 2)
	top := result.TopN["priority"]
	require.Len(t, top, 2)
	assert.Equal(t, int64(2), top[0].SchedulingBlockID)
	assert.Equal(t, int64(3), top[1].SchedulingBlockID)
}

func TestBuildInsightsDetectsOverlapConflict(t *testing.T) {
	rows := []analytics.BlockRow{
		{SchedulingBlockID: 1, TotalVisibilityHours: 1, IsScheduled: true, ScheduledStartMJD: f64(60694.0), ScheduledStopMJD: f64(60694.2)},
		{SchedulingBlockID: 2, TotalVisibilityHours: 1, IsScheduled: true, ScheduledStartMJD: f64(60694.1), ScheduledStopMJD: f64(60694.3)},
		{SchedulingBlockID: 3, TotalVisibilityHours: 1, IsScheduled: true, ScheduledStartMJD: f64(60695.0), ScheduledStopMJD: f64(60695.1)},
	}
	result := query.BuildInsights(rows, 10)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, int64(1), result.Conflicts[0].BlockAID)
	assert.Equal(t, int64(2), result.Conflicts[0].BlockBID)
	assert.InDelta(t, 0.1*24, result.Conflicts[0].OverlapHours, 1e-9)
}
