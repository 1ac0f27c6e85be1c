package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obscore/scheduler/analytics"
	"github.com/obscore/scheduler/query"
)

func TestBuildTrendsBinsScheduledRate(t *testing.T) {
	rows := []analytics.BlockRow{
		{Priority: 0, IsScheduled: true},
		{Priority: 0, IsScheduled: false},
		{Priority: 10, IsScheduled: true},
	}
	result := query.BuildTrends(rows, "priority", 2, 0.2, 5)
	require.Len(t, result.Bins, 2)
	assert.Equal(t, 2, result.Bins[0].Count)
	assert.InDelta(t, 0.5, result.Bins[0].ScheduledRate, 1e-9)
	assert.Equal(t, 1, result.Bins[1].Count)
	assert.InDelta(t, 1.0, result.Bins[1].ScheduledRate, 1e-9)
}

func TestBuildTrendsSmoothedCurveHasRequestedPointCount(t *testing.T) {
	rows := []analytics.BlockRow{
		{Priority: 0, IsScheduled: true},
		{Priority: 5, IsScheduled: false},
		{Priority: 10, IsScheduled: true},
	}
	result := query.BuildTrends(rows, "priority", 5, 0.3, 20)
	require.Len(t, result.Smoothed, 20)
	assert.Equal(t, 0.0, result.Smoothed[0].X)
	assert.InDelta(t, 10.0, result.Smoothed[19].X, 1e-9)
	for _, p := range result.Smoothed {
		assert.GreaterOrEqual(t, p.Rate, 0.0)
		assert.LessOrEqual(t, p.Rate, 1.0)
	}
}

func TestBuildTrendsEmptyInputYieldsZeroValue(t *testing.T) {
	result := query.BuildTrends(nil, "priority", 5, 0.3, 10)
	assert.Nil(t, result.Bins)
	assert.Nil(t, result.Smoothed)
}
