package query_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/obscore/scheduler/analytics"
	"github.com/obscore/scheduler/query"
)

func TestBuildDistributionExcludesImpossibleBlocks(t *testing.T) {
	rows := []analytics.BlockRow{
		{Priority: 1, TotalVisibilityHours: 2, RequestedDurationSec: 3600},
		{Priority: 3, TotalVisibilityHours: 4, RequestedDurationSec: 7200},
		{Priority: 5, TotalVisibilityHours: 0, RequestedDurationSec: 1800}, // impossible
	}
	result := query.BuildDistribution(rows)

	assert.Equal(t, 1, result.ImpossibleCount)
	assert.Equal(t, 2, result.Priority.Count)
	assert.Equal(t, 2.0, result.Priority.Mean)
	assert.Equal(t, 2.0, result.Priority.Median)
	assert.Equal(t, 1.0, result.Priority.Min)
	assert.Equal(t, 3.0, result.Priority.Max)

	assert.InDelta(t, 3.0, result.TotalVisibilityHours.Mean, 1e-9)
	assert.InDelta(t, 1.0, result.RequestedHours.Min, 1e-9)
	assert.InDelta(t, 2.0, result.RequestedHours.Max, 1e-9)
}

func TestComputeSeriesStatsStdDevIsPopulationFormula(t *testing.T) {
	rows := []analytics.BlockRow{
		{Priority: 2, TotalVisibilityHours: 1, RequestedDurationSec: 3600},
		{Priority: 4, TotalVisibilityHours: 1, RequestedDurationSec: 3600},
	}
	result := query.BuildDistribution(rows)
	// mean=3, deviations {-1,1}, sumSq=2, /n=1 -> stddev=1
	assert.InDelta(t, 1.0, result.Priority.StdDev, 1e-9)
	assert.True(t, math.Abs(result.Priority.StdDev-1.0) < 1e-9)
}

func TestBuildDistributionAllImpossibleYieldsEmptySeries(t *testing.T) {
	rows := []analytics.BlockRow{
		{Priority: 1, TotalVisibilityHours: 0},
		{Priority: 2, TotalVisibilityHours: 0},
	}
	result := query.BuildDistribution(rows)
	assert.Equal(t, 2, result.ImpossibleCount)
	assert.Equal(t, 0, result.Priority.Count)
}
