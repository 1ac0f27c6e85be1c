package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obscore/scheduler/analytics"
	"github.com/obscore/scheduler/query"
)

func TestBuildSkyMapAssignsFixedPaletteAndExtent(t *testing.T) {
	rows := []analytics.BlockRow{
		{SchedulingBlockID: 1, Priority: 1, RADeg: 10, DecDeg: -20, IsScheduled: true},
		{SchedulingBlockID: 2, Priority: 4, RADeg: 200, DecDeg: 50, IsScheduled: false},
	}
	result := query.BuildSkyMap(rows, 1000, 2000)

	require.Len(t, result.Bins, 4)
	for i, color := range query.SkyMapPalette {
		assert.Equal(t, color, result.Bins[i].Color)
	}

	// priority 1 -> bin 0, priority 4 (== p_max) -> last bin (inclusive of p_max)
	assert.Equal(t, 1, result.Bins[0].Count)
	assert.Equal(t, 1, result.Bins[3].Count)
	assert.Equal(t, 10.0, result.Bins[0].MinRADeg)
	assert.Equal(t, 200.0, result.Bins[3].MaxRADeg)
	assert.Equal(t, 1, result.Bins[0].ScheduledCount)
	assert.Equal(t, 0, result.Bins[3].ScheduledCount)
}

func TestBuildSkyMapHandlesEmptyInput(t *testing.T) {
	result := query.BuildSkyMap(nil, 0, 0)
	assert.Nil(t, result.Bins)
}

func TestBuildSkyMapHandlesUniformPriority(t *testing.T) {
	rows := []analytics.BlockRow{
		{SchedulingBlockID: 1, Priority: 2, RADeg: 5, DecDeg: 5},
		{SchedulingBlockID: 2, Priority: 2, RADeg: 6, DecDeg: 6},
	}
	result := query.BuildSkyMap(rows, 0, 0)
	total := 0
	for _, b := range result.Bins {
		total += b.Count
	}
	assert.Equal(t, 2, total)
}
