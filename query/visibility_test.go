package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obscore/scheduler/analytics"
	"github.com/obscore/scheduler/query"
)

func TestDownsampleTimeBinsMergesByFactor(t *testing.T) {
	native := []analytics.TimeBin{
		{BinStartUnix: 0, BinEndUnix: 900, VisibleCount: 1},
		{BinStartUnix: 900, BinEndUnix: 1800, VisibleCount: 2},
		{BinStartUnix: 1800, BinEndUnix: 2700, VisibleCount: 1},
		{BinStartUnix: 2700, BinEndUnix: 3600, VisibleCount: 0},
	}
	merged := query.DownsampleTimeBins(native, 900, 1800)
	require.Len(t, merged, 2)
	assert.Equal(t, 3, merged[0].VisibleCount)
	assert.Equal(t, int64(0), merged[0].BinStartUnix)
	assert.Equal(t, int64(1800), merged[0].BinEndUnix)
	assert.Equal(t, 1, merged[1].VisibleCount)
}

func TestDownsampleTimeBinsNoOpWhenTargetFiner(t *testing.T) {
	native := []analytics.TimeBin{{BinStartUnix: 0, BinEndUnix: 900, VisibleCount: 5}}
	merged := query.DownsampleTimeBins(native, 900, 300)
	assert.Equal(t, native, merged)
}

func TestFilterBlockRowsByPriorityRange(t *testing.T) {
	rows := []analytics.BlockRow{
		{SchedulingBlockID: 1, Priority: 1},
		{SchedulingBlockID: 2, Priority: 5},
		{SchedulingBlockID: 3, Priority: 9},
	}
	filtered := query.FilterBlockRows(rows, 4, 9, nil)
	require.Len(t, filtered, 2)
	assert.Equal(t, int64(2), filtered[0].SchedulingBlockID)
	assert.Equal(t, int64(3), filtered[1].SchedulingBlockID)
}

func TestFilterBlockRowsByIDSubset(t *testing.T) {
	rows := []analytics.BlockRow{
		{SchedulingBlockID: 1},
		{SchedulingBlockID: 2},
		{SchedulingBlockID: 3},
	}
	filtered := query.FilterBlockRows(rows, 0, 0, []int64{1, 3})
	require.Len(t, filtered, 2)
	assert.Equal(t, int64(1), filtered[0].SchedulingBlockID)
	assert.Equal(t, int64(3), filtered[1].SchedulingBlockID)
}
