package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obscore/scheduler/domain"
	"github.com/obscore/scheduler/ephemeris"
	"github.com/obscore/scheduler/interval"
)

func sampleSchedule() *domain.Schedule {
	loc, _ := domain.NewGeographicLocation(28.7624, -17.8892, 2396, "")
	blocks := []*domain.SchedulingBlock{
		{
			ID:                1,
			OriginalBlockID:   "blk-1",
			Target:            ephemeris.Target{RADeg: 10, DecDeg: 20},
			Constraints:       domain.DefaultFlatConstraints(),
			PriorityValue:     1.0,
			RequestedDurS:     1800,
			MinObservationS:   1800,
			VisibilityPeriods: []interval.Interval{interval.Must(60694.1, 60694.3)},
		},
		{
			ID:                2,
			OriginalBlockID:   "blk-2",
			Target:            ephemeris.Target{RADeg: 200, DecDeg: -40},
			Constraints:       domain.DefaultFlatConstraints(),
			PriorityValue:     5.0,
			RequestedDurS:     3600,
			MinObservationS:   3600,
			VisibilityPeriods: []interval.Interval{interval.Must(60694.4, 60694.6)},
		},
		{
			ID:              3,
			OriginalBlockID: "blk-3",
			Target:          ephemeris.Target{RADeg: 99, DecDeg: 1},
			Constraints:     domain.DefaultFlatConstraints(),
			PriorityValue:   9.0,
			RequestedDurS:   900,
			MinObservationS: 900,
		},
	}
	return &domain.Schedule{
		SchedulePeriod: interval.Must(60694.0, 60695.0),
		Location:       loc,
		Blocks:         blocks,
	}
}

func TestBuildBlockRowsMatchesBlockCount(t *testing.T) {
	sched := sampleSchedule()
	rows := BuildBlockRows(42, sched)
	require.Len(t, rows, 3)
	assert.Equal(t, int64(42), rows[0].ScheduleID)
	assert.Equal(t, "blk-3", rows[2].OriginalBlockID)
	assert.Equal(t, 0.0, rows[2].TotalVisibilityHours)
}

func TestBuildSummaryCountsImpossibleAndUnscheduled(t *testing.T) {
	rows := BuildBlockRows(1, sampleSchedule())
	summary := BuildSummary(1, rows)
	assert.Equal(t, 3, summary.TotalBlocks)
	assert.Equal(t, 0, summary.ScheduledCount)
	assert.Equal(t, 3, summary.UnscheduledCount)
	assert.Equal(t, 1, summary.ImpossibleCount)
}

func TestBuildPriorityRateBinsExcludesImpossible(t *testing.T) {
	rows := BuildBlockRows(1, sampleSchedule())
	bins := BuildPriorityRateBins(rows, 4)
	total := 0
	for _, b := range bins {
		total += b.Count
	}
	assert.Equal(t, 2, total) // blk-3 has zero visibility, excluded
}

func TestBatchesChunkSize(t *testing.T) {
	rows := make([]BlockRow, 200)
	batches := Batches(rows)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 95)
	assert.Len(t, batches[1], 95)
	assert.Len(t, batches[2], 10)
}

func TestBuildGapMetricsComputesMeanAndMedian(t *testing.T) {
	periods := []interval.Interval{
		interval.Must(0, 1),
		interval.Must(2, 3),
		interval.Must(5, 6),
	}
	gm := BuildGapMetrics(periods)
	assert.Equal(t, 2, gm.GapCount)
	assert.InDelta(t, 36, gm.MeanHours, 1e-9) // (24h + 48h)/2
}

func TestBuildVisibilityTimeBinsCountsOverlap(t *testing.T) {
	sched := sampleSchedule()
	bins := BuildVisibilityTimeBins(sched, 3600)
	require.NotEmpty(t, bins)
	total := 0
	for _, b := range bins {
		total += b.VisibleCount
	}
	assert.Greater(t, total, 0)
}
