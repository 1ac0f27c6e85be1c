package memory

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obscore/scheduler/domain"
	"github.com/obscore/scheduler/ephemeris"
	"github.com/obscore/scheduler/interval"
	"github.com/obscore/scheduler/validation"
)

func sampleSchedule(checksum string) *domain.Schedule {
	loc, _ := domain.NewGeographicLocation(28.7624, -17.8892, 2396, "")
	return &domain.Schedule{
		Name:           "test-run",
		Checksum:       checksum,
		SchedulePeriod: interval.Must(60694.0, 60695.0),
		Location:       loc,
		Blocks: []*domain.SchedulingBlock{
			{
				ID:                1,
				OriginalBlockID:   "blk-1",
				Target:            ephemeris.Target{RADeg: 10, DecDeg: 20},
				Constraints:       domain.DefaultFlatConstraints(),
				PriorityValue:     3,
				RequestedDurS:     1800,
				MinObservationS:   1800,
				VisibilityPeriods: []interval.Interval{interval.Must(60694.1, 60694.3)},
			},
		},
	}
}

func TestStoreScheduleIsIdempotentByChecksum(t *testing.T) {
	ctx := context.Background()
	store := NewStore(zerolog.Nop())

	meta1, err := store.StoreSchedule(ctx, sampleSchedule("abc123"))
	require.NoError(t, err)

	meta2, err := store.StoreSchedule(ctx, sampleSchedule("abc123"))
	require.NoError(t, err)

	assert.Equal(t, meta1.ID, meta2.ID)

	all, err := store.ListSchedules(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetScheduleNotFound(t *testing.T) {
	store := NewStore(zerolog.Nop())
	_, err := store.GetSchedule(context.Background(), 999)
	require.Error(t, err)
}

func TestPopulateAndFetchAnalytics(t *testing.T) {
	ctx := context.Background()
	store := NewStore(zerolog.Nop())
	meta, err := store.StoreSchedule(ctx, sampleSchedule("xyz"))
	require.NoError(t, err)

	require.NoError(t, store.PopulateScheduleAnalytics(ctx, meta.ID))
	rows, err := store.FetchAnalyticsBlocksForSkyMap(ctx, meta.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "blk-1", rows[0].OriginalBlockID)

	require.NoError(t, store.PopulateSummaryAnalytics(ctx, meta.ID, 4))
	summary, err := store.FetchScheduleSummary(ctx, meta.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalBlocks)

	has, err := store.HasAnalyticsData(ctx, meta.ID)
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, store.DeleteScheduleAnalytics(ctx, meta.ID))
	has, err = store.HasAnalyticsData(ctx, meta.ID)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestVisibilityTimeBinsPopulateAndFetch(t *testing.T) {
	ctx := context.Background()
	store := NewStore(zerolog.Nop())
	meta, err := store.StoreSchedule(ctx, sampleSchedule("time-bins"))
	require.NoError(t, err)

	require.NoError(t, store.PopulateVisibilityTimeBins(ctx, meta.ID, 3600))
	metaInfo, err := store.FetchVisibilityMetadata(ctx, meta.ID)
	require.NoError(t, err)
	assert.Equal(t, 3600, metaInfo.NativeBinSeconds)

	horizonStart := interval.MJD(60694.0).ToUnix()
	horizonEnd := interval.MJD(60695.0).ToUnix()
	bins, err := store.FetchVisibilityHistogramFromAnalytics(ctx, meta.ID, horizonStart, horizonEnd, 3600)
	require.NoError(t, err)
	assert.NotEmpty(t, bins)
}

func TestValidationResultsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(zerolog.Nop())
	meta, err := store.StoreSchedule(ctx, sampleSchedule("val"))
	require.NoError(t, err)

	require.NoError(t, store.PopulateScheduleAnalytics(ctx, meta.ID))
	sched, err := store.GetSchedule(ctx, meta.ID)
	require.NoError(t, err)

	require.NoError(t, store.InsertValidationResults(ctx, meta.ID, nil))
	has, err := store.HasValidationResults(ctx, meta.ID)
	require.NoError(t, err)
	assert.False(t, has)

	results := validation.ValidateSchedule(sched)
	require.NoError(t, store.InsertValidationResults(ctx, meta.ID, results))
	fetched, err := store.FetchValidationResults(ctx, meta.ID)
	require.NoError(t, err)
	assert.Equal(t, results, fetched)
	has, err = store.HasValidationResults(ctx, meta.ID)
	require.NoError(t, err)
	assert.True(t, has)
}
