// Package memory implements repository.Repository entirely in process
// memory: an RWMutex-guarded map store with a zerolog component logger,
// sized for tests and small deployments rather than production
// durability.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/obscore/scheduler/analytics"
	"github.com/obscore/scheduler/domain"
	"github.com/obscore/scheduler/interval"
	"github.com/obscore/scheduler/query"
	"github.com/obscore/scheduler/repository"
	"github.com/obscore/scheduler/validation"
	"github.com/obscore/scheduler/visibility"
)

type entry struct {
	schedule            *domain.Schedule
	checksum            string
	analyticsRows        []analytics.BlockRow
	summary              analytics.ScheduleSummary
	priorityRates        []analytics.PriorityRateBin
	visibilityBins       []analytics.HistogramBin
	heatmapBins          []analytics.HeatmapBin
	gapMetrics           analytics.GapMetrics
	timeBins             []analytics.TimeBin
	visibilityMeta       analytics.VisibilityMetadata
	validationResults    []validation.Result
}

// Store is the in-memory repository.Repository implementation.
type Store struct {
	mu     sync.RWMutex
	logger zerolog.Logger

	schedules     map[int64]*entry
	checksumIndex map[string]int64
	nextID        int64
}

// NewStore creates an empty in-memory store.
func NewStore(logger zerolog.Logger) *Store {
	return &Store{
		logger:        logger.With().Str("component", "memory-repository").Logger(),
		schedules:     make(map[int64]*entry),
		checksumIndex: make(map[string]int64),
		nextID:        1,
	}
}

func (s *Store) HealthCheck(_ context.Context) error { return nil }

// StoreSchedule is idempotent with respect to checksum, per spec §4.E.
func (s *Store) StoreSchedule(_ context.Context, sched *domain.Schedule) (repository.ScheduleMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.checksumIndex[sched.Checksum]; ok {
		existing := s.schedules[id]
		sched.ID = &id
		s.logger.Debug().Int64("schedule_id", id).Str("checksum", sched.Checksum).Msg("duplicate checksum, returning existing schedule")
		return metadataOf(id, existing.schedule), nil
	}

	id := s.nextID
	s.nextID++
	for i, b := range sched.Blocks {
		b.ID = domain.SchedulingBlockID(i + 1)
	}
	sched.ID = &id
	cp := *sched
	s.schedules[id] = &entry{schedule: &cp, checksum: sched.Checksum}
	s.checksumIndex[sched.Checksum] = id

	s.logger.Info().Int64("schedule_id", id).Str("name", sched.Name).Int("blocks", len(sched.Blocks)).Msg("schedule stored")
	return metadataOf(id, &cp), nil
}

func metadataOf(id int64, sched *domain.Schedule) repository.ScheduleMetadata {
	return repository.ScheduleMetadata{
		ID:             id,
		Name:           sched.Name,
		Checksum:       sched.Checksum,
		SchedulePeriod: sched.SchedulePeriod,
	}
}

func (s *Store) GetSchedule(_ context.Context, id int64) (*domain.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.schedules[id]
	if !ok {
		return nil, repository.NewNotFound("GetSchedule", "schedule", itoa(id))
	}
	return e.schedule, nil
}

func (s *Store) ListSchedules(_ context.Context) ([]repository.ScheduleMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]repository.ScheduleMetadata, 0, len(s.schedules))
	for id, e := range s.schedules {
		out = append(out, metadataOf(id, e.schedule))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetScheduleTimeRange(ctx context.Context, id int64) (interval.Interval, error) {
	sched, err := s.GetSchedule(ctx, id)
	if err != nil {
		return interval.Interval{}, err
	}
	return sched.SchedulePeriod, nil
}

func (s *Store) GetSchedulingBlock(_ context.Context, scheduleID int64, blockID domain.SchedulingBlockID) (*domain.SchedulingBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.schedules[scheduleID]
	if !ok {
		return nil, repository.NewNotFound("GetSchedulingBlock", "schedule", itoa(scheduleID))
	}
	for _, b := range e.schedule.Blocks {
		if b.ID == blockID {
			return b, nil
		}
	}
	return nil, repository.NewNotFound("GetSchedulingBlock", "scheduling_block", itoa(int64(blockID)))
}

func (s *Store) GetBlocksForSchedule(_ context.Context, scheduleID int64) ([]*domain.SchedulingBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.schedules[scheduleID]
	if !ok {
		return nil, repository.NewNotFound("GetBlocksForSchedule", "schedule", itoa(scheduleID))
	}
	return e.schedule.Blocks, nil
}

func (s *Store) FetchDarkPeriods(_ context.Context, scheduleID int64) ([]interval.Interval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.schedules[scheduleID]
	if !ok {
		return nil, repository.NewNotFound("FetchDarkPeriods", "schedule", itoa(scheduleID))
	}
	return e.schedule.DarkPeriods, nil
}

func (s *Store) FetchPossiblePeriods(_ context.Context, scheduleID int64) ([]interval.Interval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.schedules[scheduleID]
	if !ok {
		return nil, repository.NewNotFound("FetchPossiblePeriods", "schedule", itoa(scheduleID))
	}
	return visibility.UnionAcrossBlocks(e.schedule.Blocks), nil
}

// PopulateScheduleAnalytics computes and stores the denormalized block
// rows, per spec §4.F; idempotent (delete-then-insert).
func (s *Store) PopulateScheduleAnalytics(_ context.Context, scheduleID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.schedules[scheduleID]
	if !ok {
		return repository.NewNotFound("PopulateScheduleAnalytics", "schedule", itoa(scheduleID))
	}
	e.analyticsRows = analytics.BuildBlockRows(scheduleID, e.schedule)
	return nil
}

func (s *Store) DeleteScheduleAnalytics(_ context.Context, scheduleID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.schedules[scheduleID]
	if !ok {
		return repository.NewNotFound("DeleteScheduleAnalytics", "schedule", itoa(scheduleID))
	}
	e.analyticsRows = nil
	return nil
}

func (s *Store) HasAnalyticsData(_ context.Context, scheduleID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.schedules[scheduleID]
	if !ok {
		return false, repository.NewNotFound("HasAnalyticsData", "schedule", itoa(scheduleID))
	}
	return len(e.analyticsRows) > 0, nil
}

func (s *Store) fetchAnalyticsBlocks(_ context.Context, scheduleID int64, op string) ([]analytics.BlockRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.schedules[scheduleID]
	if !ok {
		return nil, repository.NewNotFound(op, "schedule", itoa(scheduleID))
	}
	return e.analyticsRows, nil
}

func (s *Store) FetchAnalyticsBlocksForSkyMap(ctx context.Context, scheduleID int64) ([]analytics.BlockRow, error) {
	return s.fetchAnalyticsBlocks(ctx, scheduleID, "FetchAnalyticsBlocksForSkyMap")
}

func (s *Store) FetchAnalyticsBlocksForDistribution(ctx context.Context, scheduleID int64) ([]analytics.BlockRow, error) {
	return s.fetchAnalyticsBlocks(ctx, scheduleID, "FetchAnalyticsBlocksForDistribution")
}

func (s *Store) FetchAnalyticsBlocksForTimeline(ctx context.Context, scheduleID int64) ([]analytics.BlockRow, error) {
	return s.fetchAnalyticsBlocks(ctx, scheduleID, "FetchAnalyticsBlocksForTimeline")
}

func (s *Store) FetchAnalyticsBlocksForVisibilityMap(ctx context.Context, scheduleID int64) ([]analytics.BlockRow, error) {
	return s.fetchAnalyticsBlocks(ctx, scheduleID, "FetchAnalyticsBlocksForVisibilityMap")
}

func (s *Store) FetchAnalyticsBlocksForInsights(ctx context.Context, scheduleID int64) ([]analytics.BlockRow, error) {
	return s.fetchAnalyticsBlocks(ctx, scheduleID, "FetchAnalyticsBlocksForInsights")
}

func (s *Store) FetchAnalyticsBlocksForTrends(ctx context.Context, scheduleID int64) ([]analytics.BlockRow, error) {
	return s.fetchAnalyticsBlocks(ctx, scheduleID, "FetchAnalyticsBlocksForTrends")
}

// PopulateSummaryAnalytics computes schedule-wide aggregates from the
// already-populated block rows.
func (s *Store) PopulateSummaryAnalytics(_ context.Context, scheduleID int64, nBins int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.schedules[scheduleID]
	if !ok {
		return repository.NewNotFound("PopulateSummaryAnalytics", "schedule", itoa(scheduleID))
	}
	if len(e.analyticsRows) == 0 {
		e.analyticsRows = analytics.BuildBlockRows(scheduleID, e.schedule)
	}
	e.summary = analytics.BuildSummary(scheduleID, e.analyticsRows)
	e.priorityRates = analytics.BuildPriorityRateBins(e.analyticsRows, nBins)
	e.visibilityBins = analytics.BuildVisibilityHistogramBins(e.analyticsRows, nBins)
	e.heatmapBins = analytics.BuildHeatmapBins(e.analyticsRows, nBins)

	var scheduledPeriods []interval.Interval
	for _, b := range e.schedule.Blocks {
		if b.ScheduledPeriod != nil {
			scheduledPeriods = append(scheduledPeriods, *b.ScheduledPeriod)
		}
	}
	e.gapMetrics = analytics.BuildGapMetrics(scheduledPeriods)
	return nil
}

func (s *Store) FetchScheduleSummary(_ context.Context, scheduleID int64) (analytics.ScheduleSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.schedules[scheduleID]
	if !ok {
		return analytics.ScheduleSummary{}, repository.NewNotFound("FetchScheduleSummary", "schedule", itoa(scheduleID))
	}
	return e.summary, nil
}

func (s *Store) FetchPriorityRates(_ context.Context, scheduleID int64) ([]analytics.PriorityRateBin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.schedules[scheduleID]
	if !ok {
		return nil, repository.NewNotFound("FetchPriorityRates", "schedule", itoa(scheduleID))
	}
	return e.priorityRates, nil
}

func (s *Store) FetchVisibilityBins(_ context.Context, scheduleID int64) ([]analytics.HistogramBin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.schedules[scheduleID]
	if !ok {
		return nil, repository.NewNotFound("FetchVisibilityBins", "schedule", itoa(scheduleID))
	}
	return e.visibilityBins, nil
}

func (s *Store) FetchHeatmapBins(_ context.Context, scheduleID int64) ([]analytics.HeatmapBin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.schedules[scheduleID]
	if !ok {
		return nil, repository.NewNotFound("FetchHeatmapBins", "schedule", itoa(scheduleID))
	}
	return e.heatmapBins, nil
}

func (s *Store) HasSummaryAnalytics(_ context.Context, scheduleID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.schedules[scheduleID]
	if !ok {
		return false, repository.NewNotFound("HasSummaryAnalytics", "schedule", itoa(scheduleID))
	}
	return e.summary.TotalBlocks > 0, nil
}

func (s *Store) DeleteSummaryAnalytics(_ context.Context, scheduleID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.schedules[scheduleID]
	if !ok {
		return repository.NewNotFound("DeleteSummaryAnalytics", "schedule", itoa(scheduleID))
	}
	e.summary = analytics.ScheduleSummary{}
	e.priorityRates = nil
	e.visibilityBins = nil
	e.heatmapBins = nil
	e.gapMetrics = analytics.GapMetrics{}
	return nil
}

func (s *Store) PopulateVisibilityTimeBins(_ context.Context, scheduleID int64, binDurationSeconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.schedules[scheduleID]
	if !ok {
		return repository.NewNotFound("PopulateVisibilityTimeBins", "schedule", itoa(scheduleID))
	}
	if binDurationSeconds <= 0 {
		binDurationSeconds = analytics.DefaultVisibilityBinSeconds
	}
	e.timeBins = analytics.BuildVisibilityTimeBins(e.schedule, binDurationSeconds)
	e.visibilityMeta = analytics.VisibilityMetadata{ScheduleID: scheduleID, NativeBinSeconds: binDurationSeconds, BinCount: len(e.timeBins)}
	return nil
}

// FetchVisibilityHistogramFromAnalytics downsamples the stored native bins
// to the requested width by summing VisibleCount across merged buckets
// within [tStart, tEnd], per spec §4.F's downsampling contract.
func (s *Store) FetchVisibilityHistogramFromAnalytics(_ context.Context, scheduleID int64, tStart, tEnd float64, targetBinDurationSeconds int) ([]analytics.TimeBin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.schedules[scheduleID]
	if !ok {
		return nil, repository.NewNotFound("FetchVisibilityHistogramFromAnalytics", "schedule", itoa(scheduleID))
	}
	var inRange []analytics.TimeBin
	for _, b := range e.timeBins {
		if float64(b.BinStartUnix) >= tStart && float64(b.BinEndUnix) <= tEnd {
			inRange = append(inRange, b)
		}
	}
	return query.DownsampleTimeBins(inRange, e.visibilityMeta.NativeBinSeconds, targetBinDurationSeconds), nil
}

func (s *Store) FetchVisibilityMetadata(_ context.Context, scheduleID int64) (analytics.VisibilityMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.schedules[scheduleID]
	if !ok {
		return analytics.VisibilityMetadata{}, repository.NewNotFound("FetchVisibilityMetadata", "schedule", itoa(scheduleID))
	}
	return e.visibilityMeta, nil
}

func (s *Store) HasVisibilityTimeBins(_ context.Context, scheduleID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.schedules[scheduleID]
	if !ok {
		return false, repository.NewNotFound("HasVisibilityTimeBins", "schedule", itoa(scheduleID))
	}
	return len(e.timeBins) > 0, nil
}

func (s *Store) DeleteVisibilityTimeBins(_ context.Context, scheduleID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.schedules[scheduleID]
	if !ok {
		return repository.NewNotFound("DeleteVisibilityTimeBins", "schedule", itoa(scheduleID))
	}
	e.timeBins = nil
	e.visibilityMeta = analytics.VisibilityMetadata{}
	return nil
}

func (s *Store) InsertValidationResults(_ context.Context, scheduleID int64, results []validation.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.schedules[scheduleID]
	if !ok {
		return repository.NewNotFound("InsertValidationResults", "schedule", itoa(scheduleID))
	}
	e.validationResults = append([]validation.Result(nil), results...)
	return nil
}

func (s *Store) FetchValidationResults(_ context.Context, scheduleID int64) ([]validation.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.schedules[scheduleID]
	if !ok {
		return nil, repository.NewNotFound("FetchValidationResults", "schedule", itoa(scheduleID))
	}
	return e.validationResults, nil
}

func (s *Store) HasValidationResults(_ context.Context, scheduleID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.schedules[scheduleID]
	if !ok {
		return false, repository.NewNotFound("HasValidationResults", "schedule", itoa(scheduleID))
	}
	return len(e.validationResults) > 0, nil
}

func (s *Store) DeleteValidationResults(_ context.Context, scheduleID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.schedules[scheduleID]
	if !ok {
		return repository.NewNotFound("DeleteValidationResults", "schedule", itoa(scheduleID))
	}
	e.validationResults = nil
	return nil
}

func (s *Store) FetchCompareBlocks(ctx context.Context, scheduleID int64) ([]analytics.BlockRow, error) {
	return s.fetchAnalyticsBlocks(ctx, scheduleID, "FetchCompareBlocks")
}

func (s *Store) FetchGapMetrics(_ context.Context, scheduleID int64) (analytics.GapMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.schedules[scheduleID]
	if !ok {
		return analytics.GapMetrics{}, repository.NewNotFound("FetchGapMetrics", "schedule", itoa(scheduleID))
	}
	return e.gapMetrics, nil
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

var _ repository.Repository = (*Store)(nil)
