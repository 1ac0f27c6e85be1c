package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/obscore/scheduler/analytics"
	"github.com/obscore/scheduler/domain"
	"github.com/obscore/scheduler/interval"
	"github.com/obscore/scheduler/query"
)

// PopulateScheduleAnalytics recomputes and stores the denormalized block
// rows for a schedule, per spec §4.F. It is idempotent: existing rows for
// the schedule are deleted before the fresh set is inserted, sent as one
// pgx.Batch per analytics.Batches() chunk with one 21-parameter INSERT per
// row.
func (s *Store) PopulateScheduleAnalytics(ctx context.Context, scheduleID int64) error {
	return s.withRetry(ctx, "PopulateScheduleAnalytics", "schedule", itoa(scheduleID), func() error {
		return s.withWriteLock(scheduleID, func() error {
			sched, err := s.getScheduleForAnalytics(ctx, scheduleID)
			if err != nil {
				return err
			}
			rows := analytics.BuildBlockRows(scheduleID, sched)
			return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
				if _, err := tx.Exec(ctx, `DELETE FROM schedule_blocks_analytics WHERE schedule_id = $1`, scheduleID); err != nil {
					return err
				}
				for _, batch := range analytics.Batches(rows) {
					if err := insertBlockRowBatch(ctx, tx, batch); err != nil {
						return err
					}
				}
				return nil
			})
		})
	})
}

// getScheduleForAnalytics loads only a schedule's blocks and time range,
// skipping the metadata and dark-period reads of GetSchedule. Both reads
// go through withRetry, so inside a caller's withRetry they also retry on
// their own.
func (s *Store) getScheduleForAnalytics(ctx context.Context, scheduleID int64) (*domain.Schedule, error) {
	blocks, err := s.GetBlocksForSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	timeRange, err := s.GetScheduleTimeRange(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	return &domain.Schedule{SchedulePeriod: timeRange, Blocks: blocks}, nil
}

func insertBlockRowBatch(ctx context.Context, tx pgx.Tx, rows []analytics.BlockRow) error {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO schedule_blocks_analytics (
				schedule_id, scheduling_block_id, original_block_id, ra_deg, dec_deg,
				priority, priority_bucket, requested_duration_sec, min_observation_sec,
				min_alt_deg, max_alt_deg, min_az_deg, max_az_deg,
				constraint_start_mjd, constraint_stop_mjd,
				is_scheduled, scheduled_start_mjd, scheduled_stop_mjd,
				total_visibility_hours, visibility_period_count, validation_impossible
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
			ON CONFLICT (schedule_id, scheduling_block_id) DO UPDATE SET
				total_visibility_hours = EXCLUDED.total_visibility_hours,
				is_scheduled = EXCLUDED.is_scheduled`,
			r.ScheduleID, r.SchedulingBlockID, r.OriginalBlockID, r.RADeg, r.DecDeg,
			r.Priority, r.PriorityBucket, r.RequestedDurationSec, r.MinObservationSec,
			r.MinAltDeg, r.MaxAltDeg, r.MinAzDeg, r.MaxAzDeg,
			r.ConstraintStartMJD, r.ConstraintStopMJD,
			r.IsScheduled, r.ScheduledStartMJD, r.ScheduledStopMJD,
			r.TotalVisibilityHours, r.VisibilityPeriodCount, r.ValidationImpossible)
	}
	br := tx.SendBatch(ctx, batch)
	defer br.Close()
	for range rows {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) DeleteScheduleAnalytics(ctx context.Context, scheduleID int64) error {
	return s.withRetry(ctx, "DeleteScheduleAnalytics", "schedule", itoa(scheduleID), func() error {
		_, err := s.pool.Exec(ctx, `DELETE FROM schedule_blocks_analytics WHERE schedule_id = $1`, scheduleID)
		return err
	})
}

func (s *Store) HasAnalyticsData(ctx context.Context, scheduleID int64) (bool, error) {
	var count int
	err := s.withRetry(ctx, "HasAnalyticsData", "schedule", itoa(scheduleID), func() error {
		return s.pool.QueryRow(ctx, `SELECT count(*) FROM schedule_blocks_analytics WHERE schedule_id = $1`, scheduleID).Scan(&count)
	})
	return count > 0, err
}

func (s *Store) fetchAnalyticsBlocks(ctx context.Context, op string, scheduleID int64) ([]analytics.BlockRow, error) {
	var out []analytics.BlockRow
	err := s.withRetry(ctx, op, "schedule", itoa(scheduleID), func() error {
		rows, err := s.pool.Query(ctx, `
			SELECT schedule_id, scheduling_block_id, original_block_id, ra_deg, dec_deg,
			       priority, priority_bucket, requested_duration_sec, min_observation_sec,
			       min_alt_deg, max_alt_deg, min_az_deg, max_az_deg,
			       constraint_start_mjd, constraint_stop_mjd,
			       is_scheduled, scheduled_start_mjd, scheduled_stop_mjd,
			       total_visibility_hours, visibility_period_count, validation_impossible
			FROM schedule_blocks_analytics WHERE schedule_id = $1 ORDER BY scheduling_block_id`, scheduleID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out = nil
		for rows.Next() {
			var r analytics.BlockRow
			if err := rows.Scan(&r.ScheduleID, &r.SchedulingBlockID, &r.OriginalBlockID, &r.RADeg, &r.DecDeg,
				&r.Priority, &r.PriorityBucket, &r.RequestedDurationSec, &r.MinObservationSec,
				&r.MinAltDeg, &r.MaxAltDeg, &r.MinAzDeg, &r.MaxAzDeg,
				&r.ConstraintStartMJD, &r.ConstraintStopMJD,
				&r.IsScheduled, &r.ScheduledStartMJD, &r.ScheduledStopMJD,
				&r.TotalVisibilityHours, &r.VisibilityPeriodCount, &r.ValidationImpossible); err != nil {
				return err
			}
			out = append(out, r)
		}
		return rows.Err()
	})
	return out, err
}

func (s *Store) FetchAnalyticsBlocksForSkyMap(ctx context.Context, scheduleID int64) ([]analytics.BlockRow, error) {
	return s.fetchAnalyticsBlocks(ctx, "FetchAnalyticsBlocksForSkyMap", scheduleID)
}
func (s *Store) FetchAnalyticsBlocksForDistribution(ctx context.Context, scheduleID int64) ([]analytics.BlockRow, error) {
	return s.fetchAnalyticsBlocks(ctx, "FetchAnalyticsBlocksForDistribution", scheduleID)
}
func (s *Store) FetchAnalyticsBlocksForTimeline(ctx context.Context, scheduleID int64) ([]analytics.BlockRow, error) {
	return s.fetchAnalyticsBlocks(ctx, "FetchAnalyticsBlocksForTimeline", scheduleID)
}
func (s *Store) FetchAnalyticsBlocksForVisibilityMap(ctx context.Context, scheduleID int64) ([]analytics.BlockRow, error) {
	return s.fetchAnalyticsBlocks(ctx, "FetchAnalyticsBlocksForVisibilityMap", scheduleID)
}
func (s *Store) FetchAnalyticsBlocksForInsights(ctx context.Context, scheduleID int64) ([]analytics.BlockRow, error) {
	return s.fetchAnalyticsBlocks(ctx, "FetchAnalyticsBlocksForInsights", scheduleID)
}
func (s *Store) FetchAnalyticsBlocksForTrends(ctx context.Context, scheduleID int64) ([]analytics.BlockRow, error) {
	return s.fetchAnalyticsBlocks(ctx, "FetchAnalyticsBlocksForTrends", scheduleID)
}
func (s *Store) FetchCompareBlocks(ctx context.Context, scheduleID int64) ([]analytics.BlockRow, error) {
	return s.fetchAnalyticsBlocks(ctx, "FetchCompareBlocks", scheduleID)
}

// PopulateSummaryAnalytics computes schedule-wide aggregates from the
// already-populated block rows and stores them, per spec §4.F.
func (s *Store) PopulateSummaryAnalytics(ctx context.Context, scheduleID int64, nBins int) error {
	return s.withRetry(ctx, "PopulateSummaryAnalytics", "schedule", itoa(scheduleID), func() error {
		return s.withWriteLock(scheduleID, func() error {
			rows, err := s.fetchAnalyticsBlocks(ctx, "PopulateSummaryAnalytics", scheduleID)
			if err != nil {
				return err
			}
			summary := analytics.BuildSummary(scheduleID, rows)
			priorityRates := analytics.BuildPriorityRateBins(rows, nBins)
			visBins := analytics.BuildVisibilityHistogramBins(rows, nBins)
			heatBins := analytics.BuildHeatmapBins(rows, nBins)

			return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
				if _, err := tx.Exec(ctx, `
					INSERT INTO schedule_summary (schedule_id, total_blocks, scheduled_count, unscheduled_count, impossible_count)
					VALUES ($1,$2,$3,$4,$5)
					ON CONFLICT (schedule_id) DO UPDATE SET
						total_blocks = EXCLUDED.total_blocks, scheduled_count = EXCLUDED.scheduled_count,
						unscheduled_count = EXCLUDED.unscheduled_count, impossible_count = EXCLUDED.impossible_count`,
					summary.ScheduleID, summary.TotalBlocks, summary.ScheduledCount, summary.UnscheduledCount, summary.ImpossibleCount); err != nil {
					return err
				}
				if _, err := tx.Exec(ctx, `DELETE FROM schedule_priority_rate_bins WHERE schedule_id = $1`, scheduleID); err != nil {
					return err
				}
				for _, b := range priorityRates {
					if _, err := tx.Exec(ctx, `
						INSERT INTO schedule_priority_rate_bins (schedule_id, bin_index, min_priority, max_priority, count, scheduled_count)
						VALUES ($1,$2,$3,$4,$5,$6)`,
						scheduleID, b.BinIndex, b.MinPriority, b.MaxPriority, b.Count, b.ScheduledCount); err != nil {
						return err
					}
				}
				if _, err := tx.Exec(ctx, `DELETE FROM schedule_visibility_hours_bins WHERE schedule_id = $1`, scheduleID); err != nil {
					return err
				}
				for _, b := range visBins {
					if _, err := tx.Exec(ctx, `
						INSERT INTO schedule_visibility_hours_bins (schedule_id, bin_index, min_hours, max_hours, count)
						VALUES ($1,$2,$3,$4,$5)`,
						scheduleID, b.BinIndex, b.MinHours, b.MaxHours, b.Count); err != nil {
						return err
					}
				}
				if _, err := tx.Exec(ctx, `DELETE FROM schedule_heatmap_bins WHERE schedule_id = $1`, scheduleID); err != nil {
					return err
				}
				for _, b := range heatBins {
					if _, err := tx.Exec(ctx, `
						INSERT INTO schedule_heatmap_bins (schedule_id, visibility_bin_index, duration_bin_index, count)
						VALUES ($1,$2,$3,$4)`,
						scheduleID, b.VisibilityBinIndex, b.DurationBinIndex, b.Count); err != nil {
						return err
					}
				}
				return nil
			})
		})
	})
}

func (s *Store) FetchScheduleSummary(ctx context.Context, scheduleID int64) (analytics.ScheduleSummary, error) {
	var summary analytics.ScheduleSummary
	err := s.withRetry(ctx, "FetchScheduleSummary", "schedule", itoa(scheduleID), func() error {
		summary.ScheduleID = scheduleID
		return s.pool.QueryRow(ctx, `
			SELECT total_blocks, scheduled_count, unscheduled_count, impossible_count
			FROM schedule_summary WHERE schedule_id = $1`, scheduleID).
			Scan(&summary.TotalBlocks, &summary.ScheduledCount, &summary.UnscheduledCount, &summary.ImpossibleCount)
	})
	return summary, err
}

func (s *Store) FetchPriorityRates(ctx context.Context, scheduleID int64) ([]analytics.PriorityRateBin, error) {
	var out []analytics.PriorityRateBin
	err := s.withRetry(ctx, "FetchPriorityRates", "schedule", itoa(scheduleID), func() error {
		rows, err := s.pool.Query(ctx, `
			SELECT bin_index, min_priority, max_priority, count, scheduled_count
			FROM schedule_priority_rate_bins WHERE schedule_id = $1 ORDER BY bin_index`, scheduleID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out = nil
		for rows.Next() {
			var b analytics.PriorityRateBin
			if err := rows.Scan(&b.BinIndex, &b.MinPriority, &b.MaxPriority, &b.Count, &b.ScheduledCount); err != nil {
				return err
			}
			if b.Count > 0 {
				b.ScheduledRate = float64(b.ScheduledCount) / float64(b.Count)
			}
			out = append(out, b)
		}
		return rows.Err()
	})
	return out, err
}

func (s *Store) FetchVisibilityBins(ctx context.Context, scheduleID int64) ([]analytics.HistogramBin, error) {
	var out []analytics.HistogramBin
	err := s.withRetry(ctx, "FetchVisibilityBins", "schedule", itoa(scheduleID), func() error {
		rows, err := s.pool.Query(ctx, `
			SELECT bin_index, min_hours, max_hours, count
			FROM schedule_visibility_hours_bins WHERE schedule_id = $1 ORDER BY bin_index`, scheduleID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out = nil
		for rows.Next() {
			var b analytics.HistogramBin
			if err := rows.Scan(&b.BinIndex, &b.MinHours, &b.MaxHours, &b.Count); err != nil {
				return err
			}
			out = append(out, b)
		}
		return rows.Err()
	})
	return out, err
}

func (s *Store) FetchHeatmapBins(ctx context.Context, scheduleID int64) ([]analytics.HeatmapBin, error) {
	var out []analytics.HeatmapBin
	err := s.withRetry(ctx, "FetchHeatmapBins", "schedule", itoa(scheduleID), func() error {
		rows, err := s.pool.Query(ctx, `
			SELECT visibility_bin_index, duration_bin_index, count
			FROM schedule_heatmap_bins WHERE schedule_id = $1 ORDER BY visibility_bin_index, duration_bin_index`, scheduleID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out = nil
		for rows.Next() {
			var b analytics.HeatmapBin
			if err := rows.Scan(&b.VisibilityBinIndex, &b.DurationBinIndex, &b.Count); err != nil {
				return err
			}
			out = append(out, b)
		}
		return rows.Err()
	})
	return out, err
}

func (s *Store) HasSummaryAnalytics(ctx context.Context, scheduleID int64) (bool, error) {
	var count int
	err := s.withRetry(ctx, "HasSummaryAnalytics", "schedule", itoa(scheduleID), func() error {
		return s.pool.QueryRow(ctx, `SELECT count(*) FROM schedule_summary WHERE schedule_id = $1`, scheduleID).Scan(&count)
	})
	return count > 0, err
}

func (s *Store) DeleteSummaryAnalytics(ctx context.Context, scheduleID int64) error {
	return s.withRetry(ctx, "DeleteSummaryAnalytics", "schedule", itoa(scheduleID), func() error {
		return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			for _, table := range []string{"schedule_summary", "schedule_priority_rate_bins", "schedule_visibility_hours_bins", "schedule_heatmap_bins"} {
				if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE schedule_id = $1`, scheduleID); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

func (s *Store) PopulateVisibilityTimeBins(ctx context.Context, scheduleID int64, binDurationSeconds int) error {
	if binDurationSeconds <= 0 {
		binDurationSeconds = analytics.DefaultVisibilityBinSeconds
	}
	return s.withRetry(ctx, "PopulateVisibilityTimeBins", "schedule", itoa(scheduleID), func() error {
		return s.withWriteLock(scheduleID, func() error {
			sched, err := s.getScheduleForAnalytics(ctx, scheduleID)
			if err != nil {
				return err
			}
			bins := analytics.BuildVisibilityTimeBins(sched, binDurationSeconds)
			return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
				if _, err := tx.Exec(ctx, `DELETE FROM visibility_time_bins WHERE schedule_id = $1`, scheduleID); err != nil {
					return err
				}
				for _, b := range bins {
					if _, err := tx.Exec(ctx, `
						INSERT INTO visibility_time_bins (schedule_id, bin_start_unix, bin_end_unix, visible_count)
						VALUES ($1,$2,$3,$4)`, scheduleID, b.BinStartUnix, b.BinEndUnix, b.VisibleCount); err != nil {
						return err
					}
				}
				_, err := tx.Exec(ctx, `
					INSERT INTO visibility_metadata (schedule_id, native_bin_seconds, bin_count) VALUES ($1,$2,$3)
					ON CONFLICT (schedule_id) DO UPDATE SET native_bin_seconds = EXCLUDED.native_bin_seconds, bin_count = EXCLUDED.bin_count`,
					scheduleID, binDurationSeconds, len(bins))
				return err
			})
		})
	})
}

func (s *Store) FetchVisibilityHistogramFromAnalytics(ctx context.Context, scheduleID int64, tStart, tEnd float64, targetBinDurationSeconds int) ([]analytics.TimeBin, error) {
	meta, err := s.FetchVisibilityMetadata(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	var out []analytics.TimeBin
	err = s.withRetry(ctx, "FetchVisibilityHistogramFromAnalytics", "schedule", itoa(scheduleID), func() error {
		rows, err := s.pool.Query(ctx, `
			SELECT bin_start_unix, bin_end_unix, visible_count FROM visibility_time_bins
			WHERE schedule_id = $1 AND bin_start_unix >= $2 AND bin_end_unix <= $3
			ORDER BY bin_start_unix`, scheduleID, int64(tStart), int64(tEnd))
		if err != nil {
			return err
		}
		defer rows.Close()
		var native []analytics.TimeBin
		for rows.Next() {
			var b analytics.TimeBin
			if err := rows.Scan(&b.BinStartUnix, &b.BinEndUnix, &b.VisibleCount); err != nil {
				return err
			}
			native = append(native, b)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		out = query.DownsampleTimeBins(native, meta.NativeBinSeconds, targetBinDurationSeconds)
		return nil
	})
	return out, err
}

func (s *Store) FetchVisibilityMetadata(ctx context.Context, scheduleID int64) (analytics.VisibilityMetadata, error) {
	var meta analytics.VisibilityMetadata
	err := s.withRetry(ctx, "FetchVisibilityMetadata", "schedule", itoa(scheduleID), func() error {
		meta.ScheduleID = scheduleID
		return s.pool.QueryRow(ctx, `SELECT native_bin_seconds, bin_count FROM visibility_metadata WHERE schedule_id = $1`, scheduleID).
			Scan(&meta.NativeBinSeconds, &meta.BinCount)
	})
	return meta, err
}

func (s *Store) HasVisibilityTimeBins(ctx context.Context, scheduleID int64) (bool, error) {
	var count int
	err := s.withRetry(ctx, "HasVisibilityTimeBins", "schedule", itoa(scheduleID), func() error {
		return s.pool.QueryRow(ctx, `SELECT count(*) FROM visibility_time_bins WHERE schedule_id = $1`, scheduleID).Scan(&count)
	})
	return count > 0, err
}

func (s *Store) DeleteVisibilityTimeBins(ctx context.Context, scheduleID int64) error {
	return s.withRetry(ctx, "DeleteVisibilityTimeBins", "schedule", itoa(scheduleID), func() error {
		return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, `DELETE FROM visibility_time_bins WHERE schedule_id = $1`, scheduleID); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `DELETE FROM visibility_metadata WHERE schedule_id = $1`, scheduleID)
			return err
		})
	})
}

func (s *Store) FetchGapMetrics(ctx context.Context, scheduleID int64) (analytics.GapMetrics, error) {
	blocks, err := s.GetBlocksForSchedule(ctx, scheduleID)
	if err != nil {
		return analytics.GapMetrics{}, err
	}
	var scheduledPeriods []interval.Interval
	for _, b := range blocks {
		if b.ScheduledPeriod != nil {
			scheduledPeriods = append(scheduledPeriods, *b.ScheduledPeriod)
		}
	}
	return analytics.BuildGapMetrics(scheduledPeriods), nil
}
