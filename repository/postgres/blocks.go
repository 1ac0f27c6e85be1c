package postgres

import (
	"context"

	"github.com/obscore/scheduler/domain"
	"github.com/obscore/scheduler/interval"
	"github.com/obscore/scheduler/repository"
)

func (s *Store) GetSchedulingBlock(ctx context.Context, scheduleID int64, blockID domain.SchedulingBlockID) (*domain.SchedulingBlock, error) {
	var b domain.SchedulingBlock
	var scheduledStart, scheduledStop *float64
	var fixedStart, fixedStop *float64
	err := s.withRetry(ctx, "GetSchedulingBlock", "scheduling_block", itoa(int64(blockID)), func() error {
		return s.pool.QueryRow(ctx, `
			SELECT sb.original_block_id, sb.priority, sb.min_observation_sec, sb.requested_duration_sec,
			       sb.scheduled_start_mjd, sb.scheduled_stop_mjd,
			       t.ra_deg, t.dec_deg,
			       c.min_alt_deg, c.max_alt_deg, c.min_az_deg, c.max_az_deg, c.fixed_start_mjd, c.fixed_end_mjd
			FROM scheduling_blocks sb
			JOIN targets t ON t.schedule_id = sb.schedule_id AND t.scheduling_block_id = sb.scheduling_block_id
			JOIN constraints c ON c.schedule_id = sb.schedule_id AND c.scheduling_block_id = sb.scheduling_block_id
			WHERE sb.schedule_id = $1 AND sb.scheduling_block_id = $2`,
			scheduleID, int64(blockID)).Scan(
			&b.OriginalBlockID, &b.PriorityValue, &b.MinObservationS, &b.RequestedDurS,
			&scheduledStart, &scheduledStop,
			&b.Target.RADeg, &b.Target.DecDeg,
			&b.Constraints.MinAltDeg, &b.Constraints.MaxAltDeg, &b.Constraints.MinAzDeg, &b.Constraints.MaxAzDeg,
			&fixedStart, &fixedStop)
	})
	if err != nil {
		return nil, err
	}
	b.ID = blockID
	applyOptionalPeriods(&b, scheduledStart, scheduledStop, fixedStart, fixedStop)
	return &b, nil
}

func applyOptionalPeriods(b *domain.SchedulingBlock, scheduledStart, scheduledStop, fixedStart, fixedStop *float64) {
	if scheduledStart != nil && scheduledStop != nil {
		p := interval.Must(*scheduledStart, *scheduledStop)
		b.ScheduledPeriod = &p
	}
	if fixedStart != nil && fixedStop != nil {
		p := interval.Must(*fixedStart, *fixedStop)
		b.Constraints.FixedTime = &p
	}
}

func (s *Store) GetBlocksForSchedule(ctx context.Context, scheduleID int64) ([]*domain.SchedulingBlock, error) {
	var out []*domain.SchedulingBlock
	err := s.withRetry(ctx, "GetBlocksForSchedule", "schedule", itoa(scheduleID), func() error {
		rows, err := s.pool.Query(ctx, `
			SELECT sb.scheduling_block_id, sb.original_block_id, sb.priority, sb.min_observation_sec, sb.requested_duration_sec,
			       sb.scheduled_start_mjd, sb.scheduled_stop_mjd,
			       t.ra_deg, t.dec_deg,
			       c.min_alt_deg, c.max_alt_deg, c.min_az_deg, c.max_az_deg, c.fixed_start_mjd, c.fixed_end_mjd
			FROM scheduling_blocks sb
			JOIN targets t ON t.schedule_id = sb.schedule_id AND t.scheduling_block_id = sb.scheduling_block_id
			JOIN constraints c ON c.schedule_id = sb.schedule_id AND c.scheduling_block_id = sb.scheduling_block_id
			WHERE sb.schedule_id = $1
			ORDER BY sb.scheduling_block_id`, scheduleID)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = nil
		for rows.Next() {
			var b domain.SchedulingBlock
			var blockID int64
			var scheduledStart, scheduledStop, fixedStart, fixedStop *float64
			if err := rows.Scan(&blockID, &b.OriginalBlockID, &b.PriorityValue, &b.MinObservationS, &b.RequestedDurS,
				&scheduledStart, &scheduledStop, &b.Target.RADeg, &b.Target.DecDeg,
				&b.Constraints.MinAltDeg, &b.Constraints.MaxAltDeg, &b.Constraints.MinAzDeg, &b.Constraints.MaxAzDeg,
				&fixedStart, &fixedStop); err != nil {
				return err
			}
			b.ID = domain.SchedulingBlockID(blockID)
			applyOptionalPeriods(&b, scheduledStart, scheduledStop, fixedStart, fixedStop)
			out = append(out, &b)
		}
		return rows.Err()
	})
	return out, err
}

func (s *Store) FetchDarkPeriods(ctx context.Context, scheduleID int64) ([]interval.Interval, error) {
	var out []interval.Interval
	err := s.withRetry(ctx, "FetchDarkPeriods", "schedule", itoa(scheduleID), func() error {
		rows, err := s.pool.Query(ctx, `SELECT start_mjd, end_mjd FROM dark_periods WHERE schedule_id = $1 ORDER BY start_mjd`, scheduleID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out = nil
		for rows.Next() {
			var start, end float64
			if err := rows.Scan(&start, &end); err != nil {
				return err
			}
			out = append(out, interval.Must(start, end))
		}
		return rows.Err()
	})
	return out, err
}

// FetchPossiblePeriods is not implemented by the Postgres backend: raw
// visibility periods are not persisted (only their aggregate hours/count,
// in schedule_blocks_analytics), so recomputing the union requires the
// visibility engine and an ephemeris provider, which belong to the
// service layer, not the repository. Callers needing this should fetch
// the schedule's blocks and run the visibility engine themselves.
func (s *Store) FetchPossiblePeriods(_ context.Context, scheduleID int64) ([]interval.Interval, error) {
	return nil, repository.NewConfigurationError("FetchPossiblePeriods", "schedule", "visibility periods are not persisted by the postgres backend")
}
