package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/obscore/scheduler/domain"
	"github.com/obscore/scheduler/interval"
	"github.com/obscore/scheduler/repository"
)

// StoreSchedule is idempotent with respect to checksum, per spec §4.E: a
// duplicate checksum returns the existing metadata without inserting a new
// schedule or its blocks again.
func (s *Store) StoreSchedule(ctx context.Context, sched *domain.Schedule) (repository.ScheduleMetadata, error) {
	var meta repository.ScheduleMetadata
	err := s.withRetry(ctx, "StoreSchedule", "schedule", sched.Checksum, func() error {
		return s.withWriteLock(hashChecksum(sched.Checksum), func() error {
			return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
				var existingID int64
				err := tx.QueryRow(ctx, `SELECT schedule_id FROM schedules WHERE checksum = $1`, sched.Checksum).Scan(&existingID)
				if err == nil {
					sched.ID = &existingID
					meta = repository.ScheduleMetadata{ID: existingID, Name: sched.Name, Checksum: sched.Checksum, SchedulePeriod: sched.SchedulePeriod}
					return nil
				}
				if err != pgx.ErrNoRows {
					return err
				}

				var id int64
				err = tx.QueryRow(ctx, `
					INSERT INTO schedules (name, checksum, period_start_mjd, period_end_mjd, latitude_deg, longitude_deg, elevation_m, location_name)
					VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING schedule_id`,
					sched.Name, sched.Checksum, float64(sched.SchedulePeriod.Start), float64(sched.SchedulePeriod.End),
					sched.Location.LatitudeDeg, sched.Location.LongitudeDeg, sched.Location.ElevationM, sched.Location.Name,
				).Scan(&id)
				if err != nil {
					return err
				}

				for i, b := range sched.Blocks {
					b.ID = domain.SchedulingBlockID(i + 1)
					if err := insertBlock(ctx, tx, id, b); err != nil {
						return err
					}
				}
				for _, dp := range sched.DarkPeriods {
					if _, err := tx.Exec(ctx, `INSERT INTO dark_periods (schedule_id, start_mjd, end_mjd) VALUES ($1,$2,$3)`,
						id, float64(dp.Start), float64(dp.End)); err != nil {
						return err
					}
				}

				sched.ID = &id
				meta = repository.ScheduleMetadata{ID: id, Name: sched.Name, Checksum: sched.Checksum, SchedulePeriod: sched.SchedulePeriod}
				return nil
			})
		})
	})
	return meta, err
}

func insertBlock(ctx context.Context, tx pgx.Tx, scheduleID int64, b *domain.SchedulingBlock) error {
	var scheduledStart, scheduledStop *float64
	if b.ScheduledPeriod != nil {
		start := float64(b.ScheduledPeriod.Start)
		stop := float64(b.ScheduledPeriod.End)
		scheduledStart, scheduledStop = &start, &stop
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO scheduling_blocks (schedule_id, scheduling_block_id, original_block_id, priority, min_observation_sec, requested_duration_sec, scheduled_start_mjd, scheduled_stop_mjd)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		scheduleID, int64(b.ID), b.OriginalBlockID, b.PriorityValue, b.MinObservationS, b.RequestedDurS, scheduledStart, scheduledStop); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO targets (schedule_id, scheduling_block_id, ra_deg, dec_deg) VALUES ($1,$2,$3,$4)`,
		scheduleID, int64(b.ID), b.Target.RADeg, b.Target.DecDeg); err != nil {
		return err
	}
	var fixedStart, fixedStop *float64
	if b.Constraints.FixedTime != nil {
		start := float64(b.Constraints.FixedTime.Start)
		stop := float64(b.Constraints.FixedTime.End)
		fixedStart, fixedStop = &start, &stop
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO constraints (schedule_id, scheduling_block_id, min_alt_deg, max_alt_deg, min_az_deg, max_az_deg, fixed_start_mjd, fixed_end_mjd)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		scheduleID, int64(b.ID), b.Constraints.MinAltDeg, b.Constraints.MaxAltDeg, b.Constraints.MinAzDeg, b.Constraints.MaxAzDeg, fixedStart, fixedStop)
	return err
}

func (s *Store) GetSchedule(ctx context.Context, id int64) (*domain.Schedule, error) {
	var sched domain.Schedule
	var periodStart, periodEnd float64
	err := s.withRetry(ctx, "GetSchedule", "schedule", itoa(id), func() error {
		row := s.pool.QueryRow(ctx, `
			SELECT name, checksum, period_start_mjd, period_end_mjd, latitude_deg, longitude_deg, elevation_m, location_name
			FROM schedules WHERE schedule_id = $1`, id)
		return row.Scan(&sched.Name, &sched.Checksum, &periodStart, &periodEnd,
			&sched.Location.LatitudeDeg, &sched.Location.LongitudeDeg, &sched.Location.ElevationM, &sched.Location.Name)
	})
	if err != nil {
		return nil, err
	}
	sched.ID = &id
	sched.SchedulePeriod = interval.Must(periodStart, periodEnd)

	blocks, err := s.GetBlocksForSchedule(ctx, id)
	if err != nil {
		return nil, err
	}
	sched.Blocks = blocks

	darkPeriods, err := s.FetchDarkPeriods(ctx, id)
	if err != nil {
		return nil, err
	}
	sched.DarkPeriods = darkPeriods

	return &sched, nil
}

func (s *Store) ListSchedules(ctx context.Context) ([]repository.ScheduleMetadata, error) {
	var out []repository.ScheduleMetadata
	err := s.withRetry(ctx, "ListSchedules", "schedule", "", func() error {
		rows, err := s.pool.Query(ctx, `SELECT schedule_id, name, checksum, period_start_mjd, period_end_mjd FROM schedules ORDER BY schedule_id`)
		if err != nil {
			return err
		}
		defer rows.Close()
		out = nil
		for rows.Next() {
			var m repository.ScheduleMetadata
			var start, end float64
			if err := rows.Scan(&m.ID, &m.Name, &m.Checksum, &start, &end); err != nil {
				return err
			}
			m.SchedulePeriod = interval.Must(start, end)
			out = append(out, m)
		}
		return rows.Err()
	})
	return out, err
}

func (s *Store) GetScheduleTimeRange(ctx context.Context, id int64) (interval.Interval, error) {
	var start, end float64
	err := s.withRetry(ctx, "GetScheduleTimeRange", "schedule", itoa(id), func() error {
		return s.pool.QueryRow(ctx, `SELECT period_start_mjd, period_end_mjd FROM schedules WHERE schedule_id = $1`, id).Scan(&start, &end)
	})
	if err != nil {
		return interval.Interval{}, err
	}
	return interval.Must(start, end), nil
}

func hashChecksum(checksum string) int64 {
	var h int64
	for _, c := range checksum {
		h = h*31 + int64(c)
	}
	if h < 0 {
		h = -h
	}
	return h
}
