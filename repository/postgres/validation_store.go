package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/obscore/scheduler/domain"
	"github.com/obscore/scheduler/validation"
)

// InsertValidationResults replaces the stored validation audit for a
// schedule with the given results, per spec §4.H. An empty/nil slice
// clears any existing rows without inserting replacements.
func (s *Store) InsertValidationResults(ctx context.Context, scheduleID int64, results []validation.Result) error {
	return s.withRetry(ctx, "InsertValidationResults", "schedule", itoa(scheduleID), func() error {
		return s.withWriteLock(scheduleID, func() error {
			return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
				if _, err := tx.Exec(ctx, `DELETE FROM schedule_validation_results WHERE schedule_id = $1`, scheduleID); err != nil {
					return err
				}
				batch := &pgx.Batch{}
				for _, r := range results {
					batch.Queue(`
						INSERT INTO schedule_validation_results
							(schedule_id, scheduling_block_id, status, issue_type, category, criticality, field_name, current_value, expected_value, description)
						VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
						r.ScheduleID, int64(r.SchedulingBlockID), string(r.Status), r.IssueType, r.Category, string(r.Criticality),
						r.FieldName, r.CurrentValue, r.ExpectedValue, r.Description)
				}
				if batch.Len() == 0 {
					return nil
				}
				br := tx.SendBatch(ctx, batch)
				defer br.Close()
				for range results {
					if _, err := br.Exec(); err != nil {
						return err
					}
				}
				return nil
			})
		})
	})
}

func (s *Store) FetchValidationResults(ctx context.Context, scheduleID int64) ([]validation.Result, error) {
	var out []validation.Result
	err := s.withRetry(ctx, "FetchValidationResults", "schedule", itoa(scheduleID), func() error {
		rows, err := s.pool.Query(ctx, `
			SELECT schedule_id, scheduling_block_id, status, issue_type, category, criticality, field_name, current_value, expected_value, description
			FROM schedule_validation_results WHERE schedule_id = $1 ORDER BY scheduling_block_id`, scheduleID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out = nil
		for rows.Next() {
			var r validation.Result
			var blockID int64
			var status, criticality string
			if err := rows.Scan(&r.ScheduleID, &blockID, &status, &r.IssueType, &r.Category, &criticality,
				&r.FieldName, &r.CurrentValue, &r.ExpectedValue, &r.Description); err != nil {
				return err
			}
			r.SchedulingBlockID = domain.SchedulingBlockID(blockID)
			r.Status = validation.Status(status)
			r.Criticality = validation.Criticality(criticality)
			out = append(out, r)
		}
		return rows.Err()
	})
	return out, err
}

func (s *Store) HasValidationResults(ctx context.Context, scheduleID int64) (bool, error) {
	var count int
	err := s.withRetry(ctx, "HasValidationResults", "schedule", itoa(scheduleID), func() error {
		return s.pool.QueryRow(ctx, `SELECT count(*) FROM schedule_validation_results WHERE schedule_id = $1`, scheduleID).Scan(&count)
	})
	return count > 0, err
}

func (s *Store) DeleteValidationResults(ctx context.Context, scheduleID int64) error {
	return s.withRetry(ctx, "DeleteValidationResults", "schedule", itoa(scheduleID), func() error {
		_, err := s.pool.Exec(ctx, `DELETE FROM schedule_validation_results WHERE schedule_id = $1`, scheduleID)
		return err
	})
}
