// Package solver defines the scheduling-algorithm boundary of spec §6:
// turning per-block visibility periods into non-overlapping scheduled
// assignments is treated as an out-of-scope, pluggable concern. This
// package ships only a no-op reference (NullSolver) and a simple greedy
// reference implementation (GreedySolver) so the rest of the module is
// exercisable without a real optimizer wired in.
package solver

import (
	"context"
	"sort"

	"github.com/obscore/scheduler/domain"
	"github.com/obscore/scheduler/interval"
)

// Algorithm names a solving strategy; opaque beyond the reference
// implementations this package ships.
type Algorithm string

const (
	AlgorithmNull   Algorithm = "null"
	AlgorithmGreedy Algorithm = "greedy"
)

// AlgorithmParams configures a solver run, per spec §6.
type AlgorithmParams struct {
	Algorithm        Algorithm
	MaxIterations    int
	TimeLimitSeconds float64
	Seed             int64
}

// Assignment is one block's chosen scheduled period.
type Assignment struct {
	BlockID domain.SchedulingBlockID
	Period  interval.Interval
}

// Result is a solver run's outcome.
type Result struct {
	Assignments []Assignment
	Unscheduled []domain.SchedulingBlockID
}

// Solver assigns non-overlapping scheduled periods to scheduling blocks
// from their precomputed visibility periods. Implementations must not
// assign a period shorter than a block's MinObservationS, and must not
// assign overlapping periods to two different blocks.
type Solver interface {
	Solve(ctx context.Context, blocks []*domain.SchedulingBlock, params AlgorithmParams) (Result, error)
}

// NullSolver assigns nothing; every block comes back unscheduled. Useful
// as a baseline and in tests that only exercise visibility/analytics.
type NullSolver struct{}

func (NullSolver) Solve(_ context.Context, blocks []*domain.SchedulingBlock, _ AlgorithmParams) (Result, error) {
	res := Result{Unscheduled: make([]domain.SchedulingBlockID, 0, len(blocks))}
	for _, b := range blocks {
		res.Unscheduled = append(res.Unscheduled, b.ID)
	}
	return res, nil
}

// GreedySolver assigns blocks to the earliest available slot within
// their visibility periods that can fit RequestedDurS (falling back to
// MinObservationS), processing blocks in descending priority order.
// It is not a canonical scheduler; it exists only to exercise the
// analytics, validation, and query layers against non-trivial,
// non-overlapping assignments.
type GreedySolver struct{}

func (GreedySolver) Solve(ctx context.Context, blocks []*domain.SchedulingBlock, _ AlgorithmParams) (Result, error) {
	ordered := make([]*domain.SchedulingBlock, len(blocks))
	copy(ordered, blocks)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].PriorityValue > ordered[j].PriorityValue })

	var busy []interval.Interval
	res := Result{}

	for _, b := range ordered {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		assigned := false
		for _, vp := range b.VisibilityPeriods {
			free := interval.Complement(vp, busy)
			for _, slot := range free {
				durDays := interval.MJD(b.RequestedDurS / 86400)
				if slot.DurationHours()*3600 < b.MinObservationS-1e-6 {
					continue
				}
				end := slot.Start + durDays
				if end > slot.End {
					end = slot.End
				}
				chosen := interval.Must(float64(slot.Start), float64(end))
				busy = append(busy, chosen)
				res.Assignments = append(res.Assignments, Assignment{BlockID: b.ID, Period: chosen})
				assigned = true
				break
			}
			if assigned {
				break
			}
		}
		if !assigned {
			res.Unscheduled = append(res.Unscheduled, b.ID)
		}
	}
	return res, nil
}
