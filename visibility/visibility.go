// Package visibility implements the visibility-period engine of spec §4.C:
// building a per-block constraint tree, evaluating it over the schedule
// horizon, and merging block-level periods into a schedule-wide union. It
// also computes a schedule's astronomical nights once per EvaluateSchedule
// and stores them on the schedule; the Nighttime leaf does not read those
// stored nights but evaluates the Sun altitude itself.
package visibility

import (
	"github.com/obscore/scheduler/constraint"
	"github.com/obscore/scheduler/domain"
	"github.com/obscore/scheduler/ephemeris"
	"github.com/obscore/scheduler/interval"
)

// Engine evaluates constraint trees against an ephemeris.Provider.
type Engine struct {
	Provider ephemeris.Provider
}

// NewEngine constructs a visibility Engine bound to provider.
func NewEngine(provider ephemeris.Provider) *Engine {
	return &Engine{Provider: provider}
}

// BuildTree constructs the per-block constraint tree described in spec
// §4.C step 1: Nighttime is always included; Altitude always included;
// Azimuth included only when its bounds are non-default; a FixedInterval
// leaf is included when the block specifies a fixed observing window.
// Combined by Intersection. If the block already carries an explicit
// Tree (set to preserve an accurate recomputation per spec §3), that tree
// is used unchanged instead.
func BuildTree(block *domain.SchedulingBlock, observer ephemeris.Observer) constraint.Node {
	if block.Tree != nil {
		return block.Tree
	}

	children := []constraint.Node{
		constraint.Nighttime{Observer: observer},
		constraint.Altitude{
			Min: block.Constraints.MinAltDeg, Max: block.Constraints.MaxAltDeg,
			Target: block.Target, Observer: observer,
		},
	}
	c := block.Constraints
	if c.MinAzDeg > 0 || c.MaxAzDeg < 360 {
		children = append(children, constraint.Azimuth{
			Min: c.MinAzDeg, Max: c.MaxAzDeg, Target: block.Target, Observer: observer,
		})
	}
	if c.FixedTime != nil {
		children = append(children, constraint.FixedInterval{Start: c.FixedTime.Start, End: c.FixedTime.End})
	}
	return constraint.Intersection{Children: children}
}

// EvaluateBlock runs the per-block algorithm (spec §4.C steps 1-3),
// assigning the result to block.VisibilityPeriods and also returning it.
func (e *Engine) EvaluateBlock(block *domain.SchedulingBlock, horizon interval.Interval, observer ephemeris.Observer) []interval.Interval {
	tree := BuildTree(block, observer)
	periods := tree.ComputeIntervals(horizon, e.Provider)
	block.VisibilityPeriods = periods
	return periods
}

// EvaluateSchedule runs EvaluateBlock for every block in sched and
// populates sched.AstronomicalNights via AstronomicalNights, in line with
// spec §4.D's construction sequence.
func (e *Engine) EvaluateSchedule(sched *domain.Schedule) {
	observer := sched.Location.Observer()
	sched.AstronomicalNights = e.AstronomicalNights(sched.SchedulePeriod, observer)
	for _, block := range sched.Blocks {
		e.EvaluateBlock(block, sched.SchedulePeriod, observer)
	}
}

// AstronomicalNights computes the Sun-altitude-below-threshold periods
// over horizon for observer, the same periods a Nighttime leaf yields over
// that horizon (spec §4.C). It recomputes on every call; EvaluateSchedule
// stores its result in sched.AstronomicalNights.
func (e *Engine) AstronomicalNights(horizon interval.Interval, observer ephemeris.Observer) []interval.Interval {
	node := constraint.Nighttime{Observer: observer}
	return node.ComputeIntervals(horizon, e.Provider)
}

// UnionAcrossBlocks computes the schedule-wide "any target observable"
// window set: every block's visibility periods flattened, sorted, and
// coalesced (spec §4.C "compute_possible_periods_union").
func UnionAcrossBlocks(blocks []*domain.SchedulingBlock) []interval.Interval {
	var all []interval.Interval
	for _, b := range blocks {
		all = append(all, b.VisibilityPeriods...)
	}
	return interval.SortAndMerge(all)
}
