// Package constraint implements the tagged constraint-expression tree and
// interval-arithmetic combinators of spec §4.B. Leaves evaluate geometric
// or temporal predicates against an ephemeris.Provider; composites combine
// child interval sets via intersection, union, or complement.
package constraint

import (
	"math"

	"github.com/obscore/scheduler/ephemeris"
	"github.com/obscore/scheduler/interval"
)

// stepSize is the fixed sampling step used for crossing detection, per
// spec §4.B ("e.g. 1 minute").
const stepSize = interval.MJD(1.0 / 1440.0)

// timeTolerance is the bisection refinement tolerance in days (<=1s, spec §9).
const timeTolerance = interval.MJD(1.0 / 86400.0)

// Node is implemented by every leaf and composite in the constraint tree.
type Node interface {
	// ComputeIntervals evaluates the node over horizon, returning a sorted,
	// non-overlapping period list.
	ComputeIntervals(horizon interval.Interval, provider ephemeris.Provider) []interval.Interval
}

// ─── Leaves ──────────────────────────────────────────────────

// Altitude is satisfied where the target's altitude lies in [Min, Max].
type Altitude struct {
	Min, Max float64
	Target   ephemeris.Target
	Observer ephemeris.Observer
}

func (a Altitude) ComputeIntervals(horizon interval.Interval, provider ephemeris.Provider) []interval.Interval {
	return scan(horizon, func(t interval.MJD) bool {
		alt := provider.TargetAltitudeDeg(t, a.Observer, a.Target)
		if math.IsNaN(alt) {
			return false
		}
		return alt >= a.Min && alt <= a.Max
	})
}

// Azimuth is satisfied where the target's azimuth lies in [Min, Max]. When
// Min > Max the range wraps through north (0/360), per spec §4.B.
type Azimuth struct {
	Min, Max float64
	Target   ephemeris.Target
	Observer ephemeris.Observer
}

func (a Azimuth) ComputeIntervals(horizon interval.Interval, provider ephemeris.Provider) []interval.Interval {
	wraps := a.Min > a.Max
	return scan(horizon, func(t interval.MJD) bool {
		az := provider.TargetAzimuthDeg(t, a.Observer, a.Target)
		if math.IsNaN(az) {
			return false
		}
		if wraps {
			return az >= a.Min || az <= a.Max
		}
		return az >= a.Min && az <= a.Max
	})
}

// Nighttime is satisfied where the Sun's altitude is below -18 degrees
// (astronomical twilight).
type Nighttime struct {
	Observer ephemeris.Observer
}

const astronomicalTwilightDeg = -18.0

func (n Nighttime) ComputeIntervals(horizon interval.Interval, provider ephemeris.Provider) []interval.Interval {
	return scan(horizon, func(t interval.MJD) bool {
		return provider.SunAltitudeDeg(t, n.Observer) < astronomicalTwilightDeg
	})
}

// MoonAltitude is satisfied where the Moon's altitude lies in [Min, Max].
type MoonAltitude struct {
	Min, Max float64
	Observer ephemeris.Observer
}

func (m MoonAltitude) ComputeIntervals(horizon interval.Interval, provider ephemeris.Provider) []interval.Interval {
	return scan(horizon, func(t interval.MJD) bool {
		alt := provider.MoonAltitudeDeg(t, m.Observer)
		if math.IsNaN(alt) {
			return false
		}
		return alt >= m.Min && alt <= m.Max
	})
}

// FixedInterval is satisfied identically over [Start, End), clipped to the
// evaluation horizon.
type FixedInterval struct {
	Start, End interval.MJD
}

func (f FixedInterval) ComputeIntervals(horizon interval.Interval, _ ephemeris.Provider) []interval.Interval {
	iv, err := interval.New(f.Start, f.End)
	if err != nil {
		return nil
	}
	clipped, ok := iv.Clip(horizon)
	if !ok {
		return nil
	}
	return []interval.Interval{clipped}
}

// ─── Combinators ─────────────────────────────────────────────

// Intersection evaluates AND: the period list is the pairwise intersection
// of every child's intervals.
type Intersection struct {
	Children []Node
}

func (i Intersection) ComputeIntervals(horizon interval.Interval, provider ephemeris.Provider) []interval.Interval {
	if len(i.Children) == 0 {
		return []interval.Interval{horizon}
	}
	result := i.Children[0].ComputeIntervals(horizon, provider)
	for _, child := range i.Children[1:] {
		result = interval.Intersect(result, child.ComputeIntervals(horizon, provider))
		if len(result) == 0 {
			break
		}
	}
	return result
}

// Union evaluates OR: concatenation of every child's intervals, coalesced.
type Union struct {
	Children []Node
}

func (u Union) ComputeIntervals(horizon interval.Interval, provider ephemeris.Provider) []interval.Interval {
	var all []interval.Interval
	for _, child := range u.Children {
		all = append(all, child.ComputeIntervals(horizon, provider)...)
	}
	return interval.SortAndMerge(all)
}

// Not evaluates the complement of Child within horizon.
type Not struct {
	Child Node
}

func (n Not) ComputeIntervals(horizon interval.Interval, provider ephemeris.Provider) []interval.Interval {
	return interval.Complement(horizon, n.Child.ComputeIntervals(horizon, provider))
}

// ─── Crossing detection ──────────────────────────────────────

// scan samples predicate at a fixed step across horizon, refines each
// crossing to timeTolerance by bisection, and returns the sorted,
// non-overlapping intervals where predicate holds. Bisection is capped at
// 64 halvings and always yields the midpoint of its final bracket; scan
// makes no divergence check, so every detected crossing is kept at that
// point and no window is replaced by an empty period or an error.
func scan(horizon interval.Interval, predicate func(interval.MJD) bool) []interval.Interval {
	if horizon.End <= horizon.Start {
		return nil
	}

	var out []interval.Interval
	t := horizon.Start
	prev := predicate(t)
	var segStart interval.MJD
	inSeg := prev
	if inSeg {
		segStart = t
	}

	for t < horizon.End {
		next := t + stepSize
		if next > horizon.End {
			next = horizon.End
		}
		cur := predicate(next)

		if cur != prev {
			boundary := refineCrossing(t, next, prev, predicate)
			if cur && !inSeg {
				segStart = boundary
				inSeg = true
			} else if !cur && inSeg {
				if boundary > segStart {
					out = append(out, interval.Interval{Start: segStart, End: boundary})
				}
				inSeg = false
			}
		}

		prev = cur
		t = next
		if t >= horizon.End {
			break
		}
	}

	if inSeg && horizon.End > segStart {
		out = append(out, interval.Interval{Start: segStart, End: horizon.End})
	}

	return interval.SortAndMerge(out)
}

// refineCrossing bisects [lo, hi] (predicate(lo) == loVal, predicate(hi) ==
// !loVal) down to timeTolerance, returning the boundary point.
func refineCrossing(lo, hi interval.MJD, loVal bool, predicate func(interval.MJD) bool) interval.MJD {
	const maxIterations = 64
	for i := 0; i < maxIterations && hi-lo > timeTolerance; i++ {
		mid := lo + (hi-lo)/2
		if predicate(mid) == loVal {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo + (hi-lo)/2
}
