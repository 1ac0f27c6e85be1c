// Package domain implements the schedule data model of spec §3: geographic
// location, flattened constraints, scheduling blocks, and the schedule
// aggregate, plus the boundary invariants enforced at construction time
// (spec §4.D). Parsing of the external JSON format lives in ingest.go; the
// visibility engine (which fills VisibilityPeriods and AstronomicalNights)
// lives in the sibling visibility package to avoid an import cycle — this
// package defines data only.
package domain

import (
	"fmt"
	"math"

	"github.com/obscore/scheduler/constraint"
	"github.com/obscore/scheduler/ephemeris"
	"github.com/obscore/scheduler/interval"
)

// ValidationError reports that input violated a modeled invariant (bad
// lat/lon, reversed interval, non-finite priority, ...). It is not
// retryable and never produced by internal bugs (see repository.Error for
// that taxonomy).
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func validationErrorf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// GeographicLocation is the observer's position on Earth.
type GeographicLocation struct {
	LatitudeDeg  float64
	LongitudeDeg float64
	ElevationM   float64
	// Name is an optional human-readable site name, carried through from
	// source schedules that include one; it has no behavioral significance.
	Name string
}

// NewGeographicLocation validates and constructs a GeographicLocation.
func NewGeographicLocation(lat, lon, elevationM float64, name string) (GeographicLocation, error) {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return GeographicLocation{}, validationErrorf("latitude", "must be in [-90, 90], got %v", lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return GeographicLocation{}, validationErrorf("longitude", "must be in [-180, 180], got %v", lon)
	}
	return GeographicLocation{LatitudeDeg: lat, LongitudeDeg: lon, ElevationM: elevationM, Name: name}, nil
}

// Observer adapts a GeographicLocation to the ephemeris.Observer the
// constraint algebra consumes.
func (g GeographicLocation) Observer() ephemeris.Observer {
	return ephemeris.Observer{LatitudeDeg: g.LatitudeDeg, LongitudeDeg: g.LongitudeDeg, ElevationM: g.ElevationM}
}

// FlatConstraints are the denormalized constraint bounds stored alongside
// every block (spec §3 "Constraints (flattened)").
type FlatConstraints struct {
	MinAltDeg, MaxAltDeg float64
	MinAzDeg, MaxAzDeg   float64
	FixedTime            *interval.Interval
}

// DefaultFlatConstraints returns the unconstrained defaults: alt in
// [0,90], az in [0,360], no fixed time.
func DefaultFlatConstraints() FlatConstraints {
	return FlatConstraints{MinAltDeg: 0, MaxAltDeg: 90, MinAzDeg: 0, MaxAzDeg: 360}
}

// SchedulingBlockID is the server-assigned internal identifier.
type SchedulingBlockID int64

// SchedulingBlock is an atomic observation request (spec §3).
type SchedulingBlock struct {
	ID               SchedulingBlockID
	OriginalBlockID  string
	Target           ephemeris.Target
	Constraints      FlatConstraints
	Tree             constraint.Node // optional; nil means "derive from Constraints"
	PriorityValue    float64
	MinObservationS  float64
	RequestedDurS    float64
	VisibilityPeriods []interval.Interval
	ScheduledPeriod  *interval.Interval
}

// Validate enforces the block-level invariants of spec §3: min_observation
// <= requested_duration; priority finite; if scheduled, duration meets the
// minimum and lies inside at least one visibility period.
func (b *SchedulingBlock) Validate() error {
	if math.IsNaN(b.PriorityValue) || math.IsInf(b.PriorityValue, 0) {
		return validationErrorf("priority", "must be finite, got %v", b.PriorityValue)
	}
	if b.MinObservationS > b.RequestedDurS {
		return validationErrorf("min_observation", "%.3fs exceeds requested_duration %.3fs", b.MinObservationS, b.RequestedDurS)
	}
	for i := 1; i < len(b.VisibilityPeriods); i++ {
		if b.VisibilityPeriods[i-1].End > b.VisibilityPeriods[i].Start {
			return validationErrorf("visibility_periods", "not sorted/non-overlapping at index %d", i)
		}
	}
	if b.ScheduledPeriod != nil {
		sp := *b.ScheduledPeriod
		durationS := sp.DurationHours() * 3600
		if durationS < b.MinObservationS-1e-6 {
			return validationErrorf("scheduled_period", "duration %.3fs below min_observation %.3fs", durationS, b.MinObservationS)
		}
		contained := false
		for _, vp := range b.VisibilityPeriods {
			if sp.Start >= vp.Start && sp.End <= vp.End {
				contained = true
				break
			}
		}
		if !contained {
			return validationErrorf("scheduled_period", "does not lie within any visibility period")
		}
	}
	return nil
}

// TotalVisibilityHours sums the block's visibility-period durations.
func (b *SchedulingBlock) TotalVisibilityHours() float64 {
	return interval.TotalDurationHours(b.VisibilityPeriods)
}

// IsScheduled reports whether the external solver assigned this block a
// period.
func (b *SchedulingBlock) IsScheduled() bool {
	return b.ScheduledPeriod != nil
}

// Schedule is the top-level aggregate (spec §3).
type Schedule struct {
	ID                 *int64
	Name               string
	Checksum           string
	SchedulePeriod     interval.Interval
	Location           GeographicLocation
	AstronomicalNights []interval.Interval
	DarkPeriods        []interval.Interval
	Blocks             []*SchedulingBlock
}

// Validate enforces the schedule-level invariant: every block's visibility
// periods are contained in the schedule period.
func (s *Schedule) Validate() error {
	for _, b := range s.Blocks {
		for _, vp := range b.VisibilityPeriods {
			if vp.Start < s.SchedulePeriod.Start || vp.End > s.SchedulePeriod.End {
				return validationErrorf("visibility_periods", "block %s period [%v,%v) escapes schedule_period", b.OriginalBlockID, vp.Start, vp.End)
			}
		}
	}
	return nil
}

// PriorityRange returns [min, max] priority across all blocks. If there
// are no blocks it returns (0, 0).
func (s *Schedule) PriorityRange() (minP, maxP float64) {
	if len(s.Blocks) == 0 {
		return 0, 0
	}
	minP, maxP = math.Inf(1), math.Inf(-1)
	for _, b := range s.Blocks {
		if b.PriorityValue < minP {
			minP = b.PriorityValue
		}
		if b.PriorityValue > maxP {
			maxP = b.PriorityValue
		}
	}
	return minP, maxP
}

// PriorityBucket assigns one of {1,2,3,4} per spec §4.F: quartiles of
// (priority - pMin) / (pMax - pMin), with pMax mapping to bucket 4 and a
// degenerate range (pMin == pMax) mapping everything to bucket 2.
func PriorityBucket(priority, pMin, pMax float64) int {
	if pMax == pMin {
		return 2
	}
	if priority >= pMax {
		return 4
	}
	norm := (priority - pMin) / (pMax - pMin)
	switch {
	case norm < 0.25:
		return 1
	case norm < 0.50:
		return 2
	case norm < 0.75:
		return 3
	default:
		return 4
	}
}
