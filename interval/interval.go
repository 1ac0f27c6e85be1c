// Package interval implements ordered half-open intervals and the
// Modified Julian Date time representation used throughout the
// scheduling core, per spec §4.A.
package interval

import (
	"fmt"
	"sort"
)

// MJD is a time instant expressed as fractional days since the Modified
// Julian Date epoch (1858-11-17 00:00:00 UTC).
type MJD float64

const unixEpochMJD = 40587.0
const secondsPerDay = 86400.0

// ToUnix converts an MJD instant to Unix seconds.
func (m MJD) ToUnix() float64 {
	return (float64(m) - unixEpochMJD) * secondsPerDay
}

// FromUnix constructs an MJD instant from Unix seconds.
func FromUnix(unixSeconds float64) MJD {
	return MJD(unixSeconds/secondsPerDay + unixEpochMJD)
}

// Interval is an ordered pair [Start, End) of MJD instants; the type is
// not generic over other ordered types. The zero value is not a valid
// Interval; use New.
type Interval struct {
	Start MJD
	End   MJD
}

// New constructs an Interval, failing if start is not strictly before end.
func New(start, end MJD) (Interval, error) {
	if !(start < end) {
		return Interval{}, fmt.Errorf("interval: start %v must be before end %v", start, end)
	}
	return Interval{Start: start, End: end}, nil
}

// Must is New but panics on error; for constructing literals in tests and
// internal code where the bound is already known valid.
func Must(start, end MJD) Interval {
	iv, err := New(start, end)
	if err != nil {
		panic(err)
	}
	return iv
}

// Contains reports start <= t < end.
func (iv Interval) Contains(t MJD) bool {
	return iv.Start <= t && t < iv.End
}

// Overlaps reports whether iv and other share any point.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

// Duration returns End - Start, in fractional days.
func (iv Interval) Duration() MJD {
	return iv.End - iv.Start
}

// DurationHours returns the interval's duration in hours.
func (iv Interval) DurationHours() float64 {
	return float64(iv.Duration()) * 24
}

// Clip intersects iv with bound, returning ok=false if the result would be
// empty or degenerate.
func (iv Interval) Clip(bound Interval) (Interval, bool) {
	start := maxMJD(iv.Start, bound.Start)
	end := minMJD(iv.End, bound.End)
	if !(start < end) {
		return Interval{}, false
	}
	return Interval{Start: start, End: end}, true
}

// EnumerateMonths returns every "YYYY-MM" calendar month touched by iv,
// in civil UTC, computed via the MJD->Unix conversion.
func (iv Interval) EnumerateMonths() []string {
	startT := civilFromMJD(iv.Start)
	// End is exclusive; if it lands exactly on a month boundary the last
	// instant belongs to the previous month.
	endInstant := iv.End
	if float64(endInstant) > float64(iv.Start) {
		endInstant = endInstant - MJD(1.0/secondsPerDay)
	}
	endT := civilFromMJD(endInstant)

	months := []string{}
	y, m := startT.year, startT.month
	for {
		months = append(months, fmt.Sprintf("%04d-%02d", y, m))
		if y == endT.year && m == endT.month {
			break
		}
		m++
		if m > 12 {
			m = 1
			y++
		}
		if len(months) > 1200 {
			break // safety backstop against malformed intervals
		}
	}
	return months
}

func maxMJD(a, b MJD) MJD {
	if a > b {
		return a
	}
	return b
}

func minMJD(a, b MJD) MJD {
	if a < b {
		return a
	}
	return b
}

// SortAndMerge sorts intervals by Start (ties broken by End) and coalesces
// overlapping or touching intervals, returning a non-overlapping,
// start-ordered list. It does not mutate the input slice.
func SortAndMerge(ivs []Interval) []Interval {
	if len(ivs) == 0 {
		return nil
	}
	cp := make([]Interval, len(ivs))
	copy(cp, ivs)
	sort.Slice(cp, func(i, j int) bool {
		if cp[i].Start != cp[j].Start {
			return cp[i].Start < cp[j].Start
		}
		return cp[i].End < cp[j].End
	})

	out := make([]Interval, 0, len(cp))
	cur := cp[0]
	for _, next := range cp[1:] {
		if next.Start <= cur.End {
			if next.End > cur.End {
				cur.End = next.End
			}
			continue
		}
		out = append(out, cur)
		cur = next
	}
	out = append(out, cur)
	return out
}

// Intersect returns the pairwise clip of two sorted, non-overlapping
// interval lists, itself sorted and non-overlapping.
func Intersect(a, b []Interval) []Interval {
	out := []Interval{}
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		clipped, ok := a[i].Clip(b[j])
		if ok {
			out = append(out, clipped)
		}
		if a[i].End < b[j].End {
			i++
		} else {
			j++
		}
	}
	return SortAndMerge(out)
}

// Union concatenates and coalesces two interval lists.
func Union(a, b []Interval) []Interval {
	all := make([]Interval, 0, len(a)+len(b))
	all = append(all, a...)
	all = append(all, b...)
	return SortAndMerge(all)
}

// Complement returns the gaps in ivs (assumed sorted, non-overlapping)
// within horizon: horizon \ ivs.
func Complement(horizon Interval, ivs []Interval) []Interval {
	merged := SortAndMerge(ivs)
	out := []Interval{}
	cursor := horizon.Start
	for _, iv := range merged {
		clipped, ok := iv.Clip(horizon)
		if !ok {
			continue
		}
		if clipped.Start > cursor {
			out = append(out, Interval{Start: cursor, End: clipped.Start})
		}
		if clipped.End > cursor {
			cursor = clipped.End
		}
	}
	if cursor < horizon.End {
		out = append(out, Interval{Start: cursor, End: horizon.End})
	}
	return out
}

// TotalDurationHours sums DurationHours() over a list of intervals.
func TotalDurationHours(ivs []Interval) float64 {
	total := 0.0
	for _, iv := range ivs {
		total += iv.DurationHours()
	}
	return total
}

type civilDate struct {
	year, month, day int
}

// civilFromMJD converts an MJD instant to a civil UTC date via Unix
// seconds and Howard Hinnant's civil_from_days decomposition of the
// proleptic Gregorian calendar, good for the full range MJD is used in
// by this system (modern astronomical schedules).
func civilFromMJD(m MJD) civilDate {
	unixSeconds := m.ToUnix()
	days := int64(unixSeconds / secondsPerDay)
	if unixSeconds < 0 && float64(days)*secondsPerDay != unixSeconds {
		days--
	}
	// Days since 1970-01-01, converted via civil_from_days (Howard Hinnant's
	// algorithm), a standard dependency-free date decomposition.
	z := days + 719468
	era := z
	if z < 0 {
		era = z - 146096
	}
	era /= 146097
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d := doy - (153*mp+2)/5 + 1
	mo := mp + 3
	if mp >= 10 {
		mo = mp - 9
	}
	if mo <= 2 {
		y++
	}
	return civilDate{year: int(y), month: int(mo), day: int(d)}
}
