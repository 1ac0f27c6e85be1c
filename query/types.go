// Package query implements the dashboard analytics services of spec §4.G:
// pure functions mapping analytics rows to dashboard DTOs. None of these
// functions reach into schedule storage; callers fetch the relevant
// analytics.BlockRow slice from a repository.Repository first.
package query

import (
	"math"
	"sort"

	"github.com/obscore/scheduler/analytics"
)

// SeriesStats summarizes one numeric series: count, mean, median, the
// population standard deviation σ = √(Σ(x−μ)²/n), min, max, and sum.
type SeriesStats struct {
	Count  int
	Mean   float64
	Median float64
	StdDev float64
	Min    float64
	Max    float64
	Sum    float64
}

func computeSeriesStats(values []float64) SeriesStats {
	n := len(values)
	if n == 0 {
		return SeriesStats{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)

	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}

	return SeriesStats{
		Count:  n,
		Mean:   mean,
		Median: median(sorted),
		StdDev: math.Sqrt(sumSq / float64(n)),
		Min:    sorted[0],
		Max:    sorted[n-1],
		Sum:    sum,
	}
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// binIndex maps value into one of nBins equal-width bins over [lo, hi],
// with the last bin inclusive of hi.
func binIndex(value, lo, hi float64, nBins int) int {
	if hi == lo || nBins <= 1 {
		return 0
	}
	idx := int((value - lo) / (hi - lo) * float64(nBins))
	if idx >= nBins {
		idx = nBins - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// nonImpossible filters out blocks with zero total visibility hours, per
// spec §4.G's "excluded from interactive aggregations by default" rule,
// and reports how many were dropped.
func nonImpossible(rows []analytics.BlockRow) (kept []analytics.BlockRow, impossibleCount int) {
	kept = make([]analytics.BlockRow, 0, len(rows))
	for _, r := range rows {
		if r.TotalVisibilityHours == 0 {
			impossibleCount++
			continue
		}
		kept = append(kept, r)
	}
	return kept, impossibleCount
}

// FilterBlockRows narrows rows to an optional priority range and/or block
// id subset, for callers that need to scope a query before handing rows to
// one of this package's builders. A zero priorityMin/priorityMax (both 0)
// or a nil blockIDs disables that filter.
func FilterBlockRows(rows []analytics.BlockRow, priorityMin, priorityMax float64, blockIDs []int64) []analytics.BlockRow {
	var idSet map[int64]bool
	if len(blockIDs) > 0 {
		idSet = make(map[int64]bool, len(blockIDs))
		for _, id := range blockIDs {
			idSet[id] = true
		}
	}
	hasPriorityRange := priorityMin != 0 || priorityMax != 0
	out := make([]analytics.BlockRow, 0, len(rows))
	for _, r := range rows {
		if hasPriorityRange && (r.Priority < priorityMin || r.Priority > priorityMax) {
			continue
		}
		if idSet != nil && !idSet[r.SchedulingBlockID] {
			continue
		}
		out = append(out, r)
	}
	return out
}
