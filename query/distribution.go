package query

import "github.com/obscore/scheduler/analytics"

// DistributionResult holds per-series statistics for the distribution
// dashboard view, per spec §4.G.
type DistributionResult struct {
	Priority              SeriesStats
	TotalVisibilityHours  SeriesStats
	RequestedHours        SeriesStats
	ImpossibleCount       int
}

// BuildDistribution computes count/mean/median/stddev/min/max/sum for
// priority, total_visibility_hours, and requested_hours, excluding
// impossible blocks (total_visibility_hours = 0), which are instead
// counted in ImpossibleCount.
func BuildDistribution(rows []analytics.BlockRow) DistributionResult {
	kept, impossibleCount := nonImpossible(rows)

	priorities := make([]float64, len(kept))
	visHours := make([]float64, len(kept))
	reqHours := make([]float64, len(kept))
	for i, r := range kept {
		priorities[i] = r.Priority
		visHours[i] = r.TotalVisibilityHours
		reqHours[i] = r.RequestedDurationSec / 3600
	}

	return DistributionResult{
		Priority:             computeSeriesStats(priorities),
		TotalVisibilityHours: computeSeriesStats(visHours),
		RequestedHours:       computeSeriesStats(reqHours),
		ImpossibleCount:      impossibleCount,
	}
}
