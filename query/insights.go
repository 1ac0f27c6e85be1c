package query

import (
	"math"
	"sort"

	"github.com/obscore/scheduler/analytics"
)

// insightsFields are the four numeric fields correlated and ranked by the
// insights view, per spec §4.G.
var insightsFields = []string{"priority", "total_visibility_hours", "requested_hours", "elevation_range_deg"}

func fieldValue(r analytics.BlockRow, field string) float64 {
	switch field {
	case "priority":
		return r.Priority
	case "total_visibility_hours":
		return r.TotalVisibilityHours
	case "requested_hours":
		return r.RequestedDurationSec / 3600
	case "elevation_range_deg":
		return r.MaxAltDeg - r.MinAltDeg
	default:
		return 0
	}
}

// InsightsMetrics holds the scalar summary metrics of the insights view.
type InsightsMetrics struct {
	TotalBlocks               int
	ScheduledCount            int
	UnscheduledCount          int
	ImpossibleCount           int
	SchedulingRate            float64
	MeanPriority              float64
	MedianPriority            float64
	MeanPriorityScheduled     float64
	MedianPriorityScheduled   float64
	MeanPriorityUnscheduled   float64
	MedianPriorityUnscheduled float64
	TotalVisibilityHours      float64
	MeanRequestedHours        float64
}

// Correlation is a Spearman rank correlation between two numeric fields.
type Correlation struct {
	FieldA string
	FieldB string
	Rho    float64
}

// TopNEntry is one ranked block in a top-N-by-field listing.
type TopNEntry struct {
	SchedulingBlockID int64
	OriginalBlockID   string
	Value             float64
}

// Conflict is a pairwise overlap between two scheduled blocks.
type Conflict struct {
	BlockAID     int64
	BlockBID     int64
	OverlapHours float64
}

// InsightsResult is the full insights dashboard DTO.
type InsightsResult struct {
	Metrics      InsightsMetrics
	Correlations []Correlation
	TopN         map[string][]TopNEntry
	Conflicts    []Conflict
}

// BuildInsights computes the insights view: summary metrics, pairwise
// Spearman correlations, top-N by field, and scheduling conflicts, per
// spec §4.G.
func BuildInsights(rows []analytics.BlockRow, topN int) InsightsResult {
	if topN <= 0 {
		topN = 10
	}
	kept, impossibleCount := nonImpossible(rows)

	return InsightsResult{
		Metrics:      computeInsightsMetrics(rows, kept, impossibleCount),
		Correlations: computeCorrelations(kept),
		TopN:         computeTopN(kept, topN),
		Conflicts:    computeConflicts(rows),
	}
}

func computeInsightsMetrics(all, kept []analytics.BlockRow, impossibleCount int) InsightsMetrics {
	var scheduled, unscheduled []analytics.BlockRow
	priorities := make([]float64, 0, len(kept))
	var totalVisHours, sumRequestedHours float64
	for _, r := range kept {
		priorities = append(priorities, r.Priority)
		totalVisHours += r.TotalVisibilityHours
		sumRequestedHours += r.RequestedDurationSec / 3600
		if r.IsScheduled {
			scheduled = append(scheduled, r)
		} else {
			unscheduled = append(unscheduled, r)
		}
	}

	overall := computeSeriesStats(priorities)
	schedStats := computeSeriesStats(priorityValues(scheduled))
	unschedStats := computeSeriesStats(priorityValues(unscheduled))

	m := InsightsMetrics{
		TotalBlocks:               len(all),
		ScheduledCount:            len(scheduled),
		UnscheduledCount:          len(unscheduled),
		ImpossibleCount:           impossibleCount,
		MeanPriority:              overall.Mean,
		MedianPriority:            overall.Median,
		MeanPriorityScheduled:     schedStats.Mean,
		MedianPriorityScheduled:   schedStats.Median,
		MeanPriorityUnscheduled:   unschedStats.Mean,
		MedianPriorityUnscheduled: unschedStats.Median,
		TotalVisibilityHours:      totalVisHours,
	}
	if len(kept) > 0 {
		m.MeanRequestedHours = sumRequestedHours / float64(len(kept))
	}
	if len(all) > 0 {
		m.SchedulingRate = float64(len(scheduled)) / float64(len(all))
	}
	return m
}

func priorityValues(rows []analytics.BlockRow) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.Priority
	}
	return out
}

func computeCorrelations(rows []analytics.BlockRow) []Correlation {
	var out []Correlation
	for i := 0; i < len(insightsFields); i++ {
		for j := i + 1; j < len(insightsFields); j++ {
			a := extractField(rows, insightsFields[i])
			b := extractField(rows, insightsFields[j])
			out = append(out, Correlation{FieldA: insightsFields[i], FieldB: insightsFields[j], Rho: spearman(a, b)})
		}
	}
	return out
}

func extractField(rows []analytics.BlockRow, field string) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = fieldValue(r, field)
	}
	return out
}

// spearman computes the Spearman rank correlation, the Pearson correlation
// of the two series' ranks (ties averaged).
func spearman(a, b []float64) float64 {
	if len(a) != len(b) || len(a) < 2 {
		return 0
	}
	return pearson(rank(a), rank(b))
}

func rank(values []float64) []float64 {
	n := len(values)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return values[idx[i]] < values[idx[j]] })

	ranks := make([]float64, n)
	i := 0
	for i < n {
		j := i
		for j+1 < n && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		avgRank := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avgRank
		}
		i = j + 1
	}
	return ranks
}

func pearson(a, b []float64) float64 {
	n := float64(len(a))
	var sumA, sumB float64
	for i := range a {
		sumA += a[i]
		sumB += b[i]
	}
	meanA, meanB := sumA/n, sumB/n

	var cov, varA, varB float64
	for i := range a {
		da, db := a[i]-meanA, b[i]-meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}

func computeTopN(rows []analytics.BlockRow, n int) map[string][]TopNEntry {
	out := make(map[string][]TopNEntry, len(insightsFields))
	for _, field := range insightsFields {
		entries := make([]TopNEntry, len(rows))
		for i, r := range rows {
			entries[i] = TopNEntry{SchedulingBlockID: r.SchedulingBlockID, OriginalBlockID: r.OriginalBlockID, Value: fieldValue(r, field)}
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Value > entries[j].Value })
		if len(entries) > n {
			entries = entries[:n]
		}
		out[field] = entries
	}
	return out
}

// computeConflicts detects, for every pair i<j of scheduled blocks, an
// overlap between their [start, stop) windows, per spec §4.G.
func computeConflicts(rows []analytics.BlockRow) []Conflict {
	var scheduled []analytics.BlockRow
	for _, r := range rows {
		if r.IsScheduled && r.ScheduledStartMJD != nil && r.ScheduledStopMJD != nil {
			scheduled = append(scheduled, r)
		}
	}

	var conflicts []Conflict
	for i := 0; i < len(scheduled); i++ {
		for j := i + 1; j < len(scheduled); j++ {
			a, b := scheduled[i], scheduled[j]
			start := math.Max(*a.ScheduledStartMJD, *b.ScheduledStartMJD)
			end := math.Min(*a.ScheduledStopMJD, *b.ScheduledStopMJD)
			if end > start {
				conflicts = append(conflicts, Conflict{
					BlockAID:     a.SchedulingBlockID,
					BlockBID:     b.SchedulingBlockID,
					OverlapHours: (end - start) * 24,
				})
			}
		}
	}
	return conflicts
}
