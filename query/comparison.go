package query

import "github.com/obscore/scheduler/analytics"

// ChangeTag labels how a block's scheduled status differs between the
// comparison set and the current set.
type ChangeTag string

const (
	ChangeNewlyScheduled   ChangeTag = "newly_scheduled"
	ChangeNewlyUnscheduled ChangeTag = "newly_unscheduled"
)

// BlockChange is one common block whose scheduled status changed between
// current and comparison.
type BlockChange struct {
	SchedulingBlockID int64
	Change            ChangeTag
}

// SideStats summarizes one side of a comparison.
type SideStats struct {
	Count          int
	TotalHours     float64
	MeanPriority   float64
	MedianPriority float64
}

// ComparisonResult is the comparison dashboard DTO.
type ComparisonResult struct {
	OnlyInCurrent    []int64
	OnlyInComparison []int64
	CommonIDs        []int64
	Changes          []BlockChange
	CurrentStats     SideStats
	ComparisonStats  SideStats
}

// BuildComparison diffs two block sets keyed by scheduling_block_id. A
// common id's change tag reflects what happened going from current to
// comparison: scheduled in current but not in comparison is
// newly_unscheduled; unscheduled in current but scheduled in comparison is
// newly_scheduled. Per spec §4.G.
func BuildComparison(current, comparison []analytics.BlockRow) ComparisonResult {
	curByID := indexByBlockID(current)
	cmpByID := indexByBlockID(comparison)

	var result ComparisonResult
	for id := range curByID {
		if _, ok := cmpByID[id]; !ok {
			result.OnlyInCurrent = append(result.OnlyInCurrent, id)
		}
	}
	for id := range cmpByID {
		if _, ok := curByID[id]; !ok {
			result.OnlyInComparison = append(result.OnlyInComparison, id)
		}
	}
	for id, curRow := range curByID {
		cmpRow, ok := cmpByID[id]
		if !ok {
			continue
		}
		result.CommonIDs = append(result.CommonIDs, id)
		switch {
		case curRow.IsScheduled && !cmpRow.IsScheduled:
			result.Changes = append(result.Changes, BlockChange{SchedulingBlockID: id, Change: ChangeNewlyUnscheduled})
		case !curRow.IsScheduled && cmpRow.IsScheduled:
			result.Changes = append(result.Changes, BlockChange{SchedulingBlockID: id, Change: ChangeNewlyScheduled})
		}
	}

	result.CurrentStats = sideStats(current)
	result.ComparisonStats = sideStats(comparison)
	return result
}

func indexByBlockID(rows []analytics.BlockRow) map[int64]analytics.BlockRow {
	m := make(map[int64]analytics.BlockRow, len(rows))
	for _, r := range rows {
		m[r.SchedulingBlockID] = r
	}
	return m
}

func sideStats(rows []analytics.BlockRow) SideStats {
	var totalHours float64
	priorities := make([]float64, len(rows))
	for i, r := range rows {
		totalHours += r.TotalVisibilityHours
		priorities[i] = r.Priority
	}
	stats := computeSeriesStats(priorities)
	return SideStats{
		Count:          len(rows),
		TotalHours:     totalHours,
		MeanPriority:   stats.Mean,
		MedianPriority: stats.Median,
	}
}
