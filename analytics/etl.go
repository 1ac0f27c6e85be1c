package analytics

import (
	"math"
	"sort"

	"github.com/obscore/scheduler/domain"
	"github.com/obscore/scheduler/interval"
)

// BuildBlockRows derives the per-block analytics rows for a schedule,
// per spec §4.F steps 2-4. It is a pure function: repositories call it,
// then persist the result; it never touches storage itself.
func BuildBlockRows(scheduleID int64, sched *domain.Schedule) []BlockRow {
	pMin, pMax := sched.PriorityRange()
	rows := make([]BlockRow, 0, len(sched.Blocks))
	for _, b := range sched.Blocks {
		row := BlockRow{
			ScheduleID:            scheduleID,
			SchedulingBlockID:     int64(b.ID),
			OriginalBlockID:       b.OriginalBlockID,
			RADeg:                 b.Target.RADeg,
			DecDeg:                b.Target.DecDeg,
			Priority:              b.PriorityValue,
			PriorityBucket:        domain.PriorityBucket(b.PriorityValue, pMin, pMax),
			RequestedDurationSec:  b.RequestedDurS,
			MinObservationSec:    b.MinObservationS,
			MinAltDeg:             b.Constraints.MinAltDeg,
			MaxAltDeg:             b.Constraints.MaxAltDeg,
			MinAzDeg:              b.Constraints.MinAzDeg,
			MaxAzDeg:              b.Constraints.MaxAzDeg,
			IsScheduled:           b.IsScheduled(),
			TotalVisibilityHours:  b.TotalVisibilityHours(),
			VisibilityPeriodCount: len(b.VisibilityPeriods),
		}
		if b.Constraints.FixedTime != nil {
			start := float64(b.Constraints.FixedTime.Start)
			stop := float64(b.Constraints.FixedTime.End)
			row.ConstraintStartMJD = &start
			row.ConstraintStopMJD = &stop
		}
		if b.ScheduledPeriod != nil {
			start := float64(b.ScheduledPeriod.Start)
			stop := float64(b.ScheduledPeriod.End)
			row.ScheduledStartMJD = &start
			row.ScheduledStopMJD = &stop
		}
		rows = append(rows, row)
	}
	return rows
}

// BuildSummary computes schedule-wide totals, per spec §4.F.
func BuildSummary(scheduleID int64, rows []BlockRow) ScheduleSummary {
	summary := ScheduleSummary{ScheduleID: scheduleID, TotalBlocks: len(rows)}
	for _, r := range rows {
		if r.IsScheduled {
			summary.ScheduledCount++
		} else {
			summary.UnscheduledCount++
		}
		if r.TotalVisibilityHours == 0 {
			summary.ImpossibleCount++
		}
	}
	return summary
}

// nonImpossible filters rows with zero visibility hours out of interactive
// aggregations, per spec §4.F/§9 ("impossible blocks ... excluded from
// interactive aggregations by default").
func nonImpossible(rows []BlockRow) []BlockRow {
	out := make([]BlockRow, 0, len(rows))
	for _, r := range rows {
		if r.TotalVisibilityHours > 0 {
			out = append(out, r)
		}
	}
	return out
}

// BuildPriorityRateBins partitions [pMin, pMax] into nBins equal-width
// bins and reports per-bin scheduling rate, over non-impossible blocks.
func BuildPriorityRateBins(rows []BlockRow, nBins int) []PriorityRateBin {
	filtered := nonImpossible(rows)
	if len(filtered) == 0 || nBins <= 0 {
		return nil
	}
	pMin, pMax := math.Inf(1), math.Inf(-1)
	for _, r := range filtered {
		pMin = math.Min(pMin, r.Priority)
		pMax = math.Max(pMax, r.Priority)
	}
	bins := make([]PriorityRateBin, nBins)
	width := (pMax - pMin) / float64(nBins)
	for i := range bins {
		bins[i] = PriorityRateBin{
			BinIndex:    i,
			MinPriority: pMin + float64(i)*width,
			MaxPriority: pMin + float64(i+1)*width,
		}
	}
	for _, r := range filtered {
		idx := binIndex(r.Priority, pMin, pMax, nBins)
		bins[idx].Count++
		if r.IsScheduled {
			bins[idx].ScheduledCount++
		}
	}
	for i := range bins {
		if bins[i].Count > 0 {
			bins[i].ScheduledRate = float64(bins[i].ScheduledCount) / float64(bins[i].Count)
		}
	}
	return bins
}

// BuildVisibilityHistogramBins partitions total_visibility_hours into
// nBins equal-width bins over non-impossible blocks.
func BuildVisibilityHistogramBins(rows []BlockRow, nBins int) []HistogramBin {
	filtered := nonImpossible(rows)
	if len(filtered) == 0 || nBins <= 0 {
		return nil
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range filtered {
		lo = math.Min(lo, r.TotalVisibilityHours)
		hi = math.Max(hi, r.TotalVisibilityHours)
	}
	bins := make([]HistogramBin, nBins)
	width := (hi - lo) / float64(nBins)
	for i := range bins {
		bins[i] = HistogramBin{BinIndex: i, MinHours: lo + float64(i)*width, MaxHours: lo + float64(i+1)*width}
	}
	for _, r := range filtered {
		idx := binIndex(r.TotalVisibilityHours, lo, hi, nBins)
		bins[idx].Count++
	}
	return bins
}

// BuildHeatmapBins partitions (visibility hours, requested duration hours)
// into an nBins x nBins equal-width grid over non-impossible blocks.
func BuildHeatmapBins(rows []BlockRow, nBins int) []HeatmapBin {
	filtered := nonImpossible(rows)
	if len(filtered) == 0 || nBins <= 0 {
		return nil
	}
	visLo, visHi := math.Inf(1), math.Inf(-1)
	durLo, durHi := math.Inf(1), math.Inf(-1)
	for _, r := range filtered {
		visLo = math.Min(visLo, r.TotalVisibilityHours)
		visHi = math.Max(visHi, r.TotalVisibilityHours)
		durHours := r.RequestedDurationSec / 3600
		durLo = math.Min(durLo, durHours)
		durHi = math.Max(durHi, durHours)
	}
	counts := map[[2]int]int{}
	for _, r := range filtered {
		vIdx := binIndex(r.TotalVisibilityHours, visLo, visHi, nBins)
		dIdx := binIndex(r.RequestedDurationSec/3600, durLo, durHi, nBins)
		counts[[2]int{vIdx, dIdx}]++
	}
	bins := make([]HeatmapBin, 0, len(counts))
	for k, c := range counts {
		bins = append(bins, HeatmapBin{VisibilityBinIndex: k[0], DurationBinIndex: k[1], Count: c})
	}
	sort.Slice(bins, func(i, j int) bool {
		if bins[i].VisibilityBinIndex != bins[j].VisibilityBinIndex {
			return bins[i].VisibilityBinIndex < bins[j].VisibilityBinIndex
		}
		return bins[i].DurationBinIndex < bins[j].DurationBinIndex
	})
	return bins
}

// binIndex maps value in [lo, hi] to a bin in [0, nBins), clamping the
// top endpoint into the last bin (equal-width partition, last bin
// inclusive of the maximum, as spec §4.G's sky-map bins require and which
// this implementation applies uniformly across all equal-width binning).
func binIndex(value, lo, hi float64, nBins int) int {
	if hi == lo {
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

// BuildGapMetrics computes count/mean/median over the gaps between
// consecutive scheduled periods, sorted by start (spec §GLOSSARY "Gap
// metric").
func BuildGapMetrics(scheduledPeriods []interval.Interval) GapMetrics {
	sorted := interval.SortAndMerge(scheduledPeriods) // sorted by start; scheduled periods don't overlap by construction
	if len(sorted) < 2 {
		return GapMetrics{}
	}
	gaps := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gapHours := (float64(sorted[i].Start) - float64(sorted[i-1].End)) * 24
		if gapHours > 0 {
			gaps = append(gaps, gapHours)
		}
	}
	if len(gaps) == 0 {
		return GapMetrics{}
	}
	sort.Float64s(gaps)
	sum := 0.0
	for _, g := range gaps {
		sum += g
	}
	mean := sum / float64(len(gaps))
	median := gaps[len(gaps)/2]
	if len(gaps)%2 == 0 {
		median = (gaps[len(gaps)/2-1] + gaps[len(gaps)/2]) / 2
	}
	return GapMetrics{GapCount: len(gaps), MeanHours: mean, MedianHours: median}
}

// DefaultVisibilityBinSeconds is populate_visibility_time_bins' default
// bin width, per spec §4.F.
const DefaultVisibilityBinSeconds = 900

// BuildVisibilityTimeBins implements the time-histogram algorithm of spec
// §4.F: for each fixed-width bin across the schedule horizon, count the
// number of distinct blocks with at least one visibility period
// overlapping the bin.
func BuildVisibilityTimeBins(sched *domain.Schedule, binDurationSeconds int) []TimeBin {
	if binDurationSeconds <= 0 {
		binDurationSeconds = DefaultVisibilityBinSeconds
	}
	startUnix := int64(sched.SchedulePeriod.Start.ToUnix())
	endUnix := int64(sched.SchedulePeriod.End.ToUnix())

	nBins := int((endUnix-startUnix)+int64(binDurationSeconds)-1) / binDurationSeconds
	bins := make([]TimeBin, nBins)
	for i := range bins {
		bins[i] = TimeBin{
			BinStartUnix: startUnix + int64(i*binDurationSeconds),
			BinEndUnix:   startUnix + int64((i+1)*binDurationSeconds),
		}
	}

	for _, block := range sched.Blocks {
		seen := make(map[int]bool)
		for _, p := range block.VisibilityPeriods {
			pStartUnix := int64(p.Start.ToUnix())
			pEndUnix := int64(p.End.ToUnix())
			first := int((pStartUnix - startUnix) / int64(binDurationSeconds))
			if first < 0 {
				first = 0
			}
			for i := first; i < nBins; i++ {
				bStart := bins[i].BinStartUnix
				bEnd := bins[i].BinEndUnix
				if pStartUnix < bEnd && pEndUnix > bStart {
					seen[i] = true
				}
				if bStart >= pEndUnix {
					break
				}
			}
		}
		for idx := range seen {
			bins[idx].VisibleCount++
		}
	}
	return bins
}
