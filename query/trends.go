package query

import (
	"math"

	"github.com/obscore/scheduler/analytics"
)

// TrendBin is one equal-width bin of a continuous variable.
type TrendBin struct {
	BinIndex      int
	Count         int
	ScheduledRate float64
	MidValue      float64
}

// SmoothPoint is one evaluation of the Gaussian-kernel-smoothed
// scheduling-rate curve.
type SmoothPoint struct {
	X    float64
	Rate float64
}

// TrendsResult is the trends dashboard DTO for one variable.
type TrendsResult struct {
	Bins     []TrendBin
	Smoothed []SmoothPoint
	XMin     float64
	XMax     float64
}

// BuildTrends partitions field's values into nBins equal-width bins over
// [x_min, x_max] and reports count/scheduled_rate/mid_value per bin, plus
// a Gaussian-kernel-smoothed scheduling-rate curve with bandwidth
// h = bandwidth · (x_max − x_min), evaluated at nSmoothPoints equispaced
// points, per spec §4.G.
func BuildTrends(rows []analytics.BlockRow, field string, nBins int, bandwidth float64, nSmoothPoints int) TrendsResult {
	if nBins <= 0 {
		nBins = 10
	}
	if nSmoothPoints <= 0 {
		nSmoothPoints = 50
	}
	if len(rows) == 0 {
		return TrendsResult{}
	}

	xs := extractField(rows, field)
	xMin, xMax := xs[0], xs[0]
	for _, x := range xs {
		if x < xMin {
			xMin = x
		}
		if x > xMax {
			xMax = x
		}
	}
	span := xMax - xMin

	bins := make([]TrendBin, nBins)
	counts := make([]int, nBins)
	scheduledCounts := make([]int, nBins)
	for i := range bins {
		bins[i].BinIndex = i
		if span == 0 {
			bins[i].MidValue = xMin
			continue
		}
		lo := xMin + float64(i)*span/float64(nBins)
		hi := xMin + float64(i+1)*span/float64(nBins)
		bins[i].MidValue = (lo + hi) / 2
	}
	for i, r := range rows {
		idx := binIndex(xs[i], xMin, xMax, nBins)
		counts[idx]++
		if r.IsScheduled {
			scheduledCounts[idx]++
		}
	}
	for i := range bins {
		bins[i].Count = counts[i]
		if counts[i] > 0 {
			bins[i].ScheduledRate = float64(scheduledCounts[i]) / float64(counts[i])
		}
	}

	result := TrendsResult{Bins: bins, XMin: xMin, XMax: xMax}

	h := bandwidth * span
	if h <= 0 {
		return result
	}
	smoothed := make([]SmoothPoint, nSmoothPoints)
	for p := 0; p < nSmoothPoints; p++ {
		x := xMin
		if nSmoothPoints > 1 {
			x = xMin + float64(p)*span/float64(nSmoothPoints-1)
		}
		var weightedSum, weightTotal float64
		for i, xi := range xs {
			d := (xi - x) / h
			w := math.Exp(-0.5 * d * d)
			weightTotal += w
			if rows[i].IsScheduled {
				weightedSum += w
			}
		}
		if weightTotal > 0 {
			smoothed[p] = SmoothPoint{X: x, Rate: weightedSum / weightTotal}
		} else {
			smoothed[p] = SmoothPoint{X: x, Rate: 0}
		}
	}
	result.Smoothed = smoothed
	return result
}
