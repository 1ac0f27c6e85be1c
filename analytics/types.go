// Package analytics implements the denormalization ETL of spec §4.F and
// the row/summary types shared by the repository and query layers.
package analytics

// BlockRow is the denormalized per-block analytics record of spec §3.
type BlockRow struct {
	ScheduleID             int64
	SchedulingBlockID      int64
	OriginalBlockID        string
	RADeg                  float64
	DecDeg                 float64
	Priority               float64
	PriorityBucket         int
	RequestedDurationSec   float64
	MinObservationSec      float64
	MinAltDeg              float64
	MaxAltDeg              float64
	MinAzDeg               float64
	MaxAzDeg               float64
	ConstraintStartMJD     *float64
	ConstraintStopMJD      *float64
	IsScheduled            bool
	ScheduledStartMJD      *float64
	ScheduledStopMJD       *float64
	TotalVisibilityHours   float64
	VisibilityPeriodCount  int
	ValidationImpossible   bool
}

// ColumnCount is the number of columns in the flat analytics row, used to
// size insert batches against the backend's bind-parameter cap (spec §4.F:
// "a batch of 95 rows x 21 columns stays within a 2100-parameter cap").
const ColumnCount = 21

// MaxBatchParams is the relational backend's bind-parameter ceiling
// assumed by spec §4.F's worked example.
const MaxBatchParams = 2100

// BatchSize is the largest number of BlockRow values that fit in one
// insert statement without exceeding MaxBatchParams.
const BatchSize = MaxBatchParams / ColumnCount // 100, but spec's worked example uses 95 for headroom; see Batches().

// Batches splits rows into chunks that respect the parameter cap, using
// the conservative 95-row chunk size named in spec §4.F so a backend that
// adds one or two implicit parameters (e.g. a generated id) never
// overflows.
func Batches(rows []BlockRow) [][]BlockRow {
	const chunk = 95
	if len(rows) == 0 {
		return nil
	}
	var out [][]BlockRow
	for i := 0; i < len(rows); i += chunk {
		end := i + chunk
		if end > len(rows) {
			end = len(rows)
		}
		out = append(out, rows[i:end])
	}
	return out
}

// ScheduleSummary is the schedule-wide summary record of spec §4.F.
type ScheduleSummary struct {
	ScheduleID       int64
	TotalBlocks      int
	ScheduledCount   int
	UnscheduledCount int
	ImpossibleCount  int
}

// PriorityRateBin is one bin of the priority-rate histogram.
type PriorityRateBin struct {
	BinIndex       int
	MinPriority    float64
	MaxPriority    float64
	Count          int
	ScheduledCount int
	ScheduledRate  float64
}

// HistogramBin is one bin of the visibility-hours histogram.
type HistogramBin struct {
	BinIndex  int
	MinHours  float64
	MaxHours  float64
	Count     int
}

// HeatmapBin is a 2-D bin over (visibility hours, requested duration hours).
type HeatmapBin struct {
	VisibilityBinIndex int
	DurationBinIndex   int
	Count              int
}

// GapMetrics summarizes the gaps between consecutive scheduled periods,
// sorted by start (spec §4.F / §GLOSSARY "Gap metric").
type GapMetrics struct {
	GapCount   int
	MeanHours  float64
	MedianHours float64
}

// TimeBin is one bucket of the visibility-over-time histogram, spec §4.F.
type TimeBin struct {
	BinStartUnix  int64
	BinEndUnix    int64
	VisibleCount  int
}

// VisibilityMetadata describes the stored fine-grained bins' native
// resolution, so callers requesting a coarser target_bin_duration know how
// much downsampling will occur.
type VisibilityMetadata struct {
	ScheduleID       int64
	NativeBinSeconds int
	BinCount         int
}
