// Package repository defines the storage-backend-agnostic contract of
// spec §4.E: a uniform capability surface for schedule lifecycle, block
// access, analytics, and validation storage, plus the error taxonomy of
// spec §7. Concrete backends live in the memory and postgres
// subpackages.
package repository

import (
	"context"
	"fmt"

	"github.com/obscore/scheduler/analytics"
	"github.com/obscore/scheduler/domain"
	"github.com/obscore/scheduler/interval"
	"github.com/obscore/scheduler/validation"
)

// Kind classifies an Error per the taxonomy of spec §7.
type Kind int

const (
	KindConnection Kind = iota
	KindTimeout
	KindQuerySerialization
	KindQueryOther
	KindNotFound
	KindValidation
	KindConfiguration
	KindTransaction
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "ConnectionError"
	case KindTimeout:
		return "TimeoutError"
	case KindQuerySerialization:
		return "QueryError(serialization)"
	case KindQueryOther:
		return "QueryError"
	case KindNotFound:
		return "NotFound"
	case KindValidation:
		return "ValidationError"
	case KindConfiguration:
		return "ConfigurationError"
	case KindTransaction:
		return "TransactionError"
	default:
		return "InternalError"
	}
}

// Error is the structured failure type every repository operation returns,
// carrying the diagnostic context spec §7 requires.
type Error struct {
	Kind      Kind
	Operation string
	Entity    string
	EntityID  string
	Details   string
	Cause     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("repository: %s op=%s entity=%s id=%s: %s", e.Kind, e.Operation, e.Entity, e.EntityID, e.Details)
}

func (e *Error) Unwrap() error { return e.Cause }

// Retryable reports whether the caller's backoff loop should retry this
// error, per spec §7's table. TransactionError is "conditionally"
// retryable: retryable only when it wraps a retryable cause.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindConnection, KindTimeout, KindQuerySerialization:
		return true
	case KindTransaction:
		var inner *Error
		if AsError(e.Cause, &inner) {
			return inner.Retryable()
		}
		return false
	default:
		return false
	}
}

// AsError reports whether err, or an error in its single-error Unwrap
// chain, is an *Error, and if so stores it in target. It walks the chain
// itself rather than calling errors.As, so Unwrap() []error is not followed.
func AsError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func newErr(kind Kind, op, entity, id, details string, cause error) *Error {
	return &Error{Kind: kind, Operation: op, Entity: entity, EntityID: id, Details: details, Cause: cause}
}

func NewNotFound(op, entity, id string) *Error {
	return newErr(KindNotFound, op, entity, id, "not found", nil)
}

func NewConfigurationError(op, entity, details string) *Error {
	return newErr(KindConfiguration, op, entity, "", details, nil)
}

// ScheduleMetadata is the summary record returned by lifecycle operations,
// deliberately narrower than the full Schedule aggregate.
type ScheduleMetadata struct {
	ID             int64
	Name           string
	Checksum       string
	SchedulePeriod interval.Interval
}

// Lifecycle groups schedule CRUD + dedup, per spec §4.E.
type Lifecycle interface {
	HealthCheck(ctx context.Context) error
	// StoreSchedule is idempotent with respect to checksum: a duplicate
	// checksum returns the existing metadata without inserting a new row.
	// Neither path populates or checks derived data (analytics,
	// validation); that is left to the Populate* and
	// InsertValidationResults methods.
	StoreSchedule(ctx context.Context, sched *domain.Schedule) (ScheduleMetadata, error)
	GetSchedule(ctx context.Context, id int64) (*domain.Schedule, error)
	ListSchedules(ctx context.Context) ([]ScheduleMetadata, error)
	GetScheduleTimeRange(ctx context.Context, id int64) (interval.Interval, error)
}

// Blocks groups block-level reads, per spec §4.E.
type Blocks interface {
	GetSchedulingBlock(ctx context.Context, scheduleID int64, blockID domain.SchedulingBlockID) (*domain.SchedulingBlock, error)
	GetBlocksForSchedule(ctx context.Context, scheduleID int64) ([]*domain.SchedulingBlock, error)
	FetchDarkPeriods(ctx context.Context, scheduleID int64) ([]interval.Interval, error)
	FetchPossiblePeriods(ctx context.Context, scheduleID int64) ([]interval.Interval, error)
}

// BlockAnalytics groups block-level analytics storage, per spec §4.E/§4.F.
type BlockAnalytics interface {
	PopulateScheduleAnalytics(ctx context.Context, scheduleID int64) error
	DeleteScheduleAnalytics(ctx context.Context, scheduleID int64) error
	HasAnalyticsData(ctx context.Context, scheduleID int64) (bool, error)
	FetchAnalyticsBlocksForSkyMap(ctx context.Context, scheduleID int64) ([]analytics.BlockRow, error)
	FetchAnalyticsBlocksForDistribution(ctx context.Context, scheduleID int64) ([]analytics.BlockRow, error)
	FetchAnalyticsBlocksForTimeline(ctx context.Context, scheduleID int64) ([]analytics.BlockRow, error)
	FetchAnalyticsBlocksForVisibilityMap(ctx context.Context, scheduleID int64) ([]analytics.BlockRow, error)
	FetchAnalyticsBlocksForInsights(ctx context.Context, scheduleID int64) ([]analytics.BlockRow, error)
	FetchAnalyticsBlocksForTrends(ctx context.Context, scheduleID int64) ([]analytics.BlockRow, error)
}

// SummaryAnalytics groups schedule-wide summary storage, per spec §4.E/§4.F.
type SummaryAnalytics interface {
	PopulateSummaryAnalytics(ctx context.Context, scheduleID int64, nBins int) error
	FetchScheduleSummary(ctx context.Context, scheduleID int64) (analytics.ScheduleSummary, error)
	FetchPriorityRates(ctx context.Context, scheduleID int64) ([]analytics.PriorityRateBin, error)
	FetchVisibilityBins(ctx context.Context, scheduleID int64) ([]analytics.HistogramBin, error)
	FetchHeatmapBins(ctx context.Context, scheduleID int64) ([]analytics.HeatmapBin, error)
	HasSummaryAnalytics(ctx context.Context, scheduleID int64) (bool, error)
	DeleteSummaryAnalytics(ctx context.Context, scheduleID int64) error
}

// VisibilityBins groups the time-binned visibility histogram, per spec §4.E/§4.F.
type VisibilityBins interface {
	PopulateVisibilityTimeBins(ctx context.Context, scheduleID int64, binDurationSeconds int) error
	FetchVisibilityHistogramFromAnalytics(ctx context.Context, scheduleID int64, tStart, tEnd float64, targetBinDurationSeconds int) ([]analytics.TimeBin, error)
	FetchVisibilityMetadata(ctx context.Context, scheduleID int64) (analytics.VisibilityMetadata, error)
	HasVisibilityTimeBins(ctx context.Context, scheduleID int64) (bool, error)
	DeleteVisibilityTimeBins(ctx context.Context, scheduleID int64) error
}

// Validation groups validation-record storage, per spec §4.E/§4.H.
type Validation interface {
	InsertValidationResults(ctx context.Context, scheduleID int64, results []validation.Result) error
	FetchValidationResults(ctx context.Context, scheduleID int64) ([]validation.Result, error)
	HasValidationResults(ctx context.Context, scheduleID int64) (bool, error)
	DeleteValidationResults(ctx context.Context, scheduleID int64) error
}

// Comparison groups the cross-schedule comparison reads, per spec §4.E/§4.G.
type Comparison interface {
	FetchCompareBlocks(ctx context.Context, scheduleID int64) ([]analytics.BlockRow, error)
	FetchGapMetrics(ctx context.Context, scheduleID int64) (analytics.GapMetrics, error)
}

// Repository is the full capability surface. An implementation that does
// not support a group still satisfies it, returning ConfigurationError
// from each of that group's methods, per spec §4.E ("implementations may
// reject unimplemented operations with a typed ConfigurationError").
type Repository interface {
	Lifecycle
	Blocks
	BlockAnalytics
	SummaryAnalytics
	VisibilityBins
	Validation
	Comparison
}
