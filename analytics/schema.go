package analytics

// Schema DDL for the relational backend (spec §6 "Persisted state"):
// normalized base tables for schedules and scheduling blocks, plus the
// derived analytics tables populated by the ETL in etl.go.

// SchedulesSchema is the DDL for the schedules table, keyed by checksum
// for dedup (spec §4.E).
const SchedulesSchema = `
CREATE TABLE IF NOT EXISTS schedules (
    schedule_id      BIGSERIAL PRIMARY KEY,
    name             TEXT NOT NULL,
    checksum         CHAR(64) NOT NULL,
    period_start_mjd DOUBLE PRECISION NOT NULL,
    period_end_mjd   DOUBLE PRECISION NOT NULL,
    latitude_deg     DOUBLE PRECISION NOT NULL,
    longitude_deg    DOUBLE PRECISION NOT NULL,
    elevation_m      DOUBLE PRECISION NOT NULL DEFAULT 0,
    location_name    TEXT NOT NULL DEFAULT '',
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (checksum)
);
`

// SchedulingBlocksSchema is the DDL for the scheduling_blocks table.
const SchedulingBlocksSchema = `
CREATE TABLE IF NOT EXISTS scheduling_blocks (
    schedule_id         BIGINT NOT NULL REFERENCES schedules(schedule_id) ON DELETE CASCADE,
    scheduling_block_id BIGINT NOT NULL,
    original_block_id   TEXT NOT NULL,
    priority            DOUBLE PRECISION NOT NULL,
    min_observation_sec DOUBLE PRECISION NOT NULL,
    requested_duration_sec DOUBLE PRECISION NOT NULL,
    scheduled_start_mjd DOUBLE PRECISION,
    scheduled_stop_mjd  DOUBLE PRECISION,
    PRIMARY KEY (schedule_id, scheduling_block_id)
);
`

// TargetsSchema is the DDL for the targets table (ICRS equatorial position
// per block).
const TargetsSchema = `
CREATE TABLE IF NOT EXISTS targets (
    schedule_id         BIGINT NOT NULL,
    scheduling_block_id BIGINT NOT NULL,
    ra_deg              DOUBLE PRECISION NOT NULL,
    dec_deg             DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (schedule_id, scheduling_block_id),
    FOREIGN KEY (schedule_id, scheduling_block_id) REFERENCES scheduling_blocks(schedule_id, scheduling_block_id) ON DELETE CASCADE
);
`

// ConstraintsSchema is the DDL for the flattened constraints table.
const ConstraintsSchema = `
CREATE TABLE IF NOT EXISTS constraints (
    schedule_id         BIGINT NOT NULL,
    scheduling_block_id BIGINT NOT NULL,
    min_alt_deg         DOUBLE PRECISION NOT NULL DEFAULT 0,
    max_alt_deg         DOUBLE PRECISION NOT NULL DEFAULT 90,
    min_az_deg          DOUBLE PRECISION NOT NULL DEFAULT 0,
    max_az_deg          DOUBLE PRECISION NOT NULL DEFAULT 360,
    fixed_start_mjd     DOUBLE PRECISION,
    fixed_end_mjd       DOUBLE PRECISION,
    PRIMARY KEY (schedule_id, scheduling_block_id),
    FOREIGN KEY (schedule_id, scheduling_block_id) REFERENCES scheduling_blocks(schedule_id, scheduling_block_id) ON DELETE CASCADE
);
`

// DarkPeriodsSchema is the DDL for externally supplied observing windows.
const DarkPeriodsSchema = `
CREATE TABLE IF NOT EXISTS dark_periods (
    schedule_id BIGINT NOT NULL REFERENCES schedules(schedule_id) ON DELETE CASCADE,
    start_mjd   DOUBLE PRECISION NOT NULL,
    end_mjd     DOUBLE PRECISION NOT NULL
);
`

// ScheduleBlocksAnalyticsSchema is the DDL for the derived per-block
// analytics table (spec §3 "Analytics row").
const ScheduleBlocksAnalyticsSchema = `
CREATE TABLE IF NOT EXISTS schedule_blocks_analytics (
    schedule_id             BIGINT NOT NULL,
    scheduling_block_id     BIGINT NOT NULL,
    original_block_id       TEXT NOT NULL,
    ra_deg                  DOUBLE PRECISION NOT NULL,
    dec_deg                 DOUBLE PRECISION NOT NULL,
    priority                DOUBLE PRECISION NOT NULL,
    priority_bucket         SMALLINT NOT NULL,
    requested_duration_sec  DOUBLE PRECISION NOT NULL,
    min_observation_sec     DOUBLE PRECISION NOT NULL,
    min_alt_deg             DOUBLE PRECISION NOT NULL,
    max_alt_deg             DOUBLE PRECISION NOT NULL,
    min_az_deg              DOUBLE PRECISION NOT NULL,
    max_az_deg              DOUBLE PRECISION NOT NULL,
    constraint_start_mjd    DOUBLE PRECISION,
    constraint_stop_mjd     DOUBLE PRECISION,
    is_scheduled            BOOLEAN NOT NULL,
    scheduled_start_mjd     DOUBLE PRECISION,
    scheduled_stop_mjd      DOUBLE PRECISION,
    total_visibility_hours  DOUBLE PRECISION NOT NULL,
    visibility_period_count INTEGER NOT NULL,
    validation_impossible   BOOLEAN NOT NULL DEFAULT false,
    PRIMARY KEY (schedule_id, scheduling_block_id)
);
CREATE INDEX IF NOT EXISTS idx_sba_schedule ON schedule_blocks_analytics(schedule_id);
`

// ScheduleSummarySchema is the DDL for the schedule-wide summary table.
const ScheduleSummarySchema = `
CREATE TABLE IF NOT EXISTS schedule_summary (
    schedule_id       BIGINT PRIMARY KEY,
    total_blocks      INTEGER NOT NULL,
    scheduled_count   INTEGER NOT NULL,
    unscheduled_count INTEGER NOT NULL,
    impossible_count  INTEGER NOT NULL,
    gap_count         INTEGER NOT NULL DEFAULT 0,
    gap_mean_hours    DOUBLE PRECISION NOT NULL DEFAULT 0,
    gap_median_hours  DOUBLE PRECISION NOT NULL DEFAULT 0
);
`

// PriorityRateBinsSchema and HeatmapBinsSchema hold the summary sub-tables
// populated alongside schedule_summary.
const PriorityRateBinsSchema = `
CREATE TABLE IF NOT EXISTS schedule_priority_rate_bins (
    schedule_id     BIGINT NOT NULL,
    bin_index       INTEGER NOT NULL,
    min_priority    DOUBLE PRECISION NOT NULL,
    max_priority    DOUBLE PRECISION NOT NULL,
    count           INTEGER NOT NULL,
    scheduled_count INTEGER NOT NULL,
    PRIMARY KEY (schedule_id, bin_index)
);
`

const VisibilityHistogramBinsSchema = `
CREATE TABLE IF NOT EXISTS schedule_visibility_hours_bins (
    schedule_id BIGINT NOT NULL,
    bin_index   INTEGER NOT NULL,
    min_hours   DOUBLE PRECISION NOT NULL,
    max_hours   DOUBLE PRECISION NOT NULL,
    count       INTEGER NOT NULL,
    PRIMARY KEY (schedule_id, bin_index)
);
`

const HeatmapBinsSchema = `
CREATE TABLE IF NOT EXISTS schedule_heatmap_bins (
    schedule_id          BIGINT NOT NULL,
    visibility_bin_index INTEGER NOT NULL,
    duration_bin_index   INTEGER NOT NULL,
    count                INTEGER NOT NULL,
    PRIMARY KEY (schedule_id, visibility_bin_index, duration_bin_index)
);
`

// VisibilityTimeBinsSchema is the DDL for the time-histogram bins (spec
// §4.F populate_visibility_time_bins).
const VisibilityTimeBinsSchema = `
CREATE TABLE IF NOT EXISTS visibility_time_bins (
    schedule_id     BIGINT NOT NULL,
    bin_start_unix  BIGINT NOT NULL,
    bin_end_unix    BIGINT NOT NULL,
    visible_count   INTEGER NOT NULL,
    PRIMARY KEY (schedule_id, bin_start_unix)
);
CREATE INDEX IF NOT EXISTS idx_vtb_schedule_start ON visibility_time_bins(schedule_id, bin_start_unix);
`

// VisibilityMetadataSchema tracks the native bin resolution stored per
// schedule, so downsampling to a coarser target_bin_duration is possible.
const VisibilityMetadataSchema = `
CREATE TABLE IF NOT EXISTS visibility_metadata (
    schedule_id        BIGINT PRIMARY KEY,
    native_bin_seconds INTEGER NOT NULL,
    bin_count          INTEGER NOT NULL
);
`

// ScheduleValidationResultsSchema is the DDL for the validation audit
// table (spec §3 "Validation record").
const ScheduleValidationResultsSchema = `
CREATE TABLE IF NOT EXISTS schedule_validation_results (
    id                  BIGSERIAL PRIMARY KEY,
    schedule_id         BIGINT NOT NULL,
    scheduling_block_id BIGINT NOT NULL,
    status              TEXT NOT NULL,
    issue_type          TEXT,
    category            TEXT,
    criticality         TEXT NOT NULL,
    field_name          TEXT,
    current_value       TEXT,
    expected_value      TEXT,
    description         TEXT
);
CREATE INDEX IF NOT EXISTS idx_svr_schedule ON schedule_validation_results(schedule_id);
`

// AllSchemas returns every DDL statement in dependency order, suitable for
// applying against a fresh database in a single pass.
func AllSchemas() []string {
	return []string{
		SchedulesSchema,
		SchedulingBlocksSchema,
		TargetsSchema,
		ConstraintsSchema,
		DarkPeriodsSchema,
		ScheduleBlocksAnalyticsSchema,
		ScheduleSummarySchema,
		PriorityRateBinsSchema,
		VisibilityHistogramBinsSchema,
		HeatmapBinsSchema,
		VisibilityTimeBinsSchema,
		VisibilityMetadataSchema,
		ScheduleValidationResultsSchema,
	}
}
