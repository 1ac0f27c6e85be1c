// Package validation implements the rule-based schedule audit of spec
// §4.H: for each scheduled or candidate block, check a fixed table of
// rules and emit a Result carrying a status and criticality.
package validation

import (
	"fmt"
	"math"

	"github.com/obscore/scheduler/domain"
)

// Status is the outcome of one rule check against one block.
type Status string

const (
	StatusOK         Status = "ok"
	StatusWarning    Status = "warning"
	StatusError      Status = "error"
	StatusImpossible Status = "impossible"
)

// Criticality ranks how urgently a Result needs operator attention. The
// spec leaves the impossible/error/warning -> criticality mapping open
// (§9 Open Question); resolved here as impossible and error both map to
// High (both mean the block cannot or did not observe as requested),
// warning maps to Medium, and a clean ok result carries Low.
type Criticality string

const (
	CriticalityHigh   Criticality = "high"
	CriticalityMedium Criticality = "medium"
	CriticalityLow    Criticality = "low"
)

func criticalityFor(status Status) Criticality {
	switch status {
	case StatusImpossible, StatusError:
		return CriticalityHigh
	case StatusWarning:
		return CriticalityMedium
	default:
		return CriticalityLow
	}
}

// Result is one rule outcome for one block, persisted to
// schedule_validation_results (spec §3 "Validation record").
type Result struct {
	ScheduleID        int64
	SchedulingBlockID domain.SchedulingBlockID
	Status            Status
	IssueType         string
	Category          string
	Criticality       Criticality
	FieldName         string
	CurrentValue      string
	ExpectedValue     string
	Description       string
}

func newResult(scheduleID int64, block *domain.SchedulingBlock, status Status, issueType, category, field, current, expected, description string) Result {
	return Result{
		ScheduleID:        scheduleID,
		SchedulingBlockID: block.ID,
		Status:            status,
		IssueType:         issueType,
		Category:          category,
		Criticality:       criticalityFor(status),
		FieldName:         field,
		CurrentValue:      current,
		ExpectedValue:     expected,
		Description:       description,
	}
}

// ValidateSchedule runs the full rule table against every block in a
// schedule and returns one Result per block per failing rule, plus one
// StatusOK Result for blocks that pass every rule cleanly (so downstream
// consumers can tell "checked, clean" from "never checked").
func ValidateSchedule(sched *domain.Schedule) []Result {
	var results []Result
	scheduleID := int64(0)
	if sched.ID != nil {
		scheduleID = *sched.ID
	}
	for _, block := range sched.Blocks {
		blockResults := validateBlock(scheduleID, block, sched)
		if len(blockResults) == 0 {
			blockResults = append(blockResults, newResult(scheduleID, block, StatusOK, "", "", "", "", "", "passed all checks"))
		}
		results = append(results, blockResults...)
	}
	return results
}

func validateBlock(scheduleID int64, block *domain.SchedulingBlock, sched *domain.Schedule) []Result {
	var results []Result

	if block.TotalVisibilityHours() == 0 {
		results = append(results, newResult(scheduleID, block, StatusImpossible, "no_visibility", "visibility",
			"visibility_periods", "0", ">0",
			"block has no visibility window satisfying its constraints anywhere in the schedule period"))
	}

	if block.MinObservationS > block.RequestedDurS {
		results = append(results, newResult(scheduleID, block, StatusError, "duration_invariant", "duration",
			"min_observation_sec", fmt.Sprintf("%.1f", block.MinObservationS), fmt.Sprintf("<= %.1f", block.RequestedDurS),
			"min_observation exceeds requested_duration"))
	}

	if math.IsNaN(block.PriorityValue) || math.IsInf(block.PriorityValue, 0) {
		results = append(results, newResult(scheduleID, block, StatusError, "non_finite_priority", "priority",
			"priority", fmt.Sprintf("%v", block.PriorityValue), "finite",
			"priority is not a finite number"))
	}

	if block.Constraints.MinAltDeg > block.Constraints.MaxAltDeg {
		results = append(results, newResult(scheduleID, block, StatusError, "altitude_bounds", "constraints",
			"min_alt_deg/max_alt_deg", fmt.Sprintf("%.2f/%.2f", block.Constraints.MinAltDeg, block.Constraints.MaxAltDeg), "min <= max",
			"altitude constraint bounds are inverted"))
	}

	if block.IsScheduled() {
		sp := *block.ScheduledPeriod
		durationS := sp.DurationHours() * 3600
		if durationS < block.MinObservationS-1e-6 {
			results = append(results, newResult(scheduleID, block, StatusError, "short_scheduled_period", "scheduling",
				"scheduled_period", fmt.Sprintf("%.1fs", durationS), fmt.Sprintf(">= %.1fs", block.MinObservationS),
				"scheduled period is shorter than the minimum observation time"))
		}
		contained := false
		for _, vp := range block.VisibilityPeriods {
			if sp.Start >= vp.Start && sp.End <= vp.End {
				contained = true
				break
			}
		}
		if !contained {
			results = append(results, newResult(scheduleID, block, StatusError, "scheduled_outside_visibility", "scheduling",
				"scheduled_period", "outside visibility_periods", "within visibility_periods",
				"scheduled period does not lie inside any computed visibility period"))
		}
		if sp.Start < sched.SchedulePeriod.Start || sp.End > sched.SchedulePeriod.End {
			results = append(results, newResult(scheduleID, block, StatusError, "scheduled_outside_horizon", "scheduling",
				"scheduled_period", "outside schedule_period", "within schedule_period",
				"scheduled period escapes the schedule's overall time horizon"))
		}
	} else if block.TotalVisibilityHours() > 0 {
		requestedHours := block.RequestedDurS / 3600
		if block.TotalVisibilityHours() < requestedHours {
			results = append(results, newResult(scheduleID, block, StatusWarning, "tight_visibility", "visibility",
				"total_visibility_hours", fmt.Sprintf("%.2fh", block.TotalVisibilityHours()), fmt.Sprintf(">= %.2fh", requestedHours),
				"unscheduled block has less total visibility than its requested duration"))
		} else {
			results = append(results, newResult(scheduleID, block, StatusWarning, "unscheduled", "scheduling",
				"scheduled_period", "none", "assigned",
				"block has adequate visibility but was not assigned a scheduled period"))
		}
	}

	return results
}

// Summarize counts results by status, for a quick health check without
// fetching every record (spec §4.H).
func Summarize(results []Result) map[Status]int {
	counts := make(map[Status]int)
	for _, r := range results {
		counts[r.Status]++
	}
	return counts
}
