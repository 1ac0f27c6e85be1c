package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/obscore/scheduler/ephemeris"
	"github.com/obscore/scheduler/interval"
)

// earthRadiusKM is R⊕ used to derive elevation from the astro-format's
// geocentric distance field (spec §6).
const earthRadiusKM = 6371.0

// sourceDocument mirrors the astro-format JSON fields consumed at ingest
// (spec §6). Calibration tasks and any fields beyond these are ignored.
type sourceDocument struct {
	Location struct {
		Lat      float64 `json:"lat"`
		Lon      float64 `json:"lon"`
		Distance float64 `json:"distance"`
		Name     string  `json:"name"`
	} `json:"location"`
	Period struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"period"`
	Tasks []sourceTask `json:"tasks"`
}

type sourceTask struct {
	Type   string `json:"type"`
	ID     any    `json:"id"`
	Target struct {
		Position struct {
			RA  float64 `json:"ra"`
			Dec float64 `json:"dec"`
		} `json:"position"`
		Time *struct {
			Start float64 `json:"start"`
			End   float64 `json:"end"`
		} `json:"time"`
	} `json:"target"`
	DurationSec float64          `json:"duration_sec"`
	Priority    float64          `json:"priority"`
	Constraint  *sourceConstraint `json:"constraint"`
}

type sourceConstraint struct {
	MinAlt *float64 `json:"min_alt"`
	MaxAlt *float64 `json:"max_alt"`
	MinAz  *float64 `json:"min_az"`
	MaxAz  *float64 `json:"max_az"`
}

// ParseSource parses raw source schedule bytes into a Schedule per the
// astro-format (spec §6). It does not run the visibility engine or compute
// astronomical nights (see the visibility package for that); it performs
// the structural parsing, boundary validation, and checksum that spec
// §4.D requires before the visibility engine runs. A malformed required
// field on any task is fatal for the whole schedule, per spec §4.D.
func ParseSource(name string, raw []byte) (*Schedule, error) {
	var doc sourceDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("domain: malformed source JSON: %w", err)
	}

	lon := normalizeLongitude(doc.Location.Lon)
	elevationM := (doc.Location.Distance - earthRadiusKM) * 1000
	loc, err := NewGeographicLocation(doc.Location.Lat, lon, elevationM, doc.Location.Name)
	if err != nil {
		return nil, err
	}

	period, err := interval.New(interval.MJD(doc.Period.Start), interval.MJD(doc.Period.End))
	if err != nil {
		return nil, validationErrorf("period", "start must precede end: %v", err)
	}

	blocks := make([]*SchedulingBlock, 0, len(doc.Tasks))
	for i, task := range doc.Tasks {
		if task.Type != "observation" {
			continue // calibration tasks are ignored, per spec §6
		}
		block, err := parseTask(i, task)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	sched := &Schedule{
		Name:           name,
		Checksum:       checksumOf(raw),
		SchedulePeriod: period,
		Location:       loc,
		Blocks:         blocks,
	}
	return sched, nil
}

func parseTask(index int, task sourceTask) (*SchedulingBlock, error) {
	originalID := fmt.Sprintf("%v", task.ID)
	if task.ID == nil {
		return nil, validationErrorf("tasks[].id", "task at index %d missing required id", index)
	}

	constraints := DefaultFlatConstraints()
	if task.Constraint != nil {
		if task.Constraint.MinAlt != nil {
			constraints.MinAltDeg = *task.Constraint.MinAlt
		}
		if task.Constraint.MaxAlt != nil {
			constraints.MaxAltDeg = *task.Constraint.MaxAlt
		}
		if task.Constraint.MinAz != nil {
			constraints.MinAzDeg = *task.Constraint.MinAz
		}
		if task.Constraint.MaxAz != nil {
			constraints.MaxAzDeg = *task.Constraint.MaxAz
		}
	}
	if task.Target.Time != nil {
		fixed := interval.Interval{Start: interval.MJD(task.Target.Time.Start), End: interval.MJD(task.Target.Time.End)}
		constraints.FixedTime = &fixed
	}

	block := &SchedulingBlock{
		OriginalBlockID: originalID,
		Target: ephemeris.Target{
			RADeg:  task.Target.Position.RA,
			DecDeg: task.Target.Position.Dec,
		},
		Constraints:     constraints,
		PriorityValue:   task.Priority,
		RequestedDurS:   task.DurationSec,
		MinObservationS: task.DurationSec,
	}
	if err := block.Validate(); err != nil {
		return nil, fmt.Errorf("domain: task %q: %w", originalID, err)
	}
	return block, nil
}

// normalizeLongitude maps [0,360) inputs to [-180,180), per spec §6.
func normalizeLongitude(lon float64) float64 {
	if lon >= 180 {
		return lon - 360
	}
	return lon
}

// checksumOf returns the lowercase-hex SHA-256 of raw bytes (spec §6).
func checksumOf(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
