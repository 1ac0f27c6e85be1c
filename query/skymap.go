package query

import "github.com/obscore/scheduler/analytics"

// SkyMapPalette is the fixed low→high priority color palette, per spec §4.G.
var SkyMapPalette = [4]string{"#2ca02c", "#1f77b4", "#ff7f0e", "#d62728"}

// SkyMapBin is one of the 4 fixed priority bins of the sky-map view.
type SkyMapBin struct {
	BinIndex       int
	MinPriority    float64
	MaxPriority    float64
	Color          string
	Count          int
	ScheduledCount int
	MinRADeg       float64
	MaxRADeg       float64
	MinDecDeg      float64
	MaxDecDeg      float64
}

// SkyMapResult is the sky-map dashboard DTO.
type SkyMapResult struct {
	Bins              []SkyMapBin
	ScheduleStartUnix int64
	ScheduleEndUnix   int64
}

// BuildSkyMap groups blocks into 4 priority bins over [p_min, p_max] (the
// last bin inclusive of p_max), assigns the fixed color palette low→high,
// and reports each bin's RA/Dec extent, count, and scheduled count, per
// spec §4.G.
func BuildSkyMap(rows []analytics.BlockRow, scheduleStartUnix, scheduleEndUnix int64) SkyMapResult {
	result := SkyMapResult{ScheduleStartUnix: scheduleStartUnix, ScheduleEndUnix: scheduleEndUnix}
	if len(rows) == 0 {
		return result
	}

	pMin, pMax := rows[0].Priority, rows[0].Priority
	for _, r := range rows {
		if r.Priority < pMin {
			pMin = r.Priority
		}
		if r.Priority > pMax {
			pMax = r.Priority
		}
	}

	bins := make([]SkyMapBin, 4)
	span := pMax - pMin
	for i := range bins {
		bins[i].BinIndex = i
		bins[i].Color = SkyMapPalette[i]
		if span == 0 {
			bins[i].MinPriority, bins[i].MaxPriority = pMin, pMax
			continue
		}
		bins[i].MinPriority = pMin + float64(i)*span/4
		bins[i].MaxPriority = pMin + float64(i+1)*span/4
	}

	for _, r := range rows {
		idx := binIndex(r.Priority, pMin, pMax, 4)
		b := &bins[idx]
		if b.Count == 0 {
			b.MinRADeg, b.MaxRADeg = r.RADeg, r.RADeg
			b.MinDecDeg, b.MaxDecDeg = r.DecDeg, r.DecDeg
		} else {
			if r.RADeg < b.MinRADeg {
				b.MinRADeg = r.RADeg
			}
			if r.RADeg > b.MaxRADeg {
				b.MaxRADeg = r.RADeg
			}
			if r.DecDeg < b.MinDecDeg {
				b.MinDecDeg = r.DecDeg
			}
			if r.DecDeg > b.MaxDecDeg {
				b.MaxDecDeg = r.DecDeg
			}
		}
		b.Count++
		if r.IsScheduled {
			b.ScheduledCount++
		}
	}

	result.Bins = bins
	return result
}
