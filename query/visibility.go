package query

import "github.com/obscore/scheduler/analytics"

// DownsampleTimeBins merges native-resolution visibility time bins up to
// targetSeconds, summing VisibleCount within each merged group. Used by
// repository backends to serve a coarser target_bin_duration than the
// bins were populated at, per spec §4.G's "Visibility histogram (time)".
// A target finer than or equal to the native resolution is a no-op.
func DownsampleTimeBins(native []analytics.TimeBin, nativeSeconds, targetSeconds int) []analytics.TimeBin {
	if nativeSeconds <= 0 || targetSeconds <= nativeSeconds || len(native) == 0 {
		return native
	}
	factor := targetSeconds / nativeSeconds
	if factor < 1 {
		factor = 1
	}

	out := make([]analytics.TimeBin, 0, (len(native)+factor-1)/factor)
	for i := 0; i < len(native); i += factor {
		end := i + factor
		if end > len(native) {
			end = len(native)
		}
		group := native[i:end]
		merged := analytics.TimeBin{BinStartUnix: group[0].BinStartUnix, BinEndUnix: group[len(group)-1].BinEndUnix}
		for _, g := range group {
			merged.VisibleCount += g.VisibleCount
		}
		out = append(out, merged)
	}
	return out
}
