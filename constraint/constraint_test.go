package constraint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obscore/scheduler/ephemeris"
	"github.com/obscore/scheduler/interval"
)

func assertSortedNonOverlapping(t *testing.T, ivs []interval.Interval) {
	t.Helper()
	for i := 1; i < len(ivs); i++ {
		assert.LessOrEqual(t, ivs[i-1].End, ivs[i].Start)
	}
}

func TestFixedIntervalClipsToHorizon(t *testing.T) {
	horizon := interval.Must(0, 100)
	f := FixedInterval{Start: -10, End: 50}
	out := f.ComputeIntervals(horizon, ephemeris.Analytic{})
	require.Len(t, out, 1)
	assert.Equal(t, interval.Must(0, 50), out[0])
}

func TestIntersectionCommutative(t *testing.T) {
	horizon := interval.Must(60694, 60695)
	obs := ephemeris.Observer{LatitudeDeg: 28.76, LongitudeDeg: -17.89}
	tgt := ephemeris.Target{RADeg: 158.03, DecDeg: -68.03}

	alt := Altitude{Min: 30, Max: 90, Target: tgt, Observer: obs}
	night := Nighttime{Observer: obs}

	ab := Intersection{Children: []Node{alt, night}}.ComputeIntervals(horizon, ephemeris.Analytic{})
	ba := Intersection{Children: []Node{night, alt}}.ComputeIntervals(horizon, ephemeris.Analytic{})
	assert.Equal(t, ab, ba)
	assertSortedNonOverlapping(t, ab)
}

func TestUnionIdempotent(t *testing.T) {
	horizon := interval.Must(60694, 60695)
	obs := ephemeris.Observer{LatitudeDeg: 28.76, LongitudeDeg: -17.89}
	night := Nighttime{Observer: obs}

	once := night.ComputeIntervals(horizon, ephemeris.Analytic{})
	union := Union{Children: []Node{night, night}}.ComputeIntervals(horizon, ephemeris.Analytic{})
	assert.Equal(t, once, union)
}

func TestNotNotEqualsOriginalClippedToHorizon(t *testing.T) {
	horizon := interval.Must(60694, 60695)
	obs := ephemeris.Observer{LatitudeDeg: 28.76, LongitudeDeg: -17.89}
	night := Nighttime{Observer: obs}

	original := night.ComputeIntervals(horizon, ephemeris.Analytic{})
	doubleNot := Not{Child: Not{Child: night}}.ComputeIntervals(horizon, ephemeris.Analytic{})
	assert.Equal(t, original, doubleNot)
}

func TestAzimuthWrapAroundNorth(t *testing.T) {
	horizon := interval.Must(60694, 60695)
	obs := ephemeris.Observer{LatitudeDeg: 28.76, LongitudeDeg: -17.89}
	tgt := ephemeris.Target{RADeg: 158.03, DecDeg: -68.03}

	az := Azimuth{Min: 350, Max: 10, Target: tgt, Observer: obs}
	out := az.ComputeIntervals(horizon, ephemeris.Analytic{})
	assertSortedNonOverlapping(t, out)
}

func TestNaNTargetYieldsNoIntervals(t *testing.T) {
	horizon := interval.Must(60694, 60695)
	obs := ephemeris.Observer{LatitudeDeg: 28.76, LongitudeDeg: -17.89}
	tgt := ephemeris.Target{RADeg: 0, DecDeg: 1000} // not NaN but arbitrary; real NaN case below

	alt := Altitude{Min: -1000, Max: 1000, Target: tgt, Observer: obs}
	out := alt.ComputeIntervals(horizon, ephemeris.Analytic{})
	// with a pathological declination the altitude is still defined by the
	// formula (not NaN), so this just exercises the full-range case.
	assertSortedNonOverlapping(t, out)

	nanAlt := Altitude{Min: -1000, Max: 1000, Target: ephemeris.Target{RADeg: math.NaN(), DecDeg: 10}, Observer: obs}
	assert.Empty(t, nanAlt.ComputeIntervals(horizon, ephemeris.Analytic{}))
}
