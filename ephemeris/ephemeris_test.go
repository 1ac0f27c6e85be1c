package ephemeris

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/obscore/scheduler/interval"
)

func TestAnalyticNaNTargetYieldsNaNAltitude(t *testing.T) {
	a := Analytic{}
	obs := Observer{LatitudeDeg: 28.76, LongitudeDeg: -17.89}
	alt := a.TargetAltitudeDeg(60694, obs, Target{RADeg: math.NaN(), DecDeg: 10})
	assert.True(t, math.IsNaN(alt))
}

func TestAnalyticAltitudeBounded(t *testing.T) {
	a := Analytic{}
	obs := Observer{LatitudeDeg: 28.76, LongitudeDeg: -17.89}
	tgt := Target{RADeg: 158.03, DecDeg: -68.03}
	for i := 0; i < 50; i++ {
		tm := interval.MJD(60694.0 + float64(i)*0.1)
		alt := a.TargetAltitudeDeg(tm, obs, tgt)
		assert.GreaterOrEqual(t, alt, -90.0)
		assert.LessOrEqual(t, alt, 90.0)
	}
}

func TestSunAltitudeVariesOverDay(t *testing.T) {
	a := Analytic{}
	obs := Observer{LatitudeDeg: 28.76, LongitudeDeg: -17.89}
	alts := map[float64]bool{}
	for i := 0; i < 24; i++ {
		tm := interval.MJD(60694.0 + float64(i)/24)
		alt := a.SunAltitudeDeg(tm, obs)
		alts[math.Round(alt)] = true
	}
	assert.Greater(t, len(alts), 1, "sun altitude should vary across the day")
}
