// Package ephemeris defines the narrow interface the constraint algebra
// consumes for raw observer/target geometry (spec §1, §6: "the
// astronomical library providing raw rise/set and sun/moon geometry" is an
// out-of-scope collaborator; only this interface boundary is specified
// here). A deterministic reference implementation is included so the core
// compiles and tests without a real ephemeris library wired in.
package ephemeris

import (
	"math"

	"github.com/obscore/scheduler/interval"
)

// Observer is the minimal geometry needed to evaluate a target's horizontal
// coordinates: geographic latitude/longitude in degrees and elevation in
// meters. Kept as a small value type per the "ownership of observer/target
// in leaves" design note (spec §9) rather than a back-pointer into a
// Schedule.
type Observer struct {
	LatitudeDeg  float64
	LongitudeDeg float64
	ElevationM   float64
}

// Target is an ICRS equatorial position.
type Target struct {
	RADeg  float64
	DecDeg float64
}

// Provider computes instantaneous geometry at a given time. All angles are
// degrees; NaN results mean "undefined" (e.g. invalid target) and callers
// must treat that as "no interval", per spec §4.B failure modes.
type Provider interface {
	// TargetAltitudeDeg returns the target's altitude above the observer's
	// horizon at time t.
	TargetAltitudeDeg(t interval.MJD, obs Observer, tgt Target) float64
	// TargetAzimuthDeg returns the target's azimuth (0=N, 90=E) at time t.
	TargetAzimuthDeg(t interval.MJD, obs Observer, tgt Target) float64
	// SunAltitudeDeg returns the Sun's altitude at time t for obs.
	SunAltitudeDeg(t interval.MJD, obs Observer) float64
	// MoonAltitudeDeg returns the Moon's altitude at time t for obs.
	MoonAltitudeDeg(t interval.MJD, obs Observer) float64
}

// Analytic is a deterministic, dependency-free reference Provider using
// low-precision analytic formulas (apparent sidereal time, hour angle,
// standard horizontal-coordinate conversion, and truncated solar/lunar
// ecliptic longitude series). It is not suitable for operational
// scheduling precision; it exists so the constraint algebra, visibility
// engine, and analytics pipeline are exercisable end to end without an
// external ephemeris dependency.
type Analytic struct{}

const deg2rad = math.Pi / 180
const rad2deg = 180 / math.Pi

// TargetAltitudeDeg implements Provider.
func (Analytic) TargetAltitudeDeg(t interval.MJD, obs Observer, tgt Target) float64 {
	if math.IsNaN(tgt.RADeg) || math.IsNaN(tgt.DecDeg) {
		return math.NaN()
	}
	alt, _ := horizontal(t, obs, tgt.RADeg, tgt.DecDeg)
	return alt
}

// TargetAzimuthDeg implements Provider.
func (Analytic) TargetAzimuthDeg(t interval.MJD, obs Observer, tgt Target) float64 {
	if math.IsNaN(tgt.RADeg) || math.IsNaN(tgt.DecDeg) {
		return math.NaN()
	}
	_, az := horizontal(t, obs, tgt.RADeg, tgt.DecDeg)
	return az
}

// SunAltitudeDeg implements Provider.
func (Analytic) SunAltitudeDeg(t interval.MJD, obs Observer) float64 {
	ra, dec := sunPosition(t)
	alt, _ := horizontal(t, obs, ra, dec)
	return alt
}

// MoonAltitudeDeg implements Provider.
func (Analytic) MoonAltitudeDeg(t interval.MJD, obs Observer) float64 {
	ra, dec := moonPosition(t)
	alt, _ := horizontal(t, obs, ra, dec)
	return alt
}

// horizontal converts an equatorial (ra, dec) position to local (alt, az)
// for the given observer at time t.
func horizontal(t interval.MJD, obs Observer, raDeg, decDeg float64) (altDeg, azDeg float64) {
	lst := localSiderealTimeDeg(t, obs.LongitudeDeg)
	ha := lst - raDeg // hour angle, degrees
	haR := ha * deg2rad
	decR := decDeg * deg2rad
	latR := obs.LatitudeDeg * deg2rad

	sinAlt := math.Sin(decR)*math.Sin(latR) + math.Cos(decR)*math.Cos(latR)*math.Cos(haR)
	alt := math.Asin(clamp(sinAlt, -1, 1))

	cosAz := (math.Sin(decR) - math.Sin(alt)*math.Sin(latR)) / (math.Cos(alt) * math.Cos(latR))
	az := math.Acos(clamp(cosAz, -1, 1))
	if math.Sin(haR) > 0 {
		az = 2*math.Pi - az
	}
	return alt * rad2deg, az * rad2deg
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// localSiderealTimeDeg computes a low-precision local apparent sidereal
// time in degrees for MJD t and observer longitude.
func localSiderealTimeDeg(t interval.MJD, longitudeDeg float64) float64 {
	// Days since J2000.0 (MJD 51544.5).
	d := float64(t) - 51544.5
	// Greenwich mean sidereal time, degrees (low-precision IAU expression).
	gmst := 280.46061837 + 360.98564736629*d
	lst := gmst + longitudeDeg
	return math.Mod(math.Mod(lst, 360)+360, 360)
}

// sunPosition returns a low-precision apparent geocentric (ra, dec) for
// the Sun at time t, degrees, via the standard truncated ecliptic-longitude
// series (mean longitude + equation-of-center correction).
func sunPosition(t interval.MJD) (raDeg, decDeg float64) {
	d := float64(t) - 51544.5
	g := math.Mod(357.529+0.98560028*d, 360) * deg2rad
	q := math.Mod(280.459+0.98564736*d, 360)
	lDeg := q + 1.915*math.Sin(g) + 0.020*math.Sin(2*g)
	l := lDeg * deg2rad
	eps := (23.439 - 0.00000036*d) * deg2rad

	raR := math.Atan2(math.Cos(eps)*math.Sin(l), math.Cos(l))
	decR := math.Asin(math.Sin(eps) * math.Sin(l))
	ra := math.Mod(raR*rad2deg+360, 360)
	return ra, decR * rad2deg
}

// moonPosition returns a low-precision geocentric (ra, dec) for the Moon
// at time t, via a truncated lunar-theory series carrying only the
// dominant periodic terms (sufficient to resolve rise/set-scale crossings,
// not for sub-arcminute positional accuracy).
func moonPosition(t interval.MJD) (raDeg, decDeg float64) {
	d := float64(t) - 51544.5
	L := math.Mod(218.316+13.176396*d, 360)
	M := math.Mod(134.963+13.064993*d, 360) * deg2rad
	F := math.Mod(93.272+13.229350*d, 360) * deg2rad

	lonDeg := L + 6.289*math.Sin(M)
	latDeg := 5.128 * math.Sin(F)

	lon := lonDeg * deg2rad
	lat := latDeg * deg2rad
	eps := 23.439 * deg2rad

	sinDec := math.Sin(lat)*math.Cos(eps) + math.Cos(lat)*math.Sin(eps)*math.Sin(lon)
	decR := math.Asin(clamp(sinDec, -1, 1))

	y := math.Sin(lon)*math.Cos(eps) - math.Tan(lat)*math.Sin(eps)
	x := math.Cos(lon)
	raR := math.Atan2(y, x)
	ra := math.Mod(raR*rad2deg+360, 360)
	return ra, decR * rad2deg
}
