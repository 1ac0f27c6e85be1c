// Package quantity implements unit-tagged numeric scalars, per spec §4.A.
//
// A Quantity wraps a float64 value with a Unit held as a run-time field;
// the compiler does not tell units apart, and a unit or dimension
// mismatch is caught only at run time, by a panic. Units
// carry a canonical ratio to their dimension's base unit; conversion
// between units of the same dimension is a pure multiplication, lossless
// up to floating point. Dimensions: length, time, angular. A unitless
// quantity exists for ratios (e.g. similarity scores, normalized
// priorities).
package quantity

import (
	"fmt"
	"math"
)

// Dimension identifies the physical dimension a unit belongs to.
type Dimension int

const (
	DimensionAngular Dimension = iota
	DimensionTime
	DimensionLength
	DimensionUnitless
)

// Unit describes one concrete unit within a dimension: its symbol and its
// ratio to the dimension's base unit.
type Unit struct {
	Symbol    string
	Dimension Dimension
	// Ratio is how many base units one of this unit equals.
	Ratio float64
}

// Angular base unit: degree.
var (
	Degrees = Unit{Symbol: "deg", Dimension: DimensionAngular, Ratio: 1}
	Radians = Unit{Symbol: "rad", Dimension: DimensionAngular, Ratio: 180 / math.Pi}
)

// Time base unit: day (MJD arithmetic is day-based).
var (
	Days    = Unit{Symbol: "d", Dimension: DimensionTime, Ratio: 1}
	Hours   = Unit{Symbol: "h", Dimension: DimensionTime, Ratio: 1.0 / 24}
	Minutes = Unit{Symbol: "min", Dimension: DimensionTime, Ratio: 1.0 / 1440}
	Seconds = Unit{Symbol: "s", Dimension: DimensionTime, Ratio: 1.0 / 86400}
)

// Length base unit: meter.
var (
	Meters     = Unit{Symbol: "m", Dimension: DimensionLength, Ratio: 1}
	Kilometers = Unit{Symbol: "km", Dimension: DimensionLength, Ratio: 1000}
)

var Unitless = Unit{Symbol: "", Dimension: DimensionUnitless, Ratio: 1}

// Quantity is a scalar value tagged with a unit.
type Quantity struct {
	value float64
	unit  Unit
}

// New constructs a Quantity in the given unit.
func New(value float64, unit Unit) Quantity {
	return Quantity{value: value, unit: unit}
}

// Value returns the raw numeric value in the quantity's current unit.
func (q Quantity) Value() float64 { return q.value }

// Unit returns the quantity's unit.
func (q Quantity) Unit() Unit { return q.unit }

// To converts q to the target unit. Panics if the dimensions differ, since
// a cross-dimension conversion is a programmer error, not a runtime
// condition callers are expected to handle.
func (q Quantity) To(target Unit) Quantity {
	if q.unit.Dimension != target.Dimension {
		panic(fmt.Sprintf("quantity: cannot convert dimension %d to %d", q.unit.Dimension, target.Dimension))
	}
	base := q.value * q.unit.Ratio
	return Quantity{value: base / target.Ratio, unit: target}
}

// Add returns q+other. Both must share a unit.
func (q Quantity) Add(other Quantity) Quantity {
	q.mustSameUnit(other)
	return Quantity{value: q.value + other.value, unit: q.unit}
}

// Sub returns q-other. Both must share a unit.
func (q Quantity) Sub(other Quantity) Quantity {
	q.mustSameUnit(other)
	return Quantity{value: q.value - other.value, unit: q.unit}
}

// Scale multiplies q by a dimensionless scalar.
func (q Quantity) Scale(k float64) Quantity {
	return Quantity{value: q.value * k, unit: q.unit}
}

// Less reports whether q < other (same unit). Returns false for NaN, as
// ordering over quantities is partial.
func (q Quantity) Less(other Quantity) bool {
	q.mustSameUnit(other)
	return q.value < other.value
}

// Equal compares wrapped values directly (no unit conversion).
func (q Quantity) Equal(other Quantity) bool {
	return q.unit == other.unit && q.value == other.value
}

func (q Quantity) mustSameUnit(other Quantity) {
	if q.unit != other.unit {
		panic(fmt.Sprintf("quantity: unit mismatch %q vs %q", q.unit.Symbol, other.unit.Symbol))
	}
}

// String renders "<value> <symbol>".
func (q Quantity) String() string {
	if q.unit.Symbol == "" {
		return fmt.Sprintf("%g", q.value)
	}
	return fmt.Sprintf("%g %s", q.value, q.unit.Symbol)
}

// Deg is a convenience constructor for an angular quantity in Degrees.
func Deg(v float64) Quantity { return New(v, Degrees) }

// Hrs is a convenience constructor for a time-in-hours quantity.
func Hrs(v float64) Quantity { return New(v, Hours) }

// Secs is a convenience constructor for a time-in-seconds quantity.
func Secs(v float64) Quantity { return New(v, Seconds) }

// NormalizeDegrees reduces an angle to [0, 360).
func NormalizeDegrees(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}
