package quantity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversionRoundTrip(t *testing.T) {
	q := New(3600, Seconds)
	h := q.To(Hours)
	require.InDelta(t, 1.0, h.Value(), 1e-12)
	back := h.To(Seconds)
	require.InDelta(t, 3600, back.Value(), 1e-9)
}

func TestAddRequiresSameUnit(t *testing.T) {
	a := New(1, Hours)
	b := New(30, Minutes)
	assert.Panics(t, func() { a.Add(b) })
}

func TestScaleAndLess(t *testing.T) {
	a := Deg(10).Scale(2)
	assert.Equal(t, 20.0, a.Value())
	assert.True(t, Deg(1).Less(Deg(2)))
	assert.False(t, Deg(2).Less(Deg(2)))
}

func TestNormalizeDegrees(t *testing.T) {
	assert.InDelta(t, 10.0, NormalizeDegrees(370), 1e-9)
	assert.InDelta(t, 350.0, NormalizeDegrees(-10), 1e-9)
	assert.InDelta(t, 0.0, NormalizeDegrees(360), 1e-9)
}

func TestDimensionMismatchPanics(t *testing.T) {
	assert.Panics(t, func() { Deg(1).To(Seconds) })
}
