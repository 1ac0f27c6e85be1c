package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSource = `{
  "location": {"lat": 28.7624, "lon": 342.1108, "distance": 6373.396, "name": "Roque de los Muchachos"},
  "period": {"start": 60694.0, "end": 60701.0},
  "tasks": [
    {"type": "observation", "id": "blk-1", "target": {"position": {"ra": 158.03, "dec": -68.03}}, "duration_sec": 1200, "priority": 5.0},
    {"type": "calibration", "id": "cal-1", "target": {"position": {"ra": 0, "dec": 0}}, "duration_sec": 60, "priority": 0}
  ]
}`

func TestParseSourceHappyPath(t *testing.T) {
	sched, err := ParseSource("test", []byte(sampleSource))
	require.NoError(t, err)
	require.Len(t, sched.Blocks, 1, "calibration task must be ignored")
	assert.Equal(t, "blk-1", sched.Blocks[0].OriginalBlockID)
	assert.InDelta(t, -17.8892, sched.Location.LongitudeDeg, 1e-4, "longitude normalized to [-180,180)")
	assert.InDelta(t, 2396, sched.Location.ElevationM, 1, "elevation derived from geocentric distance")
	assert.Len(t, sched.Checksum, 64)
}

func TestParseSourceMissingIDIsFatal(t *testing.T) {
	bad := `{"location":{"lat":0,"lon":0,"distance":6371},"period":{"start":0,"end":1},
	"tasks":[{"type":"observation","target":{"position":{"ra":1,"dec":1}},"duration_sec":1,"priority":1}]}`
	_, err := ParseSource("test", []byte(bad))
	require.Error(t, err)
}

func TestParseSourceDuplicateBytesSameChecksum(t *testing.T) {
	a, err := ParseSource("a", []byte(sampleSource))
	require.NoError(t, err)
	b, err := ParseSource("b", []byte(sampleSource))
	require.NoError(t, err)
	assert.Equal(t, a.Checksum, b.Checksum)
}

func TestParseSourceRejectsReversedPeriod(t *testing.T) {
	bad := `{"location":{"lat":0,"lon":0,"distance":6371},"period":{"start":10,"end":5},"tasks":[]}`
	_, err := ParseSource("test", []byte(bad))
	require.Error(t, err)
}
