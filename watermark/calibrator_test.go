package watermark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pilotScores returns scores whose first eight entries follow the pilot,
// with high and low standing in for 1 and 0.
func pilotScores(high, low float64, extra ...float64) []float64 {
	scores := make([]float64, 0, len(PilotPattern)+len(extra))
	for _, bit := range PilotPattern {
		if bit == 1 {
			scores = append(scores, high)
		} else {
			scores = append(scores, low)
		}
	}
	return append(scores, extra...)
}

func TestPilotAverages(t *testing.T) {
	high, low, ok := pilotAverages(pilotScores(2, -1, 100))
	require.True(t, ok)
	assert.Equal(t, 2.0, high)
	assert.Equal(t, -1.0, low)

	_, _, ok = pilotAverages([]float64{1, 2, 3})
	assert.False(t, ok)
}

func TestFramePilotStatsNormal(t *testing.T) {
	cal, ok := framePilotStats(pilotScores(1, -1, 0.5, -0.5))
	require.True(t, ok)

	assert.False(t, cal.inverted)
	assert.Equal(t, len(PilotPattern), cal.matches)
	assert.Equal(t, 0.0, cal.threshold)
	assert.True(t, cal.votesOne(0.5))
	assert.False(t, cal.votesOne(-0.5))
}

func TestFramePilotStatsInverted(t *testing.T) {
	cal, ok := framePilotStats(pilotScores(-1, 1))
	require.True(t, ok)

	assert.True(t, cal.inverted)
	assert.Equal(t, len(PilotPattern), cal.matches)
	assert.True(t, cal.votesOne(-0.5))
	assert.False(t, cal.votesOne(0.5))
}

func TestFramePilotStatsTieStaysNormal(t *testing.T) {
	cal, ok := framePilotStats(pilotScores(0, 0))
	require.True(t, ok)

	assert.False(t, cal.inverted)
	assert.Equal(t, 4, cal.matches)
}

func TestFramePilotStatsTooShort(t *testing.T) {
	_, ok := framePilotStats([]float64{1, 0, 1})
	assert.False(t, ok)
}

func TestCalibrate(t *testing.T) {
	cases := []struct {
		name     string
		agg      aggregate
		inverted bool
	}{
		{
			name: "normal",
			agg:  aggregate{medians: pilotScores(1, -1), validFrames: 3, invertedFrames: 1},
		},
		{
			name:     "reversed pilot averages",
			agg:      aggregate{medians: pilotScores(-1, 1), validFrames: 3},
			inverted: true,
		},
		{
			name:     "half the frames inverted",
			agg:      aggregate{medians: pilotScores(1, -1), validFrames: 4, invertedFrames: 2},
			inverted: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cal := calibrate(tc.agg)
			assert.Equal(t, tc.inverted, cal.inverted)
			assert.Equal(t, 0.0, cal.threshold)
		})
	}
}
